package dblayer

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/db"
)

// WatchDonors subscribes to the scoped donor list. Each Firestore query
// snapshot (the initial one and one per change) is delivered as the full
// current result set. The listener runs until Stop is called or ctx is
// cancelled.
func (s *Store) WatchDonors(ctx context.Context, filter *scope.Filter) (*db.DonorSubscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)

	q := scoped(s.client.Collection(colDonors).Query, filter).
		OrderBy("createdAt", firestore.Desc)
	snapIter := q.Snapshots(watchCtx)

	out := make(chan []model.Donor)

	go func() {
		defer close(out)
		defer snapIter.Stop()

		for {
			qsnap, err := snapIter.Next()
			if err != nil {
				// Cancelled or broken stream; the consumer observes the
				// channel close.
				return
			}

			donors, err := collectDonors(qsnap.Documents)
			if err != nil {
				return
			}

			select {
			case out <- donors:
			case <-watchCtx.Done():
				return
			}
		}
	}()

	return db.NewDonorSubscription(out, cancel), nil
}
