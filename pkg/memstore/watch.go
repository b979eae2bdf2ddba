package memstore

import (
	"context"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
	"github.com/donorlink/plasma-center/pkg/db"
)

type donorWatcher struct {
	filter *scope.Filter
	// Buffered by one; a stale pending snapshot is replaced, not queued.
	ch chan []model.Donor
}

// WatchDonors delivers the scoped donor list immediately and again after
// every donor write until Stop is called or ctx is cancelled.
func (s *Store) WatchDonors(ctx context.Context, filter *scope.Filter) (*db.DonorSubscription, error) {
	s.mu.Lock()
	id := s.nextWatcherID
	s.nextWatcherID++
	w := &donorWatcher{filter: filter, ch: make(chan []model.Donor, 1)}
	s.watchers[id] = w
	w.ch <- s.donorsLocked(filter)
	s.mu.Unlock()

	out := make(chan []model.Donor)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case donors := <-w.ch:
				select {
				case out <- donors:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		close(done)
	}

	return db.NewDonorSubscription(out, stop), nil
}

// notifyWatchers pushes a fresh snapshot to every watcher. Called after any
// donor-mutating commit, without the store mutex held by the caller.
func (s *Store) notifyWatchers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.watchers {
		snapshot := s.donorsLocked(w.filter)
		select {
		case w.ch <- snapshot:
		default:
			// Replace the stale pending snapshot.
			select {
			case <-w.ch:
			default:
			}
			w.ch <- snapshot
		}
	}
}
