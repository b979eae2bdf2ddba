package db

import (
	"sync"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// DonorSubscription is a live view over a scoped donor query. The channel
// delivers the full current result set on attach and again after every
// change. Callers must Stop the subscription when it is no longer observed;
// the channel is closed once the backing listener has shut down.
type DonorSubscription struct {
	C <-chan []model.Donor

	stopOnce sync.Once
	stop     func()
}

// NewDonorSubscription wraps a result channel and a teardown func. stop must
// be safe to call exactly once; Stop handles idempotence.
func NewDonorSubscription(c <-chan []model.Donor, stop func()) *DonorSubscription {
	return &DonorSubscription{C: c, stop: stop}
}

// Stop tears down the backing listener. Safe to call multiple times.
func (s *DonorSubscription) Stop() {
	s.stopOnce.Do(s.stop)
}
