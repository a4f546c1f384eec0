package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const probeTimeout = 5 * time.Second

// Signal wraps the platform connectivity state into a subscribable boolean.
// Hosts with a native online/offline event feed it through SetOnline; hosts
// without one run StartProbing, which reachability-checks a URL on a
// backoff-governed interval. Either way the contract is the same: every
// discrete transition is delivered to every listener, in registration
// order, and a true->false->true flap is two calls, never zero.
type Signal struct {
	mu        sync.Mutex
	online    bool
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(bool)
}

// New returns a signal with the given initial state. No listener is
// notified for the initial state, only for transitions.
func New(initial bool) *Signal {
	return &Signal{online: initial}
}

// IsOnline is a point-in-time read of the connectivity flag.
func (s *Signal) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// OnChange registers a callback fired on every transition. The returned
// function unsubscribes it.
func (s *Signal) OnChange(fn func(online bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// SetOnline records a new connectivity state. A no-op if the state is
// unchanged; otherwise listeners are called synchronously, so back-to-back
// SetOnline(false)/SetOnline(true) delivers both transitions.
func (s *Signal) SetOnline(online bool) {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online
	snapshot := make([]listener, len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		l.fn(online)
	}
}

// StartProbing runs the fallback prober until the context is canceled. The
// probe interval stretches exponentially while the endpoint keeps failing
// and snaps back to the initial interval on the first success, so a
// recovered link is noticed quickly without hammering a dead one.
func (s *Signal) StartProbing(ctx context.Context, probeURL string, interval time.Duration) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = interval
	bo.MaxInterval = 10 * interval
	bo.MaxElapsedTime = 0

	go func() {
		wait := time.Duration(0) // probe immediately on start
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}

			if probe(ctx, probeURL) {
				s.SetOnline(true)
				bo.Reset()
				wait = interval
			} else {
				s.SetOnline(false)
				wait = bo.NextBackOff()
			}
		}
	}()
}

func probe(ctx context.Context, probeURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
	if err != nil {
		logrus.Errorf("invalid connectivity probe url %q: %v", probeURL, err)
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
