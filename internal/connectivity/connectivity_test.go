package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalDeliversEveryTransition(t *testing.T) {
	s := New(true)
	assert.True(t, s.IsOnline())

	var transitions []bool
	s.OnChange(func(online bool) {
		transitions = append(transitions, online)
	})

	// a flap is two transitions, never zero
	s.SetOnline(false)
	s.SetOnline(true)
	assert.Equal(t, []bool{false, true}, transitions)
	assert.True(t, s.IsOnline())
}

func TestSignalIgnoresRepeatedState(t *testing.T) {
	s := New(false)

	calls := 0
	s.OnChange(func(bool) { calls++ })

	s.SetOnline(false)
	s.SetOnline(false)
	assert.Equal(t, 0, calls)

	s.SetOnline(true)
	s.SetOnline(true)
	assert.Equal(t, 1, calls)
}

func TestSignalListenerOrderAndUnsubscribe(t *testing.T) {
	s := New(false)

	var order []string
	unsubscribeFirst := s.OnChange(func(bool) { order = append(order, "first") })
	s.OnChange(func(bool) { order = append(order, "second") })

	s.SetOnline(true)
	assert.Equal(t, []string{"first", "second"}, order)

	unsubscribeFirst()
	s.SetOnline(false)
	assert.Equal(t, []string{"first", "second", "second"}, order)
}

func TestStartProbingTracksEndpoint(t *testing.T) {
	var healthy int32 = 1
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&healthy) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(false)
	s.StartProbing(ctx, server.URL, 10*time.Millisecond)

	assert.Eventually(t, s.IsOnline, 2*time.Second, 5*time.Millisecond)

	atomic.StoreInt32(&healthy, 0)
	assert.Eventually(t, func() bool { return !s.IsOnline() }, 2*time.Second, 5*time.Millisecond)

	atomic.StoreInt32(&healthy, 1)
	assert.Eventually(t, s.IsOnline, 2*time.Second, 5*time.Millisecond)
}

func TestProbeTreatsClientErrorsAsReachable(t *testing.T) {
	// a 404 still proves the network path works
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, probe(context.Background(), server.URL))
}

func TestProbeUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	assert.False(t, probe(context.Background(), server.URL))
}
