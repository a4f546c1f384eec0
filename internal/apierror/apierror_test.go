package apierror

import (
	"context"
	"errors"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, ErrValidation, Code(NewAPIError(ErrValidation, "bad payload", nil)))
	assert.Equal(t, ErrInternalServer, Code(errors.New("plain error")))
}

func TestCodeUnwrapsChains(t *testing.T) {
	inner := NewAPIError(ErrStorageUnavailable, "disk full", nil)
	wrapped := NewAPIError(ErrInternalServer, "save failed", inner)

	// the outermost tagged error wins
	assert.Equal(t, ErrInternalServer, Code(wrapped))
	assert.True(t, Is(wrapped.Unwrap(), ErrStorageUnavailable))
}

func TestIsNetwork(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"tagged network error", NewAPIError(ErrNetwork, "server unreachable", nil), true},
		{"tagged validation error", NewAPIError(ErrValidation, "bad email", nil), false},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("dial tcp: no route to host")}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"plain error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNetwork(tt.err))
		})
	}
}

func TestIsNetworkPrefersTaggedCode(t *testing.T) {
	// a tagged business error wrapping a transport failure is still a
	// business error: the server was reached and answered
	err := NewAPIError(ErrServerBusiness, "rejected", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("boom")})
	assert.False(t, IsNetwork(err))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsValidation(NewAPIError(ErrValidation, "bad", nil)))
	assert.True(t, IsStorage(NewAPIError(ErrStorageUnavailable, "locked", nil)))
	assert.False(t, IsStorage(NewAPIError(ErrNetwork, "down", nil)))
}
