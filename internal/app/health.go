package app

import (
	"sync/atomic"

	"github.com/florianilch/messagebridge/internal/proxy"
)

// Health tracks whether the proxy accepts traffic. It starts not ready,
// becomes ready once the listener is up and drops back while draining.
// All methods are thread-safe.
type Health struct {
	ready atomic.Bool
}

// Compile-time check that Health implements proxy.ReadinessChecker interface
var _ proxy.ReadinessChecker = (*Health)(nil)

// NewHealth creates a Health that is not ready.
func NewHealth() *Health {
	return &Health{}
}

// MarkReady reports the proxy as able to serve.
func (h *Health) MarkReady() {
	h.ready.Store(true)
}

// MarkDraining reports the proxy as shutting down so load balancers stop
// routing new requests to it.
func (h *Health) MarkDraining() {
	h.ready.Store(false)
}

// IsReady returns the current readiness state.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}
