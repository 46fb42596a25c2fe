package services

import (
	"context"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"

	"go.uber.org/zap"
)

// Server-to-client event names for forwarded signals.
const (
	EventIncomingCall = "incomingCall"
	EventCallAccepted = "callAccepted"
	EventCallRejected = "callRejected"
	EventCallEnded    = "callEnded"
)

// IncomingCallPayload rings the receiver.
type IncomingCallPayload struct {
	From domain.UserID   `json:"from"`
	Type domain.CallType `json:"type"`
}

// CallAcceptedPayload tells the caller who picked up.
type CallAcceptedPayload struct {
	From domain.UserID `json:"from"`
}

// RouterMetrics records routing outcomes. All methods must be safe for
// concurrent use.
type RouterMetrics interface {
	SignalRouted(kind domain.SignalKind)
	SignalDropped(kind domain.SignalKind)
	SignalDenied(kind domain.SignalKind)
}

// callSignalRouter forwards call-control signals to the connection currently
// registered for the target identity. It is stateless: the peer handle is
// resolved at the instant of forwarding, never cached, and delivery is
// best-effort with no acknowledgement back to the sender.
type callSignalRouter struct {
	registry ports.ConnectionRegistry
	policy   ports.RoutePolicy
	metrics  RouterMetrics
	logger   *zap.SugaredLogger
}

func NewCallSignalRouter(
	registry ports.ConnectionRegistry,
	policy ports.RoutePolicy, // nil means allow everything
	metrics RouterMetrics, // may be nil
	logger *zap.SugaredLogger,
) ports.SignalRouter {
	if policy == nil {
		policy = func(from, to domain.UserID) bool { return true }
	}
	return &callSignalRouter{
		registry: registry,
		policy:   policy,
		metrics:  metrics,
		logger:   logger,
	}
}

// Route is the single dispatch entry point for all signal kinds. A signal
// whose target is not registered is dropped silently: the sender gets no
// feedback and its local session state is unaffected.
func (r *callSignalRouter) Route(ctx context.Context, sig domain.Signal) {
	target := sig.Target()
	if target == "" {
		return
	}

	if !r.policy(sig.Sender(), target) {
		r.logger.Debugw("signal denied",
			"kind", sig.Kind(), "from", sig.Sender(), "to", target, "error", domain.ErrPolicyDenied)
		if r.metrics != nil {
			r.metrics.SignalDenied(sig.Kind())
		}
		return
	}

	conn, ok := r.registry.Lookup(target)
	if !ok {
		r.logger.Debugw("signal target not connected, dropping",
			"kind", sig.Kind(), "from", sig.Sender(), "to", target)
		if r.metrics != nil {
			r.metrics.SignalDropped(sig.Kind())
		}
		return
	}

	var err error
	switch s := sig.(type) {
	case domain.InviteSignal:
		err = conn.Send(EventIncomingCall, IncomingCallPayload{From: s.From, Type: s.Type})
	case domain.AcceptSignal:
		err = conn.Send(EventCallAccepted, CallAcceptedPayload{From: s.From})
	case domain.RejectSignal:
		err = conn.Send(EventCallRejected, nil)
	case domain.EndSignal:
		err = conn.Send(EventCallEnded, nil)
	default:
		r.logger.Warnw("dropping signal", "kind", sig.Kind(), "error", domain.ErrUnknownSignal)
		return
	}

	if err != nil {
		// The target connection is dying; its read loop will unregister it.
		r.logger.Debugw("signal delivery failed",
			"kind", sig.Kind(), "to", target, "error", err)
		if r.metrics != nil {
			r.metrics.SignalDropped(sig.Kind())
		}
		return
	}

	if r.metrics != nil {
		r.metrics.SignalRouted(sig.Kind())
	}
}
