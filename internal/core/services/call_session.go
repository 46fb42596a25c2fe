package services

import (
	"sync"
	"time"

	"chatlink/internal/core/domain"
)

// Views the session asks the surrounding UI to navigate to.
const (
	ViewIncomingCall = "/call-screen"
	ViewActiveCall   = "/video"
)

// SignalEmitter sends a call-control signal toward the coordinator. On a real
// client this writes to the websocket; in tests it can be a recorder.
type SignalEmitter interface {
	Emit(sig domain.Signal)
}

// EmitterFunc adapts a function to the SignalEmitter interface.
type EmitterFunc func(sig domain.Signal)

func (f EmitterFunc) Emit(sig domain.Signal) { f(sig) }

// CallSessionOpts configures optional session behavior.
type CallSessionOpts struct {
	// Navigate is invoked with a view path on incoming-call and call-accepted
	// transitions. May be nil.
	Navigate func(view string)
	// RingTimeout bounds the Outgoing phase. When it elapses with the call
	// still ringing, the session resets to Idle and OnUnreachable fires.
	// Zero keeps the historical ring-forever behavior.
	RingTimeout time.Duration
	// OnUnreachable is invoked when an outgoing call rings past RingTimeout.
	// May be nil.
	OnUnreachable func(receiver domain.UserID)
}

// CallSession is the per-client call state machine. It is driven by local
// user actions (StartCall, Accept, Reject, End) and by inbound signals
// delivered through HandleSignal. Every transition out of a non-idle phase
// clears the identity fields together with the phase, so a stale identity can
// never leak into a later call. Duplicate or late events are no-ops.
type CallSession struct {
	mu   sync.Mutex
	self domain.UserID

	emitter SignalEmitter
	opts    CallSessionOpts

	phase    domain.CallPhase
	callType domain.CallType
	caller   domain.UserID
	receiver domain.UserID
	peer     domain.UserID

	// ringGen invalidates stale ring timers after the session has moved on.
	ringGen   uint64
	ringTimer *time.Timer
}

func NewCallSession(self domain.UserID, emitter SignalEmitter, opts CallSessionOpts) *CallSession {
	return &CallSession{
		self:    self,
		emitter: emitter,
		opts:    opts,
		phase:   domain.PhaseIdle,
	}
}

// Snapshot returns a copy of the current session state.
func (cs *CallSession) Snapshot() domain.CallSession {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return domain.CallSession{
		Phase:    cs.phase,
		Type:     cs.callType,
		Caller:   cs.caller,
		Receiver: cs.receiver,
		Peer:     cs.peer,
	}
}

// Phase returns the current call phase.
func (cs *CallSession) Phase() domain.CallPhase {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.phase
}

// StartCall rings receiver. Only meaningful from Idle; a session already in
// a call ignores the request.
func (cs *CallSession) StartCall(receiver domain.UserID, callType domain.CallType) {
	if receiver == "" || !callType.Valid() {
		return
	}

	cs.mu.Lock()
	if cs.phase != domain.PhaseIdle {
		cs.mu.Unlock()
		return
	}
	cs.phase = domain.PhaseOutgoing
	cs.callType = callType
	cs.caller = cs.self
	cs.receiver = receiver
	cs.peer = ""
	cs.armRingTimerLocked(receiver)
	cs.mu.Unlock()

	cs.emitter.Emit(domain.InviteSignal{From: cs.self, To: receiver, Type: callType})
}

// Accept answers an incoming call and moves to Active.
func (cs *CallSession) Accept() {
	cs.mu.Lock()
	if cs.phase != domain.PhaseIncoming {
		cs.mu.Unlock()
		return
	}
	caller := cs.caller
	cs.phase = domain.PhaseActive
	cs.peer = caller
	cs.mu.Unlock()

	cs.emitter.Emit(domain.AcceptSignal{From: cs.self, To: caller})
	cs.navigate(ViewActiveCall)
}

// Reject declines an incoming call and returns to Idle. Calling it again
// once idle is a no-op.
func (cs *CallSession) Reject() {
	cs.mu.Lock()
	if cs.phase != domain.PhaseIncoming {
		cs.mu.Unlock()
		return
	}
	caller := cs.caller
	cs.resetLocked()
	cs.mu.Unlock()

	if caller != "" {
		cs.emitter.Emit(domain.RejectSignal{To: caller})
	}
}

// End abandons the call from any non-idle phase. The counterpart is told
// only when its identity is known; the local session resets regardless of
// whether the signal can be delivered.
func (cs *CallSession) End() {
	cs.mu.Lock()
	if cs.phase == domain.PhaseIdle {
		cs.mu.Unlock()
		return
	}
	counterpart := cs.counterpartLocked()
	cs.resetLocked()
	cs.mu.Unlock()

	if counterpart != "" {
		cs.emitter.Emit(domain.EndSignal{To: counterpart})
	}
}

// HandleSignal is the single entry point for inbound call events delivered
// by the coordinator. The signal's target field is ignored; it is always
// this session.
func (cs *CallSession) HandleSignal(sig domain.Signal) {
	switch s := sig.(type) {
	case domain.InviteSignal:
		cs.handleInvite(s)
	case domain.AcceptSignal:
		cs.handleAccepted(s)
	case domain.RejectSignal:
		cs.handleRejected()
	case domain.EndSignal:
		cs.handleEnded()
	}
}

// handleInvite moves the session to Incoming. There is no capacity check: an
// invite arriving mid-call overwrites the current state, matching the
// historical behavior.
func (cs *CallSession) handleInvite(s domain.InviteSignal) {
	if s.From == "" {
		return
	}

	cs.mu.Lock()
	cs.cancelRingTimerLocked()
	cs.phase = domain.PhaseIncoming
	cs.callType = s.Type
	cs.caller = s.From
	cs.receiver = cs.self
	cs.peer = ""
	cs.mu.Unlock()

	cs.navigate(ViewIncomingCall)
}

// handleAccepted completes an outgoing call. Arriving in any other phase it
// is a no-op, so a late accept cannot resurrect an abandoned call.
func (cs *CallSession) handleAccepted(s domain.AcceptSignal) {
	if s.From == "" {
		return
	}

	cs.mu.Lock()
	if cs.phase != domain.PhaseOutgoing {
		cs.mu.Unlock()
		return
	}
	cs.cancelRingTimerLocked()
	cs.phase = domain.PhaseActive
	cs.peer = s.From
	cs.mu.Unlock()

	cs.navigate(ViewActiveCall)
}

func (cs *CallSession) handleRejected() {
	cs.mu.Lock()
	if cs.phase != domain.PhaseOutgoing {
		cs.mu.Unlock()
		return
	}
	cs.resetLocked()
	cs.mu.Unlock()
}

// handleEnded covers both the remote hang-up of an active call and the
// caller abandoning a still-ringing invite.
func (cs *CallSession) handleEnded() {
	cs.mu.Lock()
	if cs.phase != domain.PhaseActive && cs.phase != domain.PhaseIncoming {
		cs.mu.Unlock()
		return
	}
	cs.resetLocked()
	cs.mu.Unlock()
}

// counterpartLocked resolves the identity to notify for the current phase.
func (cs *CallSession) counterpartLocked() domain.UserID {
	switch cs.phase {
	case domain.PhaseOutgoing:
		return cs.receiver
	case domain.PhaseIncoming:
		return cs.caller
	case domain.PhaseActive:
		return cs.peer
	}
	return ""
}

func (cs *CallSession) resetLocked() {
	cs.cancelRingTimerLocked()
	cs.phase = domain.PhaseIdle
	cs.callType = ""
	cs.caller = ""
	cs.receiver = ""
	cs.peer = ""
}

func (cs *CallSession) armRingTimerLocked(receiver domain.UserID) {
	if cs.opts.RingTimeout <= 0 {
		return
	}
	cs.ringGen++
	gen := cs.ringGen
	cs.ringTimer = time.AfterFunc(cs.opts.RingTimeout, func() {
		cs.ringExpired(gen, receiver)
	})
}

func (cs *CallSession) cancelRingTimerLocked() {
	cs.ringGen++
	if cs.ringTimer != nil {
		cs.ringTimer.Stop()
		cs.ringTimer = nil
	}
}

func (cs *CallSession) ringExpired(gen uint64, receiver domain.UserID) {
	cs.mu.Lock()
	if gen != cs.ringGen || cs.phase != domain.PhaseOutgoing {
		cs.mu.Unlock()
		return
	}
	cs.resetLocked()
	cs.mu.Unlock()

	if cs.opts.OnUnreachable != nil {
		cs.opts.OnUnreachable(receiver)
	}
}

func (cs *CallSession) navigate(view string) {
	if cs.opts.Navigate != nil {
		cs.opts.Navigate(view)
	}
}
