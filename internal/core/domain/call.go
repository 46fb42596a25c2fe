package domain

type CallType string

const (
	CallTypeVoice CallType = "voice"
	CallTypeVideo CallType = "video"
)

// Valid reports whether t is one of the known call types.
func (t CallType) Valid() bool {
	return t == CallTypeVoice || t == CallTypeVideo
}

// CallPhase is the state of a local call session.
type CallPhase string

const (
	PhaseIdle     CallPhase = "idle"
	PhaseOutgoing CallPhase = "outgoing"
	PhaseIncoming CallPhase = "incoming"
	PhaseActive   CallPhase = "active"
)

// CallSession is the ephemeral per-client call state. Exactly one session is
// meaningful per client at a time; there is no call queueing.
type CallSession struct {
	Phase    CallPhase
	Type     CallType
	Caller   UserID
	Receiver UserID
	// Peer is the confirmed counterpart once the call is active.
	Peer UserID
}
