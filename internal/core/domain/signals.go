package domain

// SignalKind discriminates the call-control signals exchanged between two
// identities. Each signal is a one-way best-effort forward; the router never
// acknowledges delivery to the sender.
type SignalKind string

const (
	SignalInvite SignalKind = "invite"
	SignalAccept SignalKind = "accept"
	SignalReject SignalKind = "reject"
	SignalEnd    SignalKind = "end"
)

// Signal is the tagged union of call-control events. Using explicit variants
// keeps the routing and session transition tables exhaustively checkable.
type Signal interface {
	Kind() SignalKind
	// Target is the identity the signal must be delivered to.
	Target() UserID
	// Sender is the identity the signal originates from, when known.
	Sender() UserID
}

// InviteSignal rings To on behalf of From.
type InviteSignal struct {
	From UserID
	To   UserID
	Type CallType
}

func (s InviteSignal) Kind() SignalKind { return SignalInvite }
func (s InviteSignal) Target() UserID   { return s.To }
func (s InviteSignal) Sender() UserID   { return s.From }

// AcceptSignal tells the caller To that From picked up.
type AcceptSignal struct {
	From UserID
	To   UserID
}

func (s AcceptSignal) Kind() SignalKind { return SignalAccept }
func (s AcceptSignal) Target() UserID   { return s.To }
func (s AcceptSignal) Sender() UserID   { return s.From }

// RejectSignal tells To the call was declined. The original wire format
// carries no sender, so Sender is empty.
type RejectSignal struct {
	To UserID
}

func (s RejectSignal) Kind() SignalKind { return SignalReject }
func (s RejectSignal) Target() UserID   { return s.To }
func (s RejectSignal) Sender() UserID   { return "" }

// EndSignal tells To the call was hung up.
type EndSignal struct {
	To UserID
}

func (s EndSignal) Kind() SignalKind { return SignalEnd }
func (s EndSignal) Target() UserID   { return s.To }
func (s EndSignal) Sender() UserID   { return "" }
