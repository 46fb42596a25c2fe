package domain

import "errors"

var (
	ErrMissingIdentity = errors.New("missing user identity")
	ErrInvalidCallType = errors.New("invalid call type")
	ErrUnknownSignal   = errors.New("unknown signal kind")
	ErrPolicyDenied    = errors.New("routing denied by policy")
)
