package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the conference core. Callers compare
// kinds, never messages.
type ErrorKind string

const (
	KindSessionNotFound      ErrorKind = "SessionNotFound"
	KindParticipantNotFound  ErrorKind = "ParticipantNotFound"
	KindSessionFull          ErrorKind = "SessionFull"
	KindUnauthorizedAction   ErrorKind = "UnauthorizedAction"
	KindInvalidDeviceType    ErrorKind = "InvalidDeviceType"
	KindInvalidConfiguration ErrorKind = "InvalidConfiguration"
	KindModerationError      ErrorKind = "ModerationError"
	KindChatError            ErrorKind = "ChatError"
	KindNetworkError         ErrorKind = "NetworkError"
	KindInternalError        ErrorKind = "InternalError"
	KindDeviceUpgradeError   ErrorKind = "DeviceUpgradeError"
)

type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Msg
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrSessionFull)
// holds whatever message err carries.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrSessionNotFound      = &Error{Kind: KindSessionNotFound}
	ErrParticipantNotFound  = &Error{Kind: KindParticipantNotFound}
	ErrSessionFull          = &Error{Kind: KindSessionFull}
	ErrUnauthorizedAction   = &Error{Kind: KindUnauthorizedAction}
	ErrInvalidDeviceType    = &Error{Kind: KindInvalidDeviceType}
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration}
	ErrModeration           = &Error{Kind: KindModerationError}
	ErrChat                 = &Error{Kind: KindChatError}
	ErrNetwork              = &Error{Kind: KindNetworkError}
	ErrInternal             = &Error{Kind: KindInternalError}
	ErrDeviceUpgrade        = &Error{Kind: KindDeviceUpgradeError}
)

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind carried by err. Foreign errors are internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalError
}
