package core

import "errors"

// Frame is a raw encoded message.
type Frame []byte

// ConnID identifies one live signaling connection. It is assigned by the
// server and never reused.
type ConnID string

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues f without blocking. It returns ErrBackpressure when
	// the outbound queue is full and ErrConnClosed after Close.
	TrySend(Frame) error
	Close()
}
