package core

import "github.com/dkeye/Conference/internal/domain"

// Member binds a participant identity to its transport endpoint.
// This is what a room stores and fans out to.
type Member interface {
	Conn() ConnID
	Participant() domain.ParticipantID
	DisplayName() string
	Signal() SignalConnection
}
