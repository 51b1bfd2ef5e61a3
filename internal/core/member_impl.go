package core

import "github.com/dkeye/Conference/internal/domain"

// member implements Member by pairing identity + transport.
type member struct {
	conn        ConnID
	participant domain.ParticipantID
	displayName string
	signal      SignalConnection
}

func NewMember(conn ConnID, pid domain.ParticipantID, displayName string, sig SignalConnection) Member {
	return &member{conn: conn, participant: pid, displayName: displayName, signal: sig}
}

func (m *member) Conn() ConnID                      { return m.conn }
func (m *member) Participant() domain.ParticipantID { return m.participant }
func (m *member) DisplayName() string               { return m.displayName }
func (m *member) Signal() SignalConnection          { return m.signal }
