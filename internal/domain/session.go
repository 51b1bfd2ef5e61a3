package domain

import (
	"slices"
	"time"
)

type SessionID string

type QualityTier string

const (
	QualityLow         QualityTier = "low"
	QualityMedium      QualityTier = "medium"
	QualityHigh        QualityTier = "high"
	QualityUnavailable QualityTier = "unavailable"
)

type SessionStats struct {
	Quality          QualityTier `json:"quality"`
	LatencyMs        uint32      `json:"latency_ms"`
	PeakParticipants int         `json:"peak_participants"`
	DataBytes        uint64      `json:"data_bytes"`
}

type Session struct {
	ID           SessionID     `json:"id"`
	Owner        ParticipantID `json:"owner"`
	Participants []Participant `json:"participants"`
	WaitingRoom  []Participant `json:"waiting_room"`
	Config       SessionConfig `json:"config"`
	CreatedAt    time.Time     `json:"created_at"`
	// ActiveDuration accumulates the time the session had at least one
	// participant, up to the last time it became empty.
	ActiveDuration     time.Duration      `json:"active_duration"`
	ActiveSince        time.Time          `json:"active_since,omitzero"`
	Stats              SessionStats       `json:"stats"`
	BannedDevices      Set[DeviceID]      `json:"banned_devices"`
	BannedParticipants Set[ParticipantID] `json:"banned_participants"`
	Moderators         Set[ParticipantID] `json:"moderators"`
}

func NewSession(id SessionID, owner ParticipantID, cfg SessionConfig, now time.Time) *Session {
	return &Session{
		ID:                 id,
		Owner:              owner,
		Participants:       []Participant{},
		WaitingRoom:        []Participant{},
		Config:             cfg.Clone(),
		CreatedAt:          now,
		Stats:              SessionStats{Quality: QualityUnavailable},
		BannedDevices:      NewSet[DeviceID](),
		BannedParticipants: NewSet[ParticipantID](),
		Moderators:         NewSet(owner),
	}
}

// Clone returns a deep copy; mutations on the copy never reach s.
func (s *Session) Clone() *Session {
	c := *s
	c.Participants = cloneParticipants(s.Participants)
	c.WaitingRoom = cloneParticipants(s.WaitingRoom)
	c.Config = s.Config.Clone()
	c.BannedDevices = s.BannedDevices.Clone()
	c.BannedParticipants = s.BannedParticipants.Clone()
	c.Moderators = s.Moderators.Clone()
	return &c
}

func cloneParticipants(in []Participant) []Participant {
	out := make([]Participant, len(in))
	for i, p := range in {
		p.Device.SupportedCodecs = slices.Clone(p.Device.SupportedCodecs)
		out[i] = p
	}
	return out
}

func (s *Session) IsModerator(id ParticipantID) bool {
	return id == s.Owner || s.Moderators.Has(id)
}

func (s *Session) ParticipantIndex(id ParticipantID) int {
	return slices.IndexFunc(s.Participants, func(p Participant) bool { return p.ID == id })
}

func (s *Session) HasParticipant(id ParticipantID) bool {
	return s.ParticipantIndex(id) >= 0
}

func (s *Session) WaitingIndex(id ParticipantID) int {
	return slices.IndexFunc(s.WaitingRoom, func(p Participant) bool { return p.ID == id })
}

func (s *Session) ParticipantIDs() []ParticipantID {
	out := make([]ParticipantID, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, p.ID)
	}
	return out
}

// AddParticipant appends p, bumps the peak counter and starts the active
// clock when the session was empty.
func (s *Session) AddParticipant(p Participant, now time.Time) {
	if len(s.Participants) == 0 {
		s.ActiveSince = now
	}
	s.Participants = append(s.Participants, p)
	s.Stats.PeakParticipants = max(s.Stats.PeakParticipants, len(s.Participants))
}

// RemoveParticipant drops id from the participant list and reports whether
// it was present. The active clock stops when the last participant leaves.
func (s *Session) RemoveParticipant(id ParticipantID, now time.Time) (Participant, bool) {
	i := s.ParticipantIndex(id)
	if i < 0 {
		return Participant{}, false
	}
	p := s.Participants[i]
	s.Participants = slices.Delete(s.Participants, i, i+1)
	if len(s.Participants) == 0 && !s.ActiveSince.IsZero() {
		s.ActiveDuration += now.Sub(s.ActiveSince)
		s.ActiveSince = time.Time{}
	}
	return p, true
}

func (s *Session) RemoveWaiting(id ParticipantID) (Participant, bool) {
	i := s.WaitingIndex(id)
	if i < 0 {
		return Participant{}, false
	}
	p := s.WaitingRoom[i]
	s.WaitingRoom = slices.Delete(s.WaitingRoom, i, i+1)
	return p, true
}

// Elapsed is the total active time including the running interval.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.ActiveSince.IsZero() {
		return s.ActiveDuration
	}
	return s.ActiveDuration + now.Sub(s.ActiveSince)
}

type JoinMode string

const (
	JoinDirect          JoinMode = "direct"
	JoinPendingApproval JoinMode = "pending_approval"
	JoinCustomConfig    JoinMode = "custom_config"
)

// JoinRequest selects how a participant enters a session. Audio is read
// only for JoinCustomConfig.
type JoinRequest struct {
	Mode  JoinMode     `json:"mode"`
	Audio *AudioConfig `json:"audio,omitempty"`
}

type JoinStatus string

const (
	JoinAdmitted JoinStatus = "admitted"
	JoinWaiting  JoinStatus = "waiting"
)
