package core

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Conference/internal/domain"
	"github.com/pion/webrtc/v4"
)

// MessageType is the discriminator of the wire envelope.
type MessageType string

// Client to server.
const (
	TypeConnect            MessageType = "connect"
	TypeDisconnect         MessageType = "disconnect"
	TypeAudioData          MessageType = "audio_data"
	TypeTextMessage        MessageType = "text_message"
	TypeReconfigure        MessageType = "reconfigure"
	TypeCustomCommand      MessageType = "custom_command"
	TypePing               MessageType = "ping"
	TypeMute               MessageType = "mute"
	TypeLatencyReport      MessageType = "latency_report"
	TypeApprove            MessageType = "approve"
	TypeDeny               MessageType = "deny"
	TypeBanParticipant     MessageType = "ban_participant"
	TypeBanDevice          MessageType = "ban_device"
	TypeAuthorizeModerator MessageType = "authorize_moderator"
)

// Server to client.
const (
	TypeConnected           MessageType = "connected"
	TypeWaiting             MessageType = "waiting"
	TypeParticipantJoined   MessageType = "participant_joined"
	TypeParticipantLeft     MessageType = "participant_left"
	TypeAudioReceived       MessageType = "audio_received"
	TypeTextMessageReceived MessageType = "text_message_received"
	TypeSessionUpdated      MessageType = "session_updated"
	TypeError               MessageType = "error"
	TypeCustomResponse      MessageType = "custom_response"
	TypeQualityUpdate       MessageType = "quality_update"
	TypePong                MessageType = "pong"
)

// Relay kinds travel in both directions.
const (
	TypeJoin         MessageType = "join"
	TypeLeave        MessageType = "leave"
	TypeOffer        MessageType = "offer"
	TypeAnswer       MessageType = "answer"
	TypeICECandidate MessageType = "ice_candidate"
	TypeSubtitle     MessageType = "subtitle"
)

var ErrBadEnvelope = errors.New("bad envelope")

// Envelope is the single tagged form of every frame: {"type": ..., "payload": {...}}.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, errors.Join(ErrBadEnvelope, err)
	}
	if env.Type == "" {
		return Envelope{}, ErrBadEnvelope
	}
	return env, nil
}

// Bind decodes the payload into v. A missing payload leaves v untouched.
func (e Envelope) Bind(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

func Encode(t MessageType, payload any) (Frame, error) {
	env := struct {
		Type    MessageType `json:"type"`
		Payload any         `json:"payload,omitempty"`
	}{t, payload}
	return json.Marshal(env)
}

// NewErrorPayload keeps the kind of err and its message without the kind prefix.
func NewErrorPayload(err error) ErrorPayload {
	var de *domain.Error
	if errors.As(err, &de) {
		return ErrorPayload{Kind: de.Kind, Message: de.Msg}
	}
	return ErrorPayload{Kind: domain.KindInternalError, Message: err.Error()}
}

// EncodeError renders err as an error envelope carrying its kind.
func EncodeError(err error) Frame {
	f, _ := Encode(TypeError, NewErrorPayload(err))
	return f
}

type ConnectPayload struct {
	SessionID     domain.SessionID     `json:"session_id"`
	ParticipantID domain.ParticipantID `json:"participant_id,omitempty"`
	DisplayName   string               `json:"display_name,omitempty"`
	Device        domain.DeviceInfo    `json:"device_info"`
	Features      domain.Features      `json:"features"`
	Mode          domain.JoinMode      `json:"mode,omitempty"`
	Audio         *domain.AudioConfig  `json:"audio,omitempty"`
}

type AudioDataPayload struct {
	SessionID domain.SessionID `json:"session_id"`
	Data      []int16          `json:"data"`
}

type TextMessagePayload struct {
	SessionID domain.SessionID      `json:"session_id"`
	Message   string                `json:"message"`
	Recipient *domain.ParticipantID `json:"recipient,omitempty"`
}

type ReconfigurePayload struct {
	SessionID domain.SessionID   `json:"session_id"`
	Update    domain.ConfigPatch `json:"config_update"`
}

type CustomCommandPayload struct {
	Command string `json:"command"`
	Payload []byte `json:"payload"`
}

type MutePayload struct {
	SessionID domain.SessionID `json:"session_id"`
	Muted     bool             `json:"muted"`
}

type LatencyReportPayload struct {
	SessionID domain.SessionID `json:"session_id"`
	LatencyMs uint32           `json:"latency_ms"`
}

// ModerationPayload serves approve, deny, ban_participant, ban_device and
// authorize_moderator. The caller is always the bound participant.
type ModerationPayload struct {
	SessionID     domain.SessionID     `json:"session_id"`
	ParticipantID domain.ParticipantID `json:"participant_id,omitempty"`
	DeviceID      domain.DeviceID      `json:"device_id,omitempty"`
}

type JoinPayload struct {
	Room        domain.RoomID        `json:"room"`
	Participant domain.ParticipantID `json:"participant"`
	DisplayName string               `json:"display_name,omitempty"`
}

type LeavePayload struct {
	Room        domain.RoomID        `json:"room"`
	Participant domain.ParticipantID `json:"participant"`
}

// SDPPayload carries offers and answers. SDP is never inspected.
type SDPPayload struct {
	Room     domain.RoomID        `json:"room"`
	Sender   domain.ParticipantID `json:"sender"`
	Receiver domain.ParticipantID `json:"receiver"`
	SDP      string               `json:"sdp"`
}

type ICECandidatePayload struct {
	Room      domain.RoomID        `json:"room"`
	Sender    domain.ParticipantID `json:"sender"`
	Receiver  domain.ParticipantID `json:"receiver"`
	Candidate string               `json:"candidate"`
	Metadata  json.RawMessage      `json:"metadata,omitempty"`
}

type SubtitlePayload struct {
	Room      domain.RoomID        `json:"room"`
	Sender    domain.ParticipantID `json:"sender"`
	Text      string               `json:"text"`
	Timestamp int64                `json:"timestamp"`
}

// SessionInfo is the client view of a session.
type SessionInfo struct {
	ID               domain.SessionID       `json:"id"`
	Owner            domain.ParticipantID   `json:"owner"`
	Participants     []domain.Participant   `json:"participants"`
	WaitingRoom      []domain.ParticipantID `json:"waiting_room"`
	Moderators       []domain.ParticipantID `json:"moderators"`
	Config           domain.SessionConfig   `json:"config"`
	Stats            domain.SessionStats    `json:"stats"`
	CreatedAt        time.Time              `json:"created_at"`
	ActiveDurationMs int64                  `json:"active_duration_ms"`
}

func NewSessionInfo(s *domain.Session, now time.Time) SessionInfo {
	waiting := make([]domain.ParticipantID, 0, len(s.WaitingRoom))
	for _, p := range s.WaitingRoom {
		waiting = append(waiting, p.ID)
	}
	return SessionInfo{
		ID:               s.ID,
		Owner:            s.Owner,
		Participants:     s.Participants,
		WaitingRoom:      waiting,
		Moderators:       s.Moderators.Sorted(),
		Config:           s.Config,
		Stats:            s.Stats,
		CreatedAt:        s.CreatedAt,
		ActiveDurationMs: s.Elapsed(now).Milliseconds(),
	}
}

type ConnectedPayload struct {
	Participant domain.ParticipantID `json:"participant_id"`
	Session     SessionInfo          `json:"session_info"`
	Muted       bool                 `json:"is_muted"`
	ICEServers  []webrtc.ICEServer   `json:"ice_servers,omitempty"`
}

type WaitingPayload struct {
	SessionID   domain.SessionID     `json:"session_id"`
	Participant domain.ParticipantID `json:"participant_id"`
	Position    int                  `json:"position"`
}

type ParticipantJoinedPayload struct {
	SessionID   domain.SessionID   `json:"session_id"`
	Participant domain.Participant `json:"participant"`
}

type ParticipantLeftPayload struct {
	SessionID   domain.SessionID     `json:"session_id"`
	Participant domain.ParticipantID `json:"participant_id"`
}

type AudioReceivedPayload struct {
	SessionID   domain.SessionID     `json:"session_id"`
	Participant domain.ParticipantID `json:"participant_id"`
	Data        []int16              `json:"data"`
}

type TextMessageReceivedPayload struct {
	SessionID domain.SessionID   `json:"session_id"`
	Message   domain.ChatMessage `json:"message"`
}

type SessionUpdatedPayload struct {
	Session SessionInfo `json:"session_info"`
}

type ErrorPayload struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

type CustomResponsePayload struct {
	Command string `json:"command"`
	Payload []byte `json:"payload"`
}

type QualityUpdatePayload struct {
	SessionID      domain.SessionID   `json:"session_id"`
	Quality        domain.QualityTier `json:"quality"`
	LatencyMs      uint32             `json:"latency_ms"`
	Bitrate        uint32             `json:"bitrate"`
	JitterBufferMs uint32             `json:"jitter_buffer_ms"`
}
