package signal

import (
	"context"
	"time"

	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump owns the connection's lifetime: when it returns, the connection
// is cleaned up.
func (ctl *SignalWSController) readPump(s *wsSession) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(s.id)).Msg("readPump closing")
		ctl.Orch.Disconnect(context.WithoutCancel(s.ctx), s.id)
	}()

	ws := s.conn.conn
	ws.SetReadLimit(ctl.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msg("readPump read error")
			}
			return
		}
		if !ctl.limiter.Allow(s.id) {
			ctl.sendError(s, domain.NewError(domain.KindNetworkError, "rate limit exceeded"))
			continue
		}
		if stop := ctl.handleSignal(s, data); stop {
			return
		}
	}
}

// handleSignal dispatches one frame. It reports true when the connection
// should end.
func (ctl *SignalWSController) handleSignal(s *wsSession, data []byte) bool {
	env, err := core.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(s.id)).Msg("bad json")
		ctl.sendError(s, domain.NewError(domain.KindInvalidConfiguration, "malformed message"))
		return false
	}

	switch env.Type {
	case core.TypeConnect:
		ctl.handleConnect(s, env)
	case core.TypeDisconnect:
		ctl.handleDisconnect(s)
		return true
	case core.TypeReconfigure:
		ctl.handleReconfigure(s, env)
	case core.TypeMute:
		ctl.handleMute(s, env)
	case core.TypeLatencyReport:
		ctl.handleLatencyReport(s, env)
	case core.TypeApprove, core.TypeDeny, core.TypeBanParticipant, core.TypeBanDevice, core.TypeAuthorizeModerator:
		ctl.handleModeration(s, env)
	case core.TypeTextMessage:
		ctl.handleTextMessage(s, env)
	case core.TypeAudioData:
		ctl.handleAudioData(s, env)
	case core.TypeJoin:
		ctl.handleJoin(s, env)
	case core.TypeLeave:
		ctl.handleLeave(s)
	case core.TypeOffer, core.TypeAnswer:
		ctl.handleSDP(s, env)
	case core.TypeICECandidate:
		ctl.handleCandidate(s, env)
	case core.TypeSubtitle:
		ctl.handleSubtitle(s, env)
	case core.TypePing:
		ctl.handlePing(s)
	case core.TypeCustomCommand:
		ctl.handleCustomCommand(s, env)
	default:
		log.Warn().Str("module", "signal").Str("type", string(env.Type)).Msg("unknown signal")
		ctl.sendError(s, domain.NewError(domain.KindInvalidConfiguration, "unknown message type %q", env.Type))
	}
	return false
}

// bind decodes the payload or answers with an error envelope.
func (ctl *SignalWSController) bind(s *wsSession, env core.Envelope, v any) bool {
	if err := env.Bind(v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", string(env.Type)).Msg("bad payload")
		ctl.sendError(s, domain.NewError(domain.KindInvalidConfiguration, "bad %s payload", env.Type))
		return false
	}
	return true
}

func (ctl *SignalWSController) send(s *wsSession, t core.MessageType, v any) {
	f, err := core.Encode(t, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send marshal")
		return
	}
	_ = s.conn.TrySend(f)
}

func (ctl *SignalWSController) sendError(s *wsSession, err error) {
	_ = s.conn.TrySend(core.EncodeError(err))
}

// reply reports err, if any, back to the sender.
func (ctl *SignalWSController) reply(s *wsSession, err error) {
	if err != nil {
		ctl.sendError(s, err)
	}
}
