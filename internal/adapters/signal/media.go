package signal

import (
	"github.com/dkeye/Conference/internal/core"
)

func (ctl *SignalWSController) handleTextMessage(s *wsSession, env core.Envelope) {
	var p core.TextMessagePayload
	if !ctl.bind(s, env, &p) {
		return
	}
	pid, ok := ctl.caller(s)
	if !ok {
		return
	}
	_, err := ctl.Orch.Chat(s.ctx, p.SessionID, pid, p.Message, p.Recipient)
	ctl.reply(s, err)
}

// handleAudioData never decodes the samples; they go to the audio engine
// and on to the other participants.
func (ctl *SignalWSController) handleAudioData(s *wsSession, env core.Envelope) {
	var p core.AudioDataPayload
	if !ctl.bind(s, env, &p) {
		return
	}
	pid, ok := ctl.caller(s)
	if !ok {
		return
	}
	ctl.reply(s, ctl.Orch.AudioData(s.ctx, p.SessionID, pid, p.Data))
}
