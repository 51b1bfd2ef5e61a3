package signal

import "github.com/dkeye/Conference/internal/core"

func (ctl *SignalWSController) handlePing(s *wsSession) {
	ctl.Orch.Touch(s.id)
	ctl.send(s, core.TypePong, nil)
}

func (ctl *SignalWSController) handleCustomCommand(s *wsSession, env core.Envelope) {
	var p core.CustomCommandPayload
	if !ctl.bind(s, env, &p) {
		return
	}
	ctl.Orch.CustomCommand(s.id, p)
}
