package app

import "github.com/dkeye/Conference/internal/domain"

// UpgradeTarget locates the participant owning an upgrading device.
type UpgradeTarget struct {
	Session     domain.SessionID
	Participant domain.ParticipantID
}

// RequestUpgrade checks an upgrade request against the admitted devices.
// The request itself is carried out by the device layer.
func (c *Conference) RequestUpgrade(req domain.UpgradeRequest) (UpgradeTarget, error) {
	switch req.Type {
	case domain.UpgradeFirmware, domain.UpgradeSoftware:
	case domain.UpgradeCapability:
		if req.Detail == "" {
			return UpgradeTarget{}, domain.NewError(domain.KindDeviceUpgradeError, "capability request without detail")
		}
	default:
		return UpgradeTarget{}, domain.NewError(domain.KindDeviceUpgradeError, "unknown upgrade type %q", req.Type)
	}
	for _, id := range c.sessions.IDs() {
		s, err := c.sessions.Get(id)
		if err != nil {
			continue
		}
		for _, p := range s.Participants {
			if p.Device.ID == req.Device {
				return UpgradeTarget{Session: id, Participant: p.ID}, nil
			}
		}
	}
	return UpgradeTarget{}, domain.NewError(domain.KindDeviceUpgradeError, "device %s is not connected", req.Device)
}
