package domain

type (
	DeviceID   string
	DeviceType string
)

const (
	DeviceMobile      DeviceType = "mobile"
	DeviceServer      DeviceType = "server"
	DeviceRaspberryPi DeviceType = "raspberry_pi"
	DeviceLinuxBox    DeviceType = "linux_box"
	DeviceUnknown     DeviceType = "unknown"
)

type NetworkCapabilities struct {
	MaxUploadBps   uint32 `json:"max_upload_bps"`
	MaxDownloadBps uint32 `json:"max_download_bps"`
	UDP            bool   `json:"udp"`
	TCP            bool   `json:"tcp"`
}

// DeviceInfo is supplied by the client's device layer; the core only reads
// ID and Type.
type DeviceInfo struct {
	ID               DeviceID            `json:"id"`
	Type             DeviceType          `json:"type"`
	OSVersion        string              `json:"os_version,omitempty"`
	HardwareInfo     string              `json:"hardware_info,omitempty"`
	MaxAudioChannels uint8               `json:"max_audio_channels,omitempty"`
	SupportedCodecs  []string            `json:"supported_codecs,omitempty"`
	Network          NetworkCapabilities `json:"network"`
}

type UpgradeType string

const (
	UpgradeFirmware   UpgradeType = "firmware_update"
	UpgradeSoftware   UpgradeType = "software_update"
	UpgradeCapability UpgradeType = "capability_request"
)

type UpgradeRequest struct {
	Device DeviceID    `json:"device_id"`
	Type   UpgradeType `json:"type"`
	Detail string      `json:"detail,omitempty"`
}
