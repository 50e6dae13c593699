package entities

// Defaults and floors for campaign configuration. The floors match what the
// setter commands enforce: going below them silently clamps.
const (
	MinMessageDelaySeconds = 5
	MinCycleDelaySeconds   = 60

	DefaultAdMessage           = "Welcome to our new service! Click here to learn more."
	DefaultMessageDelaySeconds = 20
	DefaultCycleDelaySeconds   = 3600
)

// CampaignConfig is the process-wide mutable campaign configuration. It may be
// changed at any time, including while a campaign is active; the cycle runner
// re-reads it at the start of every cycle.
type CampaignConfig struct {
	AdMessage           string
	MessageDelaySeconds int
	CycleDelaySeconds   int
}

func DefaultCampaignConfig() CampaignConfig {
	return CampaignConfig{
		AdMessage:           DefaultAdMessage,
		MessageDelaySeconds: DefaultMessageDelaySeconds,
		CycleDelaySeconds:   DefaultCycleDelaySeconds,
	}
}
