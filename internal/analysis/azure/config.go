package azure

import (
	"time"
)

// Config for the Document Intelligence client.
type Config struct {
	Endpoint     string        // e.g. https://<resource>.cognitiveservices.azure.com
	Key          string        // sent as Ocp-Apim-Subscription-Key
	Model        string        // default "prebuilt-layout"
	APIVersion   string        // default "2024-11-30"
	PollInterval time.Duration // used until the service sends Retry-After
	MaxPolls     int           // 0 -> 120
	Timeout      time.Duration // per HTTP request
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = "prebuilt-layout"
	}
	if c.APIVersion == "" {
		c.APIVersion = "2024-11-30"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = 120
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}
