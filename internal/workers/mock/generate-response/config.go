// internal/workers/mock/generate-response/config.go
package generateresponse

import (
	"fmt"
	"time"

	"mock-response-service/internal/common/config"
	"mock-response-service/internal/storage"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// Strict rejects selections naming a service or flavor missing from the catalog.
	Strict     bool
	Collection string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       10 * time.Second,
		Collection:    storage.ResponsesCollection,
	}
}

// ConfigFromApp overlays the application config on DefaultConfig.
func ConfigFromApp(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	cfg.Strict = appConfig.Mocks.Strict
	if workerCfg, ok := appConfig.Workers[TaskType]; ok {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	return nil
}
