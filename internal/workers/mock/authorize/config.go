// internal/workers/mock/authorize/config.go
package authorize

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
	// OutcomeService is the selections key whose flavor decides the authorize outcome.
	OutcomeService string
	Collection     string
	// ParkedTTL bounds how long a session may wait for a userId. Zero keeps it until resumed.
	ParkedTTL time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  5,
		Timeout:        10 * time.Second,
		OutcomeService: "okta",
		Collection:     storage.ResponsesCollection,
	}
}

// ConfigFromApp overlays the application config on DefaultConfig.
func ConfigFromApp(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	if appConfig.Authorize.OutcomeService != "" {
		cfg.OutcomeService = appConfig.Authorize.OutcomeService
	}
	if appConfig.Authorize.ParkedTTL > 0 {
		cfg.ParkedTTL = config.GetDuration(appConfig.Authorize.ParkedTTL)
	}
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
	if c.OutcomeService == "" {
		return fmt.Errorf("outcome service is required")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if c.ParkedTTL < 0 {
		return fmt.Errorf("parked ttl must not be negative")
	}
	return nil
}
