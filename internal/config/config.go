package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/prenatal-assay-engine/internal/domain"
)

// EnvPrefix is the prefix of environment variable overrides, e.g. ASSAY_ENGINE_BATCH_WORKERS.
const EnvPrefix = "ASSAY_ENGINE"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	path   string
	config *domain.Config
}

// NewManager creates a new configuration manager. An empty path searches the
// default locations and falls back to defaults when no file exists; an
// explicit path must exist.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.path != "" {
		v.SetConfigFile(m.path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/assay-engine/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetLoggingConfig returns logging configuration
func (m *Manager) GetLoggingConfig() *domain.LoggingConfig {
	return &m.config.Logging
}

// GetAssayConfig returns assay engine configuration
func (m *Manager) GetAssayConfig() *domain.AssayConfig {
	return &m.config.Assay
}

// GetScreeningConfig returns screening configuration
func (m *Manager) GetScreeningConfig() *domain.ScreeningConfig {
	return &m.config.Screening
}

// GetReferenceConfig returns the population reference data
func (m *Manager) GetReferenceConfig() *domain.ReferenceConfig {
	return &m.config.Reference
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch config.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	if config.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1: %d", config.Batch.Workers)
	}

	switch config.Assay.LookupPolicy {
	case "nearest", "interpolate", "exact":
	default:
		return fmt.Errorf("invalid assay lookup policy: %s", config.Assay.LookupPolicy)
	}
	if config.Assay.Tolerance < 0 {
		return fmt.Errorf("assay tolerance must not be negative: %g", config.Assay.Tolerance)
	}
	if config.Assay.AlignmentTolerance < 0 {
		return fmt.Errorf("assay alignment tolerance must not be negative: %g", config.Assay.AlignmentTolerance)
	}
	if config.Assay.Factor < 0 {
		return fmt.Errorf("assay factor must not be negative: %g", config.Assay.Factor)
	}

	if config.Screening.RiskCutoff <= 0 {
		return fmt.Errorf("screening risk cutoff must be positive: %g", config.Screening.RiskCutoff)
	}
	if config.Screening.DegeneracyFloor < 0 {
		return fmt.Errorf("screening degeneracy floor must not be negative: %g", config.Screening.DegeneracyFloor)
	}
	if len(config.Screening.Markers) == 0 {
		return fmt.Errorf("at least one screening marker is required")
	}

	modelled := make(map[string]bool, len(config.Reference.Models))
	for _, model := range config.Reference.Models {
		modelled[strings.ToLower(model.Marker)] = true
	}
	for _, marker := range config.Screening.Markers {
		if !modelled[strings.ToLower(marker)] {
			return fmt.Errorf("screening marker %s has no reference density model", marker)
		}
	}
	if len(config.Reference.AgePriors) == 0 {
		return fmt.Errorf("reference age prior table is required")
	}

	return nil
}
