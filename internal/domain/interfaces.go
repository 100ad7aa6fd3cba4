package domain

// PriorRiskProvider maps maternal age to the prior odds denominator
type PriorRiskProvider interface {
	PriorOdds(age int) (float64, error)
}

// MedianProvider returns population medians per marker and gestational week
type MedianProvider interface {
	Median(marker Marker, week int) (float64, error)
}

// MarkerModelProvider returns the density models used for a marker
type MarkerModelProvider interface {
	Model(marker Marker) (MarkerModel, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetLoggingConfig() *LoggingConfig
	GetAssayConfig() *AssayConfig
	GetScreeningConfig() *ScreeningConfig
	GetReferenceConfig() *ReferenceConfig
	Reload() error
	Validate() error
}
