package domain

// Config represents the main application configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Assay     AssayConfig     `mapstructure:"assay"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Reference ReferenceConfig `mapstructure:"reference"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json", "text"
	Output string `mapstructure:"output"` // "stdout", "stderr"
}

// BatchConfig controls the batch worker pool
type BatchConfig struct {
	Workers  int  `mapstructure:"workers"`
	FailFast bool `mapstructure:"fail_fast"`
}

// AssayConfig represents photometric assay engine configuration
type AssayConfig struct {
	LookupPolicy       string  `mapstructure:"lookup_policy"`       // "nearest", "interpolate", "exact"
	Tolerance          float64 `mapstructure:"tolerance"`           // seconds; 0 disables the nearest-sample distance check
	AlignmentTolerance float64 `mapstructure:"alignment_tolerance"` // seconds between main and sub timestamps
	Factor             float64 `mapstructure:"factor"`              // result multiplier, 0 means 1
}

// ScreeningConfig represents T21 screening configuration
type ScreeningConfig struct {
	WeightIntercept float64  `mapstructure:"weight_intercept"`
	WeightSlope     float64  `mapstructure:"weight_slope"`
	Markers         []string `mapstructure:"markers"`
	RiskCutoff      float64  `mapstructure:"risk_cutoff"`      // "1 in N" threshold for HIGH
	DegeneracyFloor float64  `mapstructure:"degeneracy_floor"` // 0 propagates NUMERIC_DEGENERACY
}

// ReferenceConfig carries the population reference data
type ReferenceConfig struct {
	Version   string             `mapstructure:"version"`
	Medians   []MedianEntry      `mapstructure:"medians"`
	Models    []MarkerModelEntry `mapstructure:"models"`
	AgePriors []AgePriorEntry    `mapstructure:"age_priors"`
}

// MedianEntry is the population median of one marker in one gestational week
type MedianEntry struct {
	Marker string  `mapstructure:"marker"`
	Week   int     `mapstructure:"week"`
	Median float64 `mapstructure:"median"`
}

// MarkerModelEntry holds the density models of one marker
type MarkerModelEntry struct {
	Marker     string       `mapstructure:"marker"`
	Unaffected DensityModel `mapstructure:"unaffected"`
	Affected   DensityModel `mapstructure:"affected"`
}

// AgePriorEntry maps a maternal age to a prior risk of "1 in Denominator"
type AgePriorEntry struct {
	Age         int     `mapstructure:"age"`
	Denominator float64 `mapstructure:"denominator"`
}
