package config

import (
	"github.com/spf13/viper"
)

// DefaultReferenceVersion labels the built-in demonstration reference data.
const DefaultReferenceVersion = "demo-2024.1"

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	// Batch defaults
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.fail_fast", false)

	// Assay defaults
	v.SetDefault("assay.lookup_policy", "nearest")
	v.SetDefault("assay.tolerance", 0.0)
	v.SetDefault("assay.alignment_tolerance", 1e-9)
	v.SetDefault("assay.factor", 1.0)

	// Screening defaults
	v.SetDefault("screening.weight_intercept", 0.28)
	v.SetDefault("screening.weight_slope", 43.0)
	v.SetDefault("screening.markers", []string{"AFP", "hCG"})
	v.SetDefault("screening.risk_cutoff", 270.0)
	v.SetDefault("screening.degeneracy_floor", 0.0)

	// Reference data defaults
	v.SetDefault("reference.version", DefaultReferenceVersion)
	v.SetDefault("reference.medians", defaultMedians())
	v.SetDefault("reference.models", defaultModels())
	v.SetDefault("reference.age_priors", defaultAgePriors())
}

func defaultMedians() []map[string]interface{} {
	afp := map[int]float64{15: 30.4, 16: 35.0, 17: 40.2, 18: 46.3}
	hcg := map[int]float64{15: 35.6, 16: 30.0, 17: 25.9, 18: 22.4}

	out := make([]map[string]interface{}, 0, len(afp)+len(hcg))
	for week := 15; week <= 18; week++ {
		out = append(out,
			map[string]interface{}{"marker": "AFP", "week": week, "median": afp[week]},
			map[string]interface{}{"marker": "hCG", "week": week, "median": hcg[week]},
		)
	}
	return out
}

func defaultModels() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"marker":     "AFP",
			"unaffected": map[string]interface{}{"mean": 0.0, "std_dev": 0.17},
			"affected":   map[string]interface{}{"mean": -0.12, "std_dev": 0.17},
		},
		{
			"marker":     "hCG",
			"unaffected": map[string]interface{}{"mean": 0.0, "std_dev": 0.15},
			"affected":   map[string]interface{}{"mean": 0.3, "std_dev": 0.18},
		},
	}
}

func defaultAgePriors() []map[string]interface{} {
	priors := [][2]float64{
		{14, 1500}, {20, 1200}, {25, 1100}, {30, 700}, {32, 450}, {34, 300}, {35, 250},
		{36, 200}, {37, 170}, {38, 150}, {39, 115}, {40, 90}, {42, 55}, {45, 25}, {50, 12}, {55, 6},
	}
	out := make([]map[string]interface{}, len(priors))
	for i, p := range priors {
		out[i] = map[string]interface{}{"age": int(p[0]), "denominator": p[1]}
	}
	return out
}
