package screening

import (
	"github.com/prenatal-assay-engine/internal/domain"
)

// CombineRisk applies the total likelihood ratio to a "1 in N" prior.
// The posterior denominator is N/LR.
func CombineRisk(priorOddsDenominator, totalLikelihoodRatio float64) (domain.RiskResult, error) {
	if !domain.IsFinite(priorOddsDenominator) || priorOddsDenominator <= 0 {
		return domain.RiskResult{}, domain.NewInvalidInput("prior_odds", "must be positive", priorOddsDenominator)
	}
	if !domain.IsFinite(totalLikelihoodRatio) || totalLikelihoodRatio <= 0 {
		return domain.RiskResult{}, domain.NewInvalidInput("likelihood_ratio", "must be positive", totalLikelihoodRatio)
	}

	return domain.RiskResult{
		PriorOdds:       priorOddsDenominator,
		LikelihoodRatio: totalLikelihoodRatio,
		PosteriorOdds:   priorOddsDenominator / totalLikelihoodRatio,
	}, nil
}
