package reference

import (
	"fmt"
	"math"
	"sort"

	"github.com/prenatal-assay-engine/internal/domain"
)

// AgePriorTable maps maternal age to a prior "1 in N" risk. Ages between
// configured entries are interpolated linearly on log(N).
type AgePriorTable struct {
	entries []domain.AgePriorEntry
}

// NewAgePriorTable sorts and validates the entries.
func NewAgePriorTable(entries []domain.AgePriorEntry) (*AgePriorTable, error) {
	if len(entries) == 0 {
		return nil, domain.NewCalcError(domain.ErrInsufficientData, "reference.age_priors", "age prior table is empty", 0)
	}

	sorted := append([]domain.AgePriorEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Age < sorted[j].Age })

	for i, e := range sorted {
		field := fmt.Sprintf("reference.age_priors[age=%d]", e.Age)
		if e.Age < domain.MinMaternalAge || e.Age > domain.MaxMaternalAge {
			return nil, domain.NewInvalidInput(field, "age outside supported range", e.Age)
		}
		if !domain.IsFinite(e.Denominator) || e.Denominator <= 0 {
			return nil, domain.NewInvalidInput(field, "denominator must be positive", e.Denominator)
		}
		if i > 0 && sorted[i-1].Age == e.Age {
			return nil, domain.NewInvalidInput(field, "duplicate age", e.Age)
		}
	}

	return &AgePriorTable{entries: sorted}, nil
}

// PriorOdds returns the prior denominator for age.
func (t *AgePriorTable) PriorOdds(age int) (float64, error) {
	if age < domain.MinMaternalAge || age > domain.MaxMaternalAge {
		return 0, domain.NewInvalidInput("age", fmt.Sprintf("must be within [%d,%d]", domain.MinMaternalAge, domain.MaxMaternalAge), age)
	}

	first, last := t.entries[0], t.entries[len(t.entries)-1]
	if age < first.Age || age > last.Age {
		return 0, domain.NewOutOfRange("age", fmt.Sprintf("outside age prior table [%d,%d]", first.Age, last.Age), age)
	}

	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Age >= age })
	if t.entries[i].Age == age {
		return t.entries[i].Denominator, nil
	}

	lo, hi := t.entries[i-1], t.entries[i]
	frac := float64(age-lo.Age) / float64(hi.Age-lo.Age)
	logN := math.Log(lo.Denominator) + frac*(math.Log(hi.Denominator)-math.Log(lo.Denominator))
	return math.Exp(logN), nil
}
