package scoring

import (
	"fmt"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// Classifier maps a final score to a category and recommended action.
// Each threshold is the inclusive lower bound of its category.
type Classifier struct {
	high   int
	medium int
}

// NewClassifier validates thresholds: 0 <= medium <= high <= 100.
func NewClassifier(high, medium int) (Classifier, error) {
	if medium < 0 || high > 100 || medium > high {
		return Classifier{}, fmt.Errorf("invalid thresholds: medium=%d high=%d", medium, high)
	}
	return Classifier{high: high, medium: medium}, nil
}

// Classify returns the category and action for final.
func (c Classifier) Classify(final int) (domain.Category, domain.Action) {
	switch {
	case final >= c.high:
		return domain.CategoryHigh, domain.ActionTicket
	case final >= c.medium:
		return domain.CategoryMedium, domain.ActionEmail
	default:
		return domain.CategoryLow, domain.ActionNone
	}
}
