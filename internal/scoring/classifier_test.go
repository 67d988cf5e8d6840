package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/alert-triage/internal/domain"
)

func TestClassify_Boundaries(t *testing.T) {
	c, err := NewClassifier(70, 40)
	require.NoError(t, err)

	tests := []struct {
		final    int
		category domain.Category
		action   domain.Action
	}{
		{0, domain.CategoryLow, domain.ActionNone},
		{39, domain.CategoryLow, domain.ActionNone},
		{40, domain.CategoryMedium, domain.ActionEmail},
		{69, domain.CategoryMedium, domain.ActionEmail},
		{70, domain.CategoryHigh, domain.ActionTicket},
		{100, domain.CategoryHigh, domain.ActionTicket},
	}
	for _, tt := range tests {
		category, action := c.Classify(tt.final)
		assert.Equal(t, tt.category, category, "final=%d", tt.final)
		assert.Equal(t, tt.action, action, "final=%d", tt.final)
	}
}

func TestClassify_Contiguous(t *testing.T) {
	c, err := NewClassifier(70, 40)
	require.NoError(t, err)

	order := map[domain.Category]int{domain.CategoryLow: 0, domain.CategoryMedium: 1, domain.CategoryHigh: 2}
	prev := 0
	for final := 0; final <= 100; final++ {
		category, _ := c.Classify(final)
		rank, ok := order[category]
		require.True(t, ok, "final=%d", final)
		require.GreaterOrEqual(t, rank, prev, "final=%d", final)
		require.LessOrEqual(t, rank-prev, 1, "final=%d", final)
		prev = rank
	}
}

func TestNewClassifier_Validation(t *testing.T) {
	_, err := NewClassifier(40, 70)
	assert.Error(t, err)
	_, err = NewClassifier(101, 40)
	assert.Error(t, err)
	_, err = NewClassifier(70, -1)
	assert.Error(t, err)

	c, err := NewClassifier(50, 50)
	require.NoError(t, err)
	category, _ := c.Classify(50)
	assert.Equal(t, domain.CategoryHigh, category)
}
