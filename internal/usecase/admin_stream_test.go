package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/V4T54L/alert-triage/internal/domain/mocks"
)

func TestAdminStreamUseCase_RecentDecisionsClampsCount(t *testing.T) {
	repo := &mocks.MockDecisionStreamAdmin{}
	uc := NewAdminStreamUseCase(repo)

	tests := []struct {
		in, want int64
	}{
		{0, 50},
		{-3, 50},
		{10, 10},
		{5000, 1000},
	}
	for _, tt := range tests {
		if _, err := uc.RecentDecisions(context.Background(), tt.in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.LastCount != tt.want {
			t.Errorf("RecentDecisions(%d) requested %d, want %d", tt.in, repo.LastCount, tt.want)
		}
	}
}

func TestAdminStreamUseCase_Validation(t *testing.T) {
	uc := NewAdminStreamUseCase(&mocks.MockDecisionStreamAdmin{})

	if _, err := uc.TrimStream(context.Background(), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("TrimStream(0) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := uc.GetPendingSummary(context.Background(), ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GetPendingSummary(\"\") error = %v, want ErrInvalidArgument", err)
	}
}
