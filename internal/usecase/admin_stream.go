package usecase

import (
	"context"
	"errors"

	"github.com/V4T54L/alert-triage/internal/domain"
)

const (
	defaultRecentCount = 50
	maxRecentCount     = 1000
)

// ErrInvalidArgument marks caller mistakes in admin requests.
var ErrInvalidArgument = errors.New("invalid argument")

// AdminStreamUseCase provides inspection and maintenance of the decision stream.
type AdminStreamUseCase struct {
	repo domain.DecisionStreamAdmin
}

// NewAdminStreamUseCase creates a new AdminStreamUseCase.
func NewAdminStreamUseCase(repo domain.DecisionStreamAdmin) *AdminStreamUseCase {
	return &AdminStreamUseCase{repo: repo}
}

// RecentDecisions returns the newest decisions. count is clamped to [1, 1000]; 0 means 50.
func (uc *AdminStreamUseCase) RecentDecisions(ctx context.Context, count int64) ([]domain.StoredDecision, error) {
	switch {
	case count <= 0:
		count = defaultRecentCount
	case count > maxRecentCount:
		count = maxRecentCount
	}
	return uc.repo.Recent(ctx, count)
}

func (uc *AdminStreamUseCase) GetGroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	return uc.repo.GroupInfo(ctx)
}

func (uc *AdminStreamUseCase) GetPendingSummary(ctx context.Context, group string) (*domain.PendingMessageSummary, error) {
	if group == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("group is required"))
	}
	return uc.repo.PendingSummary(ctx, group)
}

func (uc *AdminStreamUseCase) TrimStream(ctx context.Context, maxLen int64) (int64, error) {
	if maxLen <= 0 {
		return 0, errors.Join(ErrInvalidArgument, errors.New("maxlen must be a positive integer"))
	}
	return uc.repo.Trim(ctx, maxLen)
}
