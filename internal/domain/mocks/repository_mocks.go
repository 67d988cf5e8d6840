package mocks

import (
	"context"
	"sync"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// MockEnricher is a mock implementation of domain.Enricher for testing.
// Indicators without an entry in Results get a zero-score result.
type MockEnricher struct {
	mu      sync.Mutex
	Results map[string]domain.IntelResult
	Calls   [][]string
}

func (m *MockEnricher) EnrichAll(ctx context.Context, indicators []string) []domain.IntelResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, indicators)
	out := make([]domain.IntelResult, len(indicators))
	for i, ind := range indicators {
		if res, ok := m.Results[ind]; ok {
			out[i] = res
			continue
		}
		out[i] = domain.IntelResult{
			Indicator: ind,
			Sources:   map[string]domain.ProviderVerdict{},
			Labels:    []string{domain.LabelUnknown},
		}
	}
	return out
}

// EmailCall records one SendEmail invocation.
type EmailCall struct {
	Subject string
	Body    string
}

// MockNotifier is a mock implementation of domain.Notifier for testing.
type MockNotifier struct {
	mu     sync.Mutex
	Calls  []EmailCall
	Status domain.ActionStatus
}

func (m *MockNotifier) SendEmail(ctx context.Context, subject, body string) domain.ActionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, EmailCall{Subject: subject, Body: body})
	return m.Status
}

// TicketCall records one CreateTicket invocation.
type TicketCall struct {
	Title       string
	Description string
	Priority    int
}

// MockTicketer is a mock implementation of domain.Ticketer for testing.
type MockTicketer struct {
	mu     sync.Mutex
	Calls  []TicketCall
	Status domain.ActionStatus
}

func (m *MockTicketer) CreateTicket(ctx context.Context, title, description string, priority int) domain.ActionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, TicketCall{Title: title, Description: description, Priority: priority})
	return m.Status
}

// MockDecisionPublisher is a mock implementation of domain.DecisionPublisher for testing.
type MockDecisionPublisher struct {
	mu         sync.Mutex
	Published  []domain.Decision
	PublishErr error
}

func (m *MockDecisionPublisher) Publish(ctx context.Context, decision domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, decision)
	return nil
}

// MockTokenRepository is a mock implementation of domain.TokenRepository for testing.
type MockTokenRepository struct {
	ValidTokens map[string]bool
	Err         error
}

func (m *MockTokenRepository) IsValid(ctx context.Context, token string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.ValidTokens[token], nil
}

// MockDecisionStreamAdmin is a mock implementation of domain.DecisionStreamAdmin for testing.
type MockDecisionStreamAdmin struct {
	Decisions []domain.StoredDecision
	Groups    []domain.ConsumerGroupInfo
	Pending   *domain.PendingMessageSummary
	Trimmed   int64
	Err       error

	LastCount  int64
	LastGroup  string
	LastMaxLen int64
}

func (m *MockDecisionStreamAdmin) Recent(ctx context.Context, count int64) ([]domain.StoredDecision, error) {
	m.LastCount = count
	return m.Decisions, m.Err
}

func (m *MockDecisionStreamAdmin) GroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	return m.Groups, m.Err
}

func (m *MockDecisionStreamAdmin) PendingSummary(ctx context.Context, group string) (*domain.PendingMessageSummary, error) {
	m.LastGroup = group
	return m.Pending, m.Err
}

func (m *MockDecisionStreamAdmin) Trim(ctx context.Context, maxLen int64) (int64, error) {
	m.LastMaxLen = maxLen
	return m.Trimmed, m.Err
}
