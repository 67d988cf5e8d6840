package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/alert-triage/internal/adapter/metrics"
	"github.com/V4T54L/alert-triage/internal/adapter/pii"
	"github.com/V4T54L/alert-triage/internal/domain"
	"github.com/V4T54L/alert-triage/internal/ioc"
	"github.com/V4T54L/alert-triage/internal/normalize"
	"github.com/V4T54L/alert-triage/internal/scoring"
)

const publishTimeout = 5 * time.Second

// DecisionReporter is notified of every completed triage, e.g. to feed a live dashboard.
type DecisionReporter interface {
	ReportDecision(category domain.Category)
}

// TriageDeps groups the collaborators of TriageUseCase. Publisher, Reporter and
// Metrics are optional.
type TriageDeps struct {
	Normalizer     *normalize.Normalizer
	Enricher       domain.Enricher
	Engine         *scoring.Engine
	Notifier       domain.Notifier
	Ticketer       domain.Ticketer
	Publisher      domain.DecisionPublisher
	Redactor       *pii.Redactor
	Reporter       DecisionReporter
	Metrics        *metrics.TriageMetrics
	TicketPriority int
}

// TriageUseCase runs one webhook payload through normalize, extract, enrich,
// score and classify, then dispatches the recommended action.
type TriageUseCase struct {
	deps   TriageDeps
	logger *slog.Logger
	now    func() time.Time
}

// NewTriageUseCase creates a new TriageUseCase.
func NewTriageUseCase(deps TriageDeps, logger *slog.Logger) *TriageUseCase {
	return &TriageUseCase{
		deps:   deps,
		logger: logger.With("component", "triage"),
		now:    time.Now,
	}
}

// Process triages raw. The only error it returns is a *normalize.ValidationError
// for payloads that do not fit the canonical schema; collaborator failures are
// reported in the result's actions.
func (uc *TriageUseCase) Process(ctx context.Context, raw domain.RawEvent) (*domain.TriageResult, error) {
	receivedAt := uc.now().UTC()

	ev, err := uc.deps.Normalizer.NormalizeStrict(raw)
	if err != nil {
		return nil, err
	}

	analysis := uc.Analyze(ctx, ev)
	result := &domain.TriageResult{
		ID:       uuid.NewString(),
		Event:    ev,
		Analysis: analysis,
		Actions:  uc.dispatch(ctx, ev, analysis),
	}

	uc.logger.Info("event triaged",
		"triage_id", result.ID,
		"source", ev.Source,
		"event_type", ev.EventType,
		"category", analysis.Category,
		"final_score", analysis.Scores.Final,
	)

	uc.publish(ctx, receivedAt, result)

	if uc.deps.Metrics != nil {
		uc.deps.Metrics.ObserveDecision(analysis.Category, result.Actions)
	}
	if uc.deps.Reporter != nil {
		uc.deps.Reporter.ReportDecision(analysis.Category)
	}
	return result, nil
}

// Analyze extracts indicators from ev, enriches its IPs and scores the event.
func (uc *TriageUseCase) Analyze(ctx context.Context, ev domain.CanonicalEvent) domain.Analysis {
	iocs := ioc.Extract(ev)
	intel := uc.deps.Enricher.EnrichAll(ctx, iocs.IPs)
	if intel == nil {
		intel = []domain.IntelResult{}
	}

	return domain.Analysis{
		IOCs:        iocs,
		Intel:       domain.IntelDetails{IPs: intel},
		ScoreResult: uc.deps.Engine.Score(ev, scoring.MaxIntel(intel)),
	}
}

func (uc *TriageUseCase) dispatch(ctx context.Context, ev domain.CanonicalEvent, a domain.Analysis) map[string]domain.ActionStatus {
	actions := make(map[string]domain.ActionStatus)
	switch a.Action {
	case domain.ActionTicket:
		status := uc.deps.Ticketer.CreateTicket(ctx, TicketTitle(a.Category, ev), Summary(ev, a), uc.deps.TicketPriority)
		actions[domain.ActionKeyTicket] = status
		if !status.OK {
			uc.logger.Warn("ticket not created", "reason", status.Message)
		}
	case domain.ActionEmail:
		status := uc.deps.Notifier.SendEmail(ctx, TicketTitle(a.Category, ev), Summary(ev, a))
		actions[domain.ActionKeyEmail] = status
		if !status.OK {
			uc.logger.Warn("email not sent", "reason", status.Message)
		}
	}
	return actions
}

// publish hands the decision to the decision feed. The webhook caller has
// already been served its analysis, so failures are only logged and counted.
func (uc *TriageUseCase) publish(ctx context.Context, receivedAt time.Time, result *domain.TriageResult) {
	if uc.deps.Publisher == nil {
		return
	}

	raw := result.Event.Raw
	if uc.deps.Redactor != nil {
		raw, _ = uc.deps.Redactor.Redact(raw)
	}
	decision := domain.Decision{
		ID:         result.ID,
		ReceivedAt: receivedAt,
		Source:     result.Event.Source,
		EventType:  result.Event.EventType,
		Severity:   result.Event.Severity,
		Message:    result.Event.Message,
		Analysis:   result.Analysis,
		Actions:    result.Actions,
		Raw:        raw,
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := uc.deps.Publisher.Publish(pubCtx, decision); err != nil {
		uc.logger.Error("failed to publish decision", "error", err, "triage_id", result.ID)
		if uc.deps.Metrics != nil {
			uc.deps.Metrics.PublishErrorsTotal.Inc()
		}
	}
}
