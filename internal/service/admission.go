package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hiveapp/hive-server/internal/domain"
	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/metrics"
	"github.com/hiveapp/hive-server/internal/ratelimit"
	"github.com/hiveapp/hive-server/internal/validation"
)

const tracerName = "github.com/hiveapp/hive-server/internal/service"

// OutcomeStatus distinguishes the non-error results of an admission.
type OutcomeStatus string

const (
	OutcomeAccepted      OutcomeStatus = "ACCEPTED"
	OutcomeAlreadyMember OutcomeStatus = "ALREADY_MEMBER"
)

// AddTitleRequest asks for a catalog title to be added to the caller's hive.
type AddTitleRequest struct {
	ExternalID int64  `json:"external_id" validate:"required,gt=0"`
	MediaKind  string `json:"media_kind" validate:"required,media_kind"`
	HiveForm
}

// Outcome is the result of AddTitleToHive. Entry is set when Status is
// ACCEPTED. Warnings carry non-fatal problems such as degraded season data.
type Outcome struct {
	Status       OutcomeStatus         `json:"status"`
	Entry        *domain.HiveEntry     `json:"entry,omitempty"`
	Title        *domain.Title         `json:"title"`
	TitleCreated bool                  `json:"title_created"`
	Seasons      *ReconcileResult      `json:"seasons,omitempty"`
	Warnings     []*domainerrors.Error `json:"warnings,omitempty"`
}

// AdmissionService adds titles to users' hives: rate limit, resolve the
// title, reconcile its seasons, guard membership, admit.
type AdmissionService struct {
	limiter   ratelimit.Limiter
	titles    *TitleStore
	seasons   *SeasonReconciler
	guard     *MembershipGuard
	validator *validation.Validator
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewAdmissionService creates a new admission service.
func NewAdmissionService(
	limiter ratelimit.Limiter,
	titles *TitleStore,
	seasons *SeasonReconciler,
	guard *MembershipGuard,
	validator *validation.Validator,
	logger *slog.Logger,
) *AdmissionService {
	return &AdmissionService{
		limiter:   limiter,
		titles:    titles,
		seasons:   seasons,
		guard:     guard,
		validator: validator,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// rateLimitKey scopes the admission budget to one user.
func rateLimitKey(userID string) string {
	return "admit:" + userID
}

// AddTitleToHive runs the admission pipeline for one request. Every step but
// season reconciliation fails closed; reconciliation problems become a
// SEASON_RECONCILE_DEGRADED warning on an otherwise accepted outcome.
// ALREADY_MEMBER is reported through Outcome.Status, not as an error.
func (s *AdmissionService) AddTitleToHive(ctx context.Context, userID string, req AddTitleRequest) (outcome *Outcome, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "hive.AddTitleToHive",
		trace.WithAttributes(
			attribute.String("hive.user_id", userID),
			attribute.Int64("hive.external_id", req.ExternalID),
			attribute.String("hive.media_kind", req.MediaKind),
		))
	defer func() {
		result := admissionResult(outcome, err)
		metrics.RecordAdmission(result, mediaKindLabel(req.MediaKind), time.Since(start))
		span.SetAttributes(attribute.String("hive.outcome", result))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		span.End()
	}()

	// 1. Rate limit, before anything is read or written.
	if err := s.checkRateLimit(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	kind, _ := domain.ParseMediaKind(req.MediaKind)
	key := domain.TitleKey{ExternalID: req.ExternalID, MediaKind: kind}

	// 2. Resolve the title. A title created here is kept even if a later step fails.
	title, created, err := s.resolveTitle(ctx, key)
	if err != nil {
		return nil, err
	}

	outcome = &Outcome{Title: title, TitleCreated: created}

	// 3. Reconcile seasons, failing open.
	if title.IsSeries() {
		result, err := s.reconcileSeasons(ctx, title)
		if err != nil {
			metrics.SeasonReconcileDegraded.Inc()
			s.logger.Warn("season reconciliation degraded",
				"title_id", title.ID,
				"key", key.String(),
				"error", err,
			)
			outcome.Warnings = append(outcome.Warnings, domainerrors.ErrSeasonReconcileDegraded.WithCause(err))
		} else {
			outcome.Seasons = result
		}
	}

	// 4. Guard membership and validate progress.
	progress, err := s.guardMembership(ctx, userID, title, req.HiveForm)
	if errors.Is(err, domainerrors.ErrAlreadyMember) {
		outcome.Status = OutcomeAlreadyMember
		return outcome, nil
	}
	if err != nil {
		return nil, err
	}

	// 5. Admit.
	entry, err := s.guard.Admit(ctx, userID, title, progress, req.IsFavorite)
	if errors.Is(err, domainerrors.ErrAlreadyMember) {
		outcome.Status = OutcomeAlreadyMember
		return outcome, nil
	}
	if err != nil {
		return nil, err
	}

	outcome.Status = OutcomeAccepted
	outcome.Entry = entry
	return outcome, nil
}

func (s *AdmissionService) checkRateLimit(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "hive.RateLimitCheck")
	defer span.End()

	decision, err := s.limiter.CheckAndConsume(ctx, rateLimitKey(userID))
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to check rate limit")
	}
	if !decision.Allowed {
		s.logger.Info("admission rate limited",
			"user_id", userID,
			"retry_after", decision.RetryAfter,
		)
		return domainerrors.RateLimited(decision.RetryAfter)
	}
	return nil
}

func (s *AdmissionService) resolveTitle(ctx context.Context, key domain.TitleKey) (*domain.Title, bool, error) {
	ctx, span := s.tracer.Start(ctx, "hive.ResolveTitle")
	defer span.End()

	title, created, err := s.titles.ResolveOrCreate(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !created {
		title = s.titles.RefreshIfStale(ctx, title)
	}
	span.SetAttributes(attribute.String("hive.title_id", title.ID), attribute.Bool("hive.title_created", created))
	return title, created, nil
}

func (s *AdmissionService) reconcileSeasons(ctx context.Context, title *domain.Title) (*ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "hive.ReconcileSeasons")
	defer span.End()

	result, err := s.seasons.Sync(ctx, title)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("hive.seasons_inserted", len(result.Inserted)),
		attribute.Int("hive.seasons_updated", len(result.Updated)),
	)
	return result, nil
}

func (s *AdmissionService) guardMembership(ctx context.Context, userID string, title *domain.Title, form HiveForm) (domain.Progress, error) {
	ctx, span := s.tracer.Start(ctx, "hive.GuardMembership")
	defer span.End()

	if err := s.guard.CheckNotMember(ctx, userID, title.ID); err != nil {
		return nil, err
	}
	return s.guard.ValidateForm(ctx, title, form)
}

// mediaKindLabel returns the canonical media kind for metrics so request
// spellings never become label values.
func mediaKindLabel(raw string) string {
	kind, ok := domain.ParseMediaKind(raw)
	if !ok {
		return metrics.MediaKindUnknown
	}
	return string(kind)
}

// admissionResult maps a result onto the metrics outcome label.
func admissionResult(outcome *Outcome, err error) string {
	var domainErr *domainerrors.Error
	switch {
	case err == nil && outcome != nil && outcome.Status == OutcomeAlreadyMember:
		return metrics.OutcomeAlreadyMember
	case err == nil:
		return metrics.OutcomeAccepted
	case !errors.As(err, &domainErr):
		return metrics.OutcomeError
	}

	switch domainErr.Code {
	case domainerrors.CodeRateLimited:
		return metrics.OutcomeRateLimited
	case domainerrors.CodeMetadataUnavailable:
		return metrics.OutcomeMetadataUnavailable
	case domainerrors.CodeValidation, domainerrors.CodeInvalidProgress:
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
