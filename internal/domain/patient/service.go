package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/internal/platform/metrics"
	"github.com/ehr/records/internal/platform/session"
	"github.com/ehr/records/pkg/result"
)

// DefaultRecentLimit is used by GetRecent when no positive limit is given.
const DefaultRecentLimit = 10

// Service implements the patient data-access operations. Every method returns
// a result envelope; none of them panics or returns an error to the caller.
type Service struct {
	repo    Repository
	logger  zerolog.Logger
	metrics *metrics.OperationMetrics
	now     func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger, m *metrics.OperationMetrics) *Service {
	return &Service{
		repo:    repo,
		logger:  logger.With().Str("component", "patient").Logger(),
		metrics: m,
		now:     time.Now,
	}
}

func (s *Service) observe(op string, start time.Time, res interface{ Outcome() string }) {
	s.metrics.Observe("patient", op, res.Outcome(), time.Since(start))
}

// Search returns the non-deleted patients matching every set filter, ordered
// by last name.
func (s *Service) Search(ctx context.Context, f SearchFilters) (res result.Result[[]*Patient]) {
	const generic = "An unexpected error occurred while searching patients"
	defer s.observe("search", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	patients, err := s.repo.Search(ctx, f)
	if err != nil {
		return db.Fault[[]*Patient](s.logger, err, "Failed to search patients", generic)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return result.OK(patients)
}

// GetByID returns the patient, or a successful result with nil data when no
// non-deleted patient has that id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (res result.Result[*Patient]) {
	const generic = "An unexpected error occurred while loading patient"
	defer s.observe("get", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	p, err := s.repo.GetByID(ctx, id)
	if db.IsNoRows(err) {
		return result.OK[*Patient](nil)
	}
	if err != nil {
		return db.Fault[*Patient](s.logger, err, "Failed to load patient", generic)
	}
	return result.OK(p)
}

// Create inserts a patient attributed to the signed-in user.
func (s *Service) Create(ctx context.Context, form *FormData) (res result.Result[*Patient]) {
	const generic = "An unexpected error occurred while creating patient"
	defer s.observe("create", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	userID := session.UserIDFromContext(ctx)
	if userID == "" {
		return result.Fail[*Patient](result.FaultUnauthorized, "You must be logged in to create a patient")
	}

	p, err := s.repo.Create(ctx, form, userID)
	if err != nil {
		return db.Fault[*Patient](s.logger, err, "Failed to create patient", generic)
	}
	s.logger.Info().Str("patient_id", p.ID.String()).Str("created_by", userID).Msg("patient created")
	return result.OK(p)
}

// Update replaces the mutable fields of a non-deleted patient. A missing or
// deleted patient fails through the driver path like any other fault.
func (s *Service) Update(ctx context.Context, id uuid.UUID, form *FormData) (res result.Result[*Patient]) {
	const generic = "An unexpected error occurred while updating patient"
	defer s.observe("update", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	p, err := s.repo.Update(ctx, id, form, s.now().UTC())
	if err != nil {
		return db.Fault[*Patient](s.logger, err, "Failed to update patient", generic)
	}
	return result.OK(p)
}

// SoftDelete stamps deleted_at and deleted_by with the signed-in user.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) (res result.Result[*Patient]) {
	const generic = "An unexpected error occurred while deleting patient"
	defer s.observe("delete", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	userID := session.UserIDFromContext(ctx)
	if userID == "" {
		return result.Fail[*Patient](result.FaultUnauthorized, "You must be logged in to delete a patient")
	}

	p, err := s.repo.SoftDelete(ctx, id, userID, s.now().UTC())
	if err != nil {
		return db.Fault[*Patient](s.logger, err, "Failed to delete patient", generic)
	}
	s.logger.Info().Str("patient_id", id.String()).Str("deleted_by", userID).Msg("patient soft-deleted")
	return result.OK(p)
}

// GetRecent returns up to limit non-deleted patients, most recently updated first.
func (s *Service) GetRecent(ctx context.Context, limit int) (res result.Result[[]*Patient]) {
	const generic = "An unexpected error occurred while loading recent patients"
	defer s.observe("recent", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	patients, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return db.Fault[[]*Patient](s.logger, err, "Failed to load recent patients", generic)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return result.OK(patients)
}

// ExistsByNationalID reports whether a non-deleted patient carries nationalID.
func (s *Service) ExistsByNationalID(ctx context.Context, nationalID string) (res result.Result[bool]) {
	const generic = "An unexpected error occurred"
	defer s.observe("exists", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	exists, err := s.repo.ExistsByNationalID(ctx, nationalID)
	if err != nil {
		return db.Fault[bool](s.logger, err, "Failed to check patient existence", generic)
	}
	return result.OK(exists)
}
