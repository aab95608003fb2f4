package note

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/internal/platform/metrics"
	"github.com/ehr/records/pkg/result"
)

type Service struct {
	repo    Repository
	logger  zerolog.Logger
	metrics *metrics.OperationMetrics
	now     func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger, m *metrics.OperationMetrics) *Service {
	return &Service{
		repo:    repo,
		logger:  logger.With().Str("component", "note").Logger(),
		metrics: m,
		now:     time.Now,
	}
}

func (s *Service) observe(op string, start time.Time, res interface{ Outcome() string }) {
	s.metrics.Observe("note", op, res.Outcome(), time.Since(start))
}

// GetByPatientID returns the patient's non-deleted notes, newest note_date first.
func (s *Service) GetByPatientID(ctx context.Context, patientID uuid.UUID) (res result.Result[[]*Note]) {
	const generic = "An unexpected error occurred while fetching notes"
	defer s.observe("list", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	notes, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return db.Fault[[]*Note](s.logger, err, "Failed to fetch notes", generic)
	}
	if notes == nil {
		notes = []*Note{}
	}
	return result.OK(notes)
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (res result.Result[*Note]) {
	const generic = "An unexpected error occurred while creating note"
	defer s.observe("create", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	n, err := s.repo.Create(ctx, in)
	if err != nil {
		return db.Fault[*Note](s.logger, err, "Failed to create note", generic)
	}
	return result.OK(n)
}

// Update replaces the note text. A missing or deleted note is reported as
// not found.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in *UpdateInput) (res result.Result[*Note]) {
	const generic = "An unexpected error occurred while updating note"
	defer s.observe("update", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	n, err := s.repo.Update(ctx, id, in, s.now().UTC())
	if db.IsNoRows(err) {
		return result.Fail[*Note](result.FaultNotFound, "Note not found")
	}
	if err != nil {
		return db.Fault[*Note](s.logger, err, "Failed to update note", generic)
	}
	return result.OK(n)
}

// SoftDelete stamps deleted_at on a live note. Deleting twice fails the
// second time with a not-found result.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) (res result.Result[*Note]) {
	const generic = "An unexpected error occurred while deleting note"
	defer s.observe("delete", time.Now(), &res)
	defer result.Recover(&res, s.logger, generic)

	n, err := s.repo.SoftDelete(ctx, id, s.now().UTC())
	if db.IsNoRows(err) {
		return result.Fail[*Note](result.FaultNotFound, "Note not found or already deleted")
	}
	if err != nil {
		return db.Fault[*Note](s.logger, err, "Failed to delete note", generic)
	}
	return result.OK(n)
}
