package note

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the patient_notes table. Reads and updates skip soft-deleted
// rows; single-row methods return pgx.ErrNoRows when nothing matches.
type Repository interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error)
	Create(ctx context.Context, in *CreateInput) (*Note, error)
	Update(ctx context.Context, id uuid.UUID, in *UpdateInput, updatedAt time.Time) (*Note, error)
	SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) (*Note, error)
}
