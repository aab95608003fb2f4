package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the patients table. Every read path excludes soft-deleted rows;
// single-row methods return pgx.ErrNoRows when nothing matches.
type Repository interface {
	Search(ctx context.Context, f SearchFilters) ([]*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Create(ctx context.Context, form *FormData, createdBy string) (*Patient, error)
	Update(ctx context.Context, id uuid.UUID, form *FormData, updatedAt time.Time) (*Patient, error)
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, deletedAt time.Time) (*Patient, error)
	Recent(ctx context.Context, limit int) ([]*Patient, error)
	ExistsByNationalID(ctx context.Context, nationalID string) (bool, error)
}
