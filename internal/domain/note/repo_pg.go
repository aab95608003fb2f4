package note

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/records/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const noteCols = `id, patient_id, note_text, note_date, created_at, updated_at, deleted_at`

func listQuery(patientID uuid.UUID) *db.SelectQuery {
	return db.NewSelect("patient_notes", noteCols).
		Eq("patient_id", patientID).
		IsNull("deleted_at").
		OrderBy("note_date DESC")
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error) {
	q := listQuery(patientID)
	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Note, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_notes (patient_id, note_text, note_date)
		VALUES ($1, $2, $3)
		RETURNING `+noteCols,
		in.PatientID, in.NoteText, in.NoteDate,
	))
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, in *UpdateInput, updatedAt time.Time) (*Note, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_notes SET note_text = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+noteCols,
		id, in.NoteText, updatedAt,
	))
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) (*Note, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_notes SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+noteCols,
		id, deletedAt,
	))
}

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.PatientID, &n.NoteText, &n.NoteDate, &n.CreatedAt, &n.UpdatedAt, &n.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
