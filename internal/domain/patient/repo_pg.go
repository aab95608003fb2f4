package patient

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

const patientCols = `id, patient_number, first_name, last_name, date_of_birth,
	national_id, gender, phone_number, email, address, postal_code, occupation, hobby,
	created_at, updated_at, created_by, deleted_at, deleted_by`

// searchQuery composes the conjunctive filter for Search.
func searchQuery(f SearchFilters) *db.SelectQuery {
	q := db.NewSelect("patients", patientCols).IsNull("deleted_at")
	if f.PatientNumber != 0 {
		q.Eq("patient_number", f.PatientNumber)
	}
	if f.LastName != "" {
		q.Contains("last_name", f.LastName)
	}
	if f.FirstName != "" {
		q.Contains("first_name", f.FirstName)
	}
	if !f.DateOfBirth.IsZero() {
		q.Eq("date_of_birth", f.DateOfBirth)
	}
	if f.PhoneNumber != "" {
		q.Contains("phone_number", f.PhoneNumber)
	}
	return q.OrderBy("last_name ASC")
}

func recentQuery(limit int) *db.SelectQuery {
	return db.NewSelect("patients", patientCols).
		IsNull("deleted_at").
		OrderBy("updated_at DESC").
		Limit(limit)
}

func existsQuery(nationalID string) *db.SelectQuery {
	return db.NewSelect("patients", "id").
		Eq("national_id", nationalID).
		IsNull("deleted_at").
		Limit(1)
}

func (r *repoPG) Search(ctx context.Context, f SearchFilters) ([]*Patient, error) {
	q := searchQuery(f)
	return r.list(ctx, q)
}

func (r *repoPG) Recent(ctx context.Context, limit int) ([]*Patient, error) {
	return r.list(ctx, recentQuery(limit))
}

func (r *repoPG) list(ctx context.Context, q *db.SelectQuery) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, q.SQL(), q.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) Create(ctx context.Context, form *FormData, createdBy string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (
			first_name, last_name, date_of_birth, national_id, gender,
			phone_number, email, address, postal_code, occupation, hobby,
			created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+patientCols,
		form.FirstName, form.LastName, form.DateOfBirth, form.NationalID, form.Gender,
		form.PhoneNumber, form.Email, form.Address, form.PostalCode, form.Occupation, form.Hobby,
		createdBy,
	))
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, form *FormData, updatedAt time.Time) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET
			first_name=$2, last_name=$3, date_of_birth=$4, national_id=$5, gender=$6,
			phone_number=$7, email=$8, address=$9, postal_code=$10, occupation=$11, hobby=$12,
			updated_at=$13
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+patientCols,
		id,
		form.FirstName, form.LastName, form.DateOfBirth, form.NationalID, form.Gender,
		form.PhoneNumber, form.Email, form.Address, form.PostalCode, form.Occupation, form.Hobby,
		updatedAt,
	))
}

// SoftDelete stamps the deletion marker. Rows already deleted are matched too,
// so a repeated call overwrites deleted_at and deleted_by.
func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, deletedAt time.Time) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET deleted_at = $2, deleted_by = $3
		WHERE id = $1
		RETURNING `+patientCols,
		id, deletedAt, deletedBy,
	))
}

func (r *repoPG) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	q := existsQuery(nationalID)
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, q.SQL(), q.Args()...).Scan(&id)
	if db.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.PatientNumber, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.NationalID, &p.Gender, &p.PhoneNumber, &p.Email, &p.Address, &p.PostalCode, &p.Occupation, &p.Hobby,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.DeletedAt, &p.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
