package patient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// DateLayout is the wire and query-string format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day. It maps to the SQL date type.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ScanDate implements pgtype.DateScanner.
func (d *Date) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		*d = Date{}
		return nil
	}
	if v.InfinityModifier != pgtype.Finite {
		return fmt.Errorf("cannot scan infinite date")
	}
	*d = Date{time.Date(v.Time.Year(), v.Time.Month(), v.Time.Day(), 0, 0, 0, 0, time.UTC)}
	return nil
}

// DateValue implements pgtype.DateValuer.
func (d Date) DateValue() (pgtype.Date, error) {
	if d.IsZero() {
		return pgtype.Date{}, nil
	}
	return pgtype.Date{Time: d.Time, Valid: true}, nil
}

// Patient maps to the patients table.
type Patient struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientNumber int64      `db:"patient_number" json:"patient_number"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	DateOfBirth   Date       `db:"date_of_birth" json:"date_of_birth"`
	NationalID    *string    `db:"national_id" json:"national_id"`
	Gender        *string    `db:"gender" json:"gender"`
	PhoneNumber   *string    `db:"phone_number" json:"phone_number"`
	Email         *string    `db:"email" json:"email"`
	Address       *string    `db:"address" json:"address"`
	PostalCode    *string    `db:"postal_code" json:"postal_code"`
	Occupation    *string    `db:"occupation" json:"occupation"`
	Hobby         *string    `db:"hobby" json:"hobby"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at"`
	DeletedBy     *string    `db:"deleted_by" json:"deleted_by"`
}

// SearchFilters narrows a patient search. Zero-valued fields impose no
// constraint.
type SearchFilters struct {
	LastName      string
	FirstName     string
	PatientNumber int64
	DateOfBirth   Date
	PhoneNumber   string
}

// Empty reports whether no filter is set.
func (f SearchFilters) Empty() bool {
	return f.LastName == "" && f.FirstName == "" && f.PatientNumber == 0 &&
		f.DateOfBirth.IsZero() && f.PhoneNumber == ""
}

// FormData holds the mutable patient fields, used for both create and update.
type FormData struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	DateOfBirth Date    `json:"date_of_birth"`
	NationalID  *string `json:"national_id"`
	Gender      *string `json:"gender"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	PostalCode  *string `json:"postal_code"`
	Occupation  *string `json:"occupation"`
	Hobby       *string `json:"hobby"`
}

var validGenders = map[string]bool{
	"male":   true,
	"female": true,
	"other":  true,
}

// Validate checks the required fields and the gender enumeration.
func (f *FormData) Validate() error {
	if strings.TrimSpace(f.FirstName) == "" || strings.TrimSpace(f.LastName) == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if f.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if f.Gender != nil && !validGenders[*f.Gender] {
		return fmt.Errorf("gender must be one of male, female, other")
	}
	return nil
}
