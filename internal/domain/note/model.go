package note

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note maps to the patient_notes table. NoteDate is the clinical date of the
// note and is independent of the audit timestamps.
type Note struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	NoteText  string     `db:"note_text" json:"note_text"`
	NoteDate  time.Time  `db:"note_date" json:"note_date"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at"`
}

type CreateInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	NoteText  string    `json:"note_text"`
	NoteDate  time.Time `json:"note_date"`
}

func (in *CreateInput) Validate() error {
	if in.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if strings.TrimSpace(in.NoteText) == "" {
		return fmt.Errorf("note_text is required")
	}
	if in.NoteDate.IsZero() {
		return fmt.Errorf("note_date is required")
	}
	return nil
}

// UpdateInput carries the only mutable note field.
type UpdateInput struct {
	NoteText string `json:"note_text"`
}

func (in *UpdateInput) Validate() error {
	if strings.TrimSpace(in.NoteText) == "" {
		return fmt.Errorf("note_text is required")
	}
	return nil
}
