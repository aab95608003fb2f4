package patient

import (
	"strings"
	"testing"
	"time"
)

func TestSearchQuery_NoFilters(t *testing.T) {
	q := searchQuery(SearchFilters{})
	sql := q.SQL()

	if !strings.Contains(sql, "deleted_at IS NULL") {
		t.Errorf("expected soft-delete predicate in %q", sql)
	}
	if !strings.HasSuffix(sql, "ORDER BY last_name ASC") {
		t.Errorf("expected ordering by last name, got %q", sql)
	}
	if len(q.Args()) != 0 {
		t.Errorf("expected no args, got %v", q.Args())
	}
}

func TestSearchQuery_AllFilters(t *testing.T) {
	dob := NewDate(1990, time.January, 2)
	q := searchQuery(SearchFilters{
		PatientNumber: 42,
		LastName:      "smi",
		FirstName:     "jo",
		DateOfBirth:   dob,
		PhoneNumber:   "555",
	})

	sql := q.SQL()
	for _, want := range []string{
		"deleted_at IS NULL",
		"patient_number = $1",
		"last_name ILIKE $2",
		"first_name ILIKE $3",
		"date_of_birth = $4",
		"phone_number ILIKE $5",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in %q", want, sql)
		}
	}

	args := q.Args()
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
	if args[0] != int64(42) {
		t.Errorf("expected patient number arg 42, got %v", args[0])
	}
	if args[1] != "%smi%" || args[2] != "%jo%" || args[4] != "%555%" {
		t.Errorf("unexpected substring args %v", args)
	}
	if got, ok := args[3].(Date); !ok || !got.Equal(dob.Time) {
		t.Errorf("expected date arg %v, got %v", dob, args[3])
	}
}

func TestSearchQuery_EscapesWildcards(t *testing.T) {
	q := searchQuery(SearchFilters{LastName: "100%_"})
	if got := q.Args()[0]; got != `%100\%\_%` {
		t.Errorf("expected escaped pattern, got %v", got)
	}
}

func TestRecentQuery(t *testing.T) {
	q := recentQuery(10)
	sql := q.SQL()
	if !strings.Contains(sql, "deleted_at IS NULL ORDER BY updated_at DESC LIMIT $1") {
		t.Errorf("unexpected SQL %q", sql)
	}
	if args := q.Args(); len(args) != 1 || args[0] != 10 {
		t.Errorf("expected limit arg 10, got %v", args)
	}
}

func TestExistsQuery(t *testing.T) {
	q := existsQuery("NID-1")
	want := "SELECT id FROM patients WHERE 1=1 AND national_id = $1 AND deleted_at IS NULL LIMIT $2"
	if got := q.SQL(); got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}
}
