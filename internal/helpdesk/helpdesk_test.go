package helpdesk

import (
	"strings"
	"testing"

	"campushelp/helpdesk/internal/model"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short question", 50); got != "short question" {
		t.Fatalf("truncate kept = %q", got)
	}
	long := strings.Repeat("a", 60)
	got := truncate(long, 50)
	if got != strings.Repeat("a", 50)+"..." {
		t.Fatalf("truncate cut = %q", got)
	}
	// Multi-byte content is cut on rune boundaries.
	got = truncate(strings.Repeat("é", 60), 50)
	if got != strings.Repeat("é", 50)+"..." {
		t.Fatalf("truncate runes = %q", got)
	}
}

func TestCanSee(t *testing.T) {
	staffID := "staff-1"
	public := model.Question{ID: "q1", StudentID: "student-1", IsPublic: true}
	private := model.Question{ID: "q2", StudentID: "student-1", StaffID: &staffID}

	cases := []struct {
		name       string
		q          model.Question
		callerID   string
		callerType string
		want       bool
	}{
		{"owner sees own public", public, "student-1", model.UserTypeStudent, true},
		{"owner sees own private", private, "student-1", model.UserTypeStudent, true},
		{"any student sees public", public, "student-2", model.UserTypeStudent, true},
		{"any staff sees public", public, "staff-2", model.UserTypeStaff, true},
		{"target staff sees private", private, "staff-1", model.UserTypeStaff, true},
		{"other staff blind to private", private, "staff-2", model.UserTypeStaff, false},
		{"other student blind to private", private, "student-2", model.UserTypeStudent, false},
	}
	for _, tc := range cases {
		if got := canSee(tc.q, tc.callerID, tc.callerType); got != tc.want {
			t.Fatalf("%s: canSee = %v, want %v", tc.name, got, tc.want)
		}
	}
}
