package domain

import (
	"strings"
	"time"
)

// Account is a registered instructor and the owner of a student roster.
type Account struct {
	ID AccountID

	FirstName string
	LastName  string
	Email     string
	ClubName  string

	// Approved gates access to the roster; new accounts wait for an administrator.
	Approved bool

	// Students are kept in insertion order.
	Students []Student

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Clone returns a deep copy so callers can derive a new state without aliasing.
func (a Account) Clone() Account {
	out := a
	if a.Students != nil {
		out.Students = make([]Student, len(a.Students))
		for i, s := range a.Students {
			out.Students[i] = s.Clone()
		}
	}
	return out
}

// BackfillStudentIDs assigns legacy ids to students persisted before surrogate ids existed.
func (a Account) BackfillStudentIDs() Account {
	out := a.Clone()
	for i := range out.Students {
		if out.Students[i].ID == "" {
			out.Students[i].ID = LegacyStudentID(out.Students[i].Key())
		}
	}
	return out
}
