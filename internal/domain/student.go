package domain

import (
	"strings"
	"time"
)

type LicenseApplicationStatus string

const (
	LicenseApplicationNone     LicenseApplicationStatus = ""
	LicenseApplicationPending  LicenseApplicationStatus = "pending"
	LicenseApplicationApproved LicenseApplicationStatus = "approved"
	LicenseApplicationRejected LicenseApplicationStatus = "rejected"
)

// Known reports whether s is one of the recognized statuses (including absent).
func (s LicenseApplicationStatus) Known() bool {
	switch s {
	case LicenseApplicationNone, LicenseApplicationPending, LicenseApplicationApproved, LicenseApplicationRejected:
		return true
	}
	return false
}

// StudentKey is the legacy identity of a student within an account.
// It is not guaranteed unique; see Selector resolution in the roster package.
type StudentKey struct {
	FirstName string
	LastName  string
	Email     string
}

// Student is a club member tracked under an Account. Dates are DD/MM/YYYY strings.
type Student struct {
	ID StudentID

	FirstName string
	LastName  string
	Email     string

	Address    string
	Postcode   string
	Occupation string
	BirthDate  string
	Phone      string
	ClubName   string

	AgreedToMembershipTerms bool
	AgreedToPhotography     bool

	LicDate                  string
	LicExpDate               string
	LicenseApplicationStatus LicenseApplicationStatus

	// GradingHistory is append-only, in award order.
	GradingHistory []Grade

	DateJoined time.Time
}

func (s Student) Key() StudentKey {
	return StudentKey{FirstName: s.FirstName, LastName: s.LastName, Email: s.Email}
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s Student) FullAddress() string {
	v := strings.TrimSpace(s.Address + ", " + s.Postcode)
	return strings.TrimSpace(strings.TrimRight(v, ","))
}

// HighestGrade returns the highest ranked grade; ok is false on an empty history.
func (s Student) HighestGrade() (Grade, bool) {
	return HighestGrade(s.GradingHistory)
}

func (s Student) Clone() Student {
	out := s
	if s.GradingHistory != nil {
		out.GradingHistory = append([]Grade(nil), s.GradingHistory...)
	}
	return out
}
