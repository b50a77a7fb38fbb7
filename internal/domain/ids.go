package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SubjectID is the authenticated subject extracted from JWT claims (typically "sub").
// The auth provider's subject doubles as the Account id.
type SubjectID string

// AccountID is the document key of an account record.
type AccountID string

// StudentID is the surrogate identifier of a student within its account.
type StudentID string

var accountIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidAccountID reports whether id is usable as a document key.
func ValidAccountID(id AccountID) bool {
	s := string(id)
	return s != "" && len(s) <= 128 && accountIDPattern.MatchString(s)
}

// legacyStudentNamespace scopes ids derived for students stored before ids existed.
var legacyStudentNamespace = uuid.MustParse("6f1d0c1e-6a3f-4d0b-9c8e-2b7a1f0e5d42")

// LegacyStudentID derives a stable id from the identifying tuple.
func LegacyStudentID(k StudentKey) StudentID {
	name := strings.Join([]string{k.FirstName, k.LastName, k.Email}, "\x1f")
	return StudentID(uuid.NewSHA1(legacyStudentNamespace, []byte(name)).String())
}
