package roster

import "github.com/lilrhino/dojopal-api/internal/domain"

// Selector addresses one student within an account, either by surrogate id or by the
// legacy (firstName, lastName, emailAddress) tuple.
type Selector struct {
	ID  domain.StudentID
	Key domain.StudentKey
}

func ByID(id domain.StudentID) Selector { return Selector{ID: id} }

func ByKey(k domain.StudentKey) Selector { return Selector{Key: k} }

func (s Selector) matches(st domain.Student) bool {
	if s.ID != "" {
		return st.ID == s.ID
	}
	return st.Key() == s.Key
}

// count returns the number of matching students and the index of the first one (-1 if none).
func (s Selector) count(students []domain.Student) (int, int) {
	n, first := 0, -1
	for i, st := range students {
		if s.matches(st) {
			if first < 0 {
				first = i
			}
			n++
		}
	}
	return n, first
}

// resolve returns the index of the single matching student.
func (s Selector) resolve(students []domain.Student) (int, error) {
	n, first := s.count(students)
	switch {
	case n == 0:
		return -1, studentNotFound(s)
	case n > 1:
		return -1, studentAmbiguous(s, n)
	}
	return first, nil
}

func (s Selector) details() map[string]any {
	if s.ID != "" {
		return map[string]any{"studentId": string(s.ID)}
	}
	return map[string]any{
		"firstName":    s.Key.FirstName,
		"lastName":     s.Key.LastName,
		"emailAddress": s.Key.Email,
	}
}
