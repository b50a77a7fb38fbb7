// Package roster implements the student roster operations of an account.
//
// The package-level functions are pure: each takes the current Account and a request and
// returns a new Account, never modifying its input. Service wraps them in a
// read-modify-write against the account store.
package roster

import (
	"time"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

// PromoteInput overrides the defaults of a promotion. Empty fields are defaulted.
type PromoteInput struct {
	DatePassed string
	Examiner   string
	Grade      string
}

// AddStudent appends a new student built from f. f must already be normalized.
func AddStudent(a domain.Account, f validation.StudentForm, id domain.StudentID, now time.Time) (domain.Account, error) {
	if errs := validation.ValidateStudentForm(f); !errs.OK() {
		return a, validationError(errs)
	}
	out := a.Clone()
	st := domain.Student{
		ID:                      id,
		AgreedToMembershipTerms: f.AgreedToMembershipTerms,
		AgreedToPhotography:     f.AgreedToPhotography,
		LicDate:                 f.LicDate,
		LicExpDate:              f.LicExpDate,
		DateJoined:              now,
	}
	applyProfile(&st, f.StudentProfile)
	out.Students = append(out.Students, st)
	return out, nil
}

// EditStudent replaces the editable fields of the selected student. Grading history,
// license dates, application status and join date are kept as they were.
func EditStudent(a domain.Account, sel Selector, f validation.StudentEditForm) (domain.Account, error) {
	if errs := validation.ValidateStudentEditForm(f); !errs.OK() {
		return a, validationError(errs)
	}
	return updateStudent(a, sel, func(st *domain.Student) {
		applyProfile(st, f.StudentProfile)
		st.AgreedToMembershipTerms = f.AgreedToMembershipTerms
		st.AgreedToPhotography = f.AgreedToPhotography
	})
}

// DeleteStudent removes the first student matching sel and reports how many matched.
// With no match the account is returned unchanged.
func DeleteStudent(a domain.Account, sel Selector) (domain.Account, int) {
	n, first := sel.count(a.Students)
	if n == 0 {
		return a, 0
	}
	out := a.Clone()
	out.Students = append(out.Students[:first:first], out.Students[first+1:]...)
	return out, n
}

// AddGrade appends a grade to the selected student's history.
func AddGrade(a domain.Account, sel Selector, f validation.GradeForm, now time.Time) (domain.Account, error) {
	if errs := validation.ValidateGradeForm(f); !errs.OK() {
		return a, validationError(errs)
	}
	return updateStudent(a, sel, func(st *domain.Student) {
		st.GradingHistory = append(st.GradingHistory, domain.Grade{
			DatePassed: f.DatePassed,
			Examiner:   f.Examiner,
			Name:       f.Grade,
			CreatedAt:  now,
		})
	})
}

// PromoteStudent awards the next grade on the ladder. The date defaults to today and the
// examiner to defaultExaminer; a caller-supplied grade overrides the computed one.
func PromoteStudent(a domain.Account, sel Selector, in PromoteInput, now time.Time, defaultExaminer string) (domain.Account, error) {
	i, err := sel.resolve(a.Students)
	if err != nil {
		return a, err
	}
	f := PromotionForm(a.Students[i], in, now, defaultExaminer)
	return AddGrade(a, sel, f, now)
}

// PromotionForm fills the defaults a promotion would use for st.
func PromotionForm(st domain.Student, in PromoteInput, now time.Time, defaultExaminer string) validation.GradeForm {
	f := validation.GradeForm{
		DatePassed: in.DatePassed,
		Examiner:   in.Examiner,
		Grade:      in.Grade,
	}.Normalized()
	if f.DatePassed == "" {
		f.DatePassed = domain.FormatDate(now)
	}
	if f.Examiner == "" {
		f.Examiner = defaultExaminer
	}
	if f.Grade == "" {
		f.Grade = domain.NextGradeFor(st.GradingHistory)
	}
	return f
}

// RenewLicense sets both license dates and clears any application status.
func RenewLicense(a domain.Account, sel Selector, f validation.RenewalForm) (domain.Account, error) {
	if errs := validation.ValidateRenewalForm(f); !errs.OK() {
		return a, validationError(errs)
	}
	return updateStudent(a, sel, func(st *domain.Student) {
		st.LicDate = f.LicDate
		st.LicExpDate = f.LicExpDate
		st.LicenseApplicationStatus = domain.LicenseApplicationNone
	})
}

// DefaultRenewal is a one-year license starting today.
func DefaultRenewal(today time.Time) validation.RenewalForm {
	return validation.RenewalForm{
		LicDate:    domain.FormatDate(today),
		LicExpDate: domain.FormatDate(today.AddDate(1, 0, 0)),
	}
}

// SubmitLicenseApplication updates the student's details from the application and marks it
// pending. License dates and grading history are untouched until the license is renewed.
func SubmitLicenseApplication(a domain.Account, sel Selector, f validation.LicenseApplicationForm) (domain.Account, error) {
	if errs := validation.ValidateLicenseApplicationForm(f); !errs.OK() {
		return a, validationError(errs)
	}
	return updateStudent(a, sel, func(st *domain.Student) {
		applyProfile(st, f.StudentProfile)
		st.AgreedToMembershipTerms = f.AgreedToMembershipTerms
		st.AgreedToPhotography = f.AgreedToPhotography
		st.LicenseApplicationStatus = domain.LicenseApplicationPending
	})
}

// SetApproval toggles whether the account may use the roster.
func SetApproval(a domain.Account, approved bool, now time.Time) domain.Account {
	out := a.Clone()
	out.Approved = approved
	out.UpdatedAt = now
	return out
}

func updateStudent(a domain.Account, sel Selector, fn func(*domain.Student)) (domain.Account, error) {
	i, err := sel.resolve(a.Students)
	if err != nil {
		return a, err
	}
	out := a.Clone()
	fn(&out.Students[i])
	return out, nil
}

func applyProfile(st *domain.Student, p validation.StudentProfile) {
	st.FirstName = p.FirstName
	st.LastName = p.LastName
	st.Email = p.Email
	st.Phone = p.Phone
	st.Address = p.Address
	st.Postcode = p.Postcode
	st.Occupation = p.Occupation
	st.BirthDate = p.BirthDate
	st.ClubName = p.ClubName
}
