package roster

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func validStudentForm() validation.StudentForm {
	return validation.StudentForm{
		StudentProfile: validation.StudentProfile{
			FirstName:  "Ada",
			LastName:   "Lovelace",
			Email:      "ada@example.com",
			Phone:      "07700 900123",
			Address:    "1 Analytical Way",
			Postcode:   "SW1A 1AA",
			Occupation: "Engineer",
			BirthDate:  "10/12/1990",
			ClubName:   "Westside",
		},
		AgreedToMembershipTerms: true,
	}
}

func wantAppError(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v (type=%T), want %s %d", err, err, code, status)
	}
	return ae
}

func TestAddThenPromoteTwice(t *testing.T) {
	t.Parallel()

	a := domain.Account{ID: "acct-1"}
	a, err := AddStudent(a, validStudentForm(), "s-1", testNow)
	if err != nil {
		t.Fatalf("AddStudent err=%v", err)
	}
	if len(a.Students) != 1 || len(a.Students[0].GradingHistory) != 0 {
		t.Fatalf("students=%+v, want one student with empty history", a.Students)
	}

	a, err = PromoteStudent(a, ByID("s-1"), PromoteInput{}, testNow, DefaultExaminer)
	if err != nil {
		t.Fatalf("PromoteStudent err=%v", err)
	}
	h := a.Students[0].GradingHistory
	if len(h) != 1 || h[0].Name != "10th Kyu" || h[0].Examiner != "Bo Channon" || h[0].DatePassed != "15/06/2024" {
		t.Fatalf("history=%+v, want 10th Kyu by Bo Channon on 15/06/2024", h)
	}

	a, err = PromoteStudent(a, ByKey(a.Students[0].Key()), PromoteInput{}, testNow, DefaultExaminer)
	if err != nil {
		t.Fatalf("PromoteStudent err=%v", err)
	}
	h = a.Students[0].GradingHistory
	if len(h) != 2 || h[1].Name != "9th Kyu" {
		t.Fatalf("history=%+v, want 9th Kyu appended", h)
	}
}

func TestAddStudent_ValidationLeavesAccountUntouched(t *testing.T) {
	t.Parallel()

	a := domain.Account{ID: "acct-1"}
	f := validStudentForm()
	f.AgreedToMembershipTerms = false
	f.Email = "nope"

	got, err := AddStudent(a, f, "s-1", testNow)
	ae := wantAppError(t, err, 422, "VALIDATION_ERROR")
	if ae.Details["agreedToMembershipTerms"] != "You must agree to membership terms" ||
		ae.Details["emailAddress"] != "Please enter a valid email address" {
		t.Fatalf("details=%v", ae.Details)
	}
	if len(got.Students) != 0 || len(a.Students) != 0 {
		t.Fatalf("account changed on validation failure: %+v", got)
	}
}

func TestEditStudent_RoundTripPreservesProtectedFields(t *testing.T) {
	t.Parallel()

	joined := testNow.Add(-48 * time.Hour)
	orig := domain.Student{
		ID:                       "s-1",
		FirstName:                "Ada",
		LastName:                 "Lovelace",
		Email:                    "ada@example.com",
		LicDate:                  "01/01/2024",
		LicExpDate:               "01/01/2025",
		LicenseApplicationStatus: domain.LicenseApplicationPending,
		GradingHistory:           []domain.Grade{{DatePassed: "01/02/2024", Examiner: "X", Name: "10th Kyu"}},
		DateJoined:               joined,
	}
	a := domain.Account{ID: "acct-1", Students: []domain.Student{orig}}

	f := validation.StudentEditForm{
		StudentProfile: validation.StudentProfile{
			FirstName:  "Augusta",
			LastName:   "King",
			Email:      "augusta@example.com",
			Phone:      "020 7946 0958",
			Address:    "2 Difference Rd",
			Postcode:   "M1 1AE",
			Occupation: "Mathematician",
			BirthDate:  "10/12/1815",
			ClubName:   "Eastside",
		},
		AgreedToMembershipTerms: true,
		AgreedToPhotography:     true,
	}
	out, err := EditStudent(a, ByKey(orig.Key()), f)
	if err == nil {
		t.Fatalf("EditStudent with 1815 birth date err=nil, want validation error")
	}
	wantAppError(t, err, 422, "VALIDATION_ERROR")

	f.BirthDate = "10/12/1915"
	out, err = EditStudent(a, ByKey(orig.Key()), f)
	if err != nil {
		t.Fatalf("EditStudent err=%v", err)
	}
	got := out.Students[0]
	if got.FirstName != "Augusta" || got.LastName != "King" || got.Email != "augusta@example.com" ||
		got.Phone != f.Phone || got.Address != f.Address || got.Postcode != f.Postcode ||
		got.Occupation != f.Occupation || got.BirthDate != f.BirthDate || got.ClubName != f.ClubName ||
		!got.AgreedToMembershipTerms || !got.AgreedToPhotography {
		t.Fatalf("edited student=%+v, want form values", got)
	}
	if got.ID != orig.ID || got.LicDate != orig.LicDate || got.LicExpDate != orig.LicExpDate ||
		got.LicenseApplicationStatus != orig.LicenseApplicationStatus || !got.DateJoined.Equal(joined) ||
		!reflect.DeepEqual(got.GradingHistory, orig.GradingHistory) {
		t.Fatalf("protected fields changed: %+v", got)
	}
	if a.Students[0].FirstName != "Ada" {
		t.Fatalf("input account mutated")
	}

	if _, err := EditStudent(out, ByKey(orig.Key()), f); err == nil {
		t.Fatalf("stale key resolved after edit")
	} else {
		wantAppError(t, err, 404, "STUDENT_NOT_FOUND")
	}
}

func TestDeleteStudent(t *testing.T) {
	t.Parallel()

	key := domain.StudentKey{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	a := domain.Account{ID: "acct-1", Students: []domain.Student{
		{ID: "s-1", FirstName: key.FirstName, LastName: key.LastName, Email: key.Email, Occupation: "first"},
		{ID: "s-2", FirstName: "Bob"},
		{ID: "s-3", FirstName: key.FirstName, LastName: key.LastName, Email: key.Email, Occupation: "second"},
	}}

	same, n := DeleteStudent(a, ByKey(domain.StudentKey{FirstName: "Nobody"}))
	if n != 0 || !reflect.DeepEqual(same, a) {
		t.Fatalf("no-match delete n=%d account=%+v, want unchanged", n, same)
	}

	out, n := DeleteStudent(a, ByKey(key))
	if n != 2 {
		t.Fatalf("matches=%d, want 2", n)
	}
	if len(out.Students) != 2 || out.Students[0].ID != "s-2" || out.Students[1].Occupation != "second" {
		t.Fatalf("students=%+v, want first match removed only", out.Students)
	}
	if len(a.Students) != 3 || a.Students[1].ID != "s-2" {
		t.Fatalf("input account mutated: %+v", a.Students)
	}

	out, n = DeleteStudent(a, ByID("s-2"))
	if n != 1 || len(out.Students) != 2 || out.Students[1].ID != "s-3" {
		t.Fatalf("delete by id n=%d students=%+v", n, out.Students)
	}
}

func TestAmbiguousKeyIsReported(t *testing.T) {
	t.Parallel()

	key := domain.StudentKey{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	a := domain.Account{Students: []domain.Student{
		{ID: "s-1", FirstName: key.FirstName, LastName: key.LastName, Email: key.Email},
		{ID: "s-2", FirstName: key.FirstName, LastName: key.LastName, Email: key.Email},
	}}
	_, err := AddGrade(a, ByKey(key), validation.GradeForm{DatePassed: "01/01/2024", Examiner: "X", Grade: "10th Kyu"}, testNow)
	ae := wantAppError(t, err, 409, "STUDENT_KEY_AMBIGUOUS")
	if ae.Details["matches"] != 2 {
		t.Fatalf("details=%v, want matches=2", ae.Details)
	}
}

func TestAddGrade(t *testing.T) {
	t.Parallel()

	a := domain.Account{Students: []domain.Student{{ID: "s-1"}}}
	_, err := AddGrade(a, ByID("s-1"), validation.GradeForm{}, testNow)
	ae := wantAppError(t, err, 422, "VALIDATION_ERROR")
	if len(ae.Details) != 3 {
		t.Fatalf("details=%v, want three field errors", ae.Details)
	}

	_, err = AddGrade(a, ByID("missing"), validation.GradeForm{DatePassed: "01/01/2024", Examiner: "X", Grade: "1st Dan"}, testNow)
	wantAppError(t, err, 404, "STUDENT_NOT_FOUND")

	out, err := AddGrade(a, ByID("s-1"), validation.GradeForm{DatePassed: "01/01/2024", Examiner: "X", Grade: "1st Dan"}, testNow)
	if err != nil {
		t.Fatalf("AddGrade err=%v", err)
	}
	g := out.Students[0].GradingHistory
	if len(g) != 1 || g[0].Name != "1st Dan" || !g[0].CreatedAt.Equal(testNow) {
		t.Fatalf("history=%+v", g)
	}
}

func TestPromoteStudent_Overrides(t *testing.T) {
	t.Parallel()

	a := domain.Account{Students: []domain.Student{{
		ID:             "s-1",
		GradingHistory: []domain.Grade{{Name: "10th Dan"}},
	}}}
	out, err := PromoteStudent(a, ByID("s-1"), PromoteInput{Examiner: " Sensei ", DatePassed: "02/03/2024"}, testNow, DefaultExaminer)
	if err != nil {
		t.Fatalf("PromoteStudent err=%v", err)
	}
	g := out.Students[0].GradingHistory[1]
	if g.Name != "10th Dan" || g.Examiner != "Sensei" || g.DatePassed != "02/03/2024" {
		t.Fatalf("grade=%+v, want ceiling repeated with overrides", g)
	}

	_, err = PromoteStudent(a, ByID("s-1"), PromoteInput{DatePassed: "2024-03-02"}, testNow, DefaultExaminer)
	wantAppError(t, err, 422, "VALIDATION_ERROR")
}

func TestRenewLicense_ClearsApplicationStatus(t *testing.T) {
	t.Parallel()

	a := domain.Account{Students: []domain.Student{{
		ID:                       "s-1",
		LicExpDate:               "01/01/2020",
		LicenseApplicationStatus: domain.LicenseApplicationPending,
	}}}

	_, err := RenewLicense(a, ByID("s-1"), validation.RenewalForm{LicDate: "15/06/2024"})
	ae := wantAppError(t, err, 422, "VALIDATION_ERROR")
	if ae.Details["licExpDate"] != "License expiry date is required" {
		t.Fatalf("details=%v", ae.Details)
	}

	out, err := RenewLicense(a, ByID("s-1"), DefaultRenewal(testNow))
	if err != nil {
		t.Fatalf("RenewLicense err=%v", err)
	}
	st := out.Students[0]
	if st.LicDate != "15/06/2024" || st.LicExpDate != "15/06/2025" || st.LicenseApplicationStatus != domain.LicenseApplicationNone {
		t.Fatalf("student=%+v, want renewed to 15/06/2025 with no application", st)
	}
	if st.LicenseState(testNow) != domain.LicenseValid {
		t.Fatalf("state=%v, want valid", st.LicenseState(testNow))
	}
}

func TestSubmitLicenseApplication(t *testing.T) {
	t.Parallel()

	history := []domain.Grade{{Name: "5th Kyu"}}
	a := domain.Account{Students: []domain.Student{{
		ID:             "s-1",
		FirstName:      "Ada",
		LicDate:        "01/01/2022",
		LicExpDate:     "01/01/2023",
		GradingHistory: history,
	}}}
	f := validation.LicenseApplicationForm{StudentProfile: validStudentForm().StudentProfile}

	_, err := SubmitLicenseApplication(a, ByID("s-1"), f)
	wantAppError(t, err, 422, "VALIDATION_ERROR")

	f.AgreedToMembershipTerms = true
	out, err := SubmitLicenseApplication(a, ByID("s-1"), f)
	if err != nil {
		t.Fatalf("SubmitLicenseApplication err=%v", err)
	}
	st := out.Students[0]
	if st.LicenseApplicationStatus != domain.LicenseApplicationPending || st.LicDate != "01/01/2022" ||
		st.LicExpDate != "01/01/2023" || !reflect.DeepEqual(st.GradingHistory, history) {
		t.Fatalf("student=%+v, want pending with dates and history kept", st)
	}
	if st.LicenseState(testNow) != domain.LicensePending {
		t.Fatalf("state=%v, want pending to win over expired", st.LicenseState(testNow))
	}
}

func TestSetApproval(t *testing.T) {
	t.Parallel()

	a := domain.Account{ID: "acct-1"}
	out := SetApproval(a, true, testNow)
	if !out.Approved || !out.UpdatedAt.Equal(testNow) || a.Approved {
		t.Fatalf("out=%+v in=%+v", out, a)
	}
}
