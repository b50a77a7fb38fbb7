package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

type AccountSummary struct {
	AccountID    string    `json:"accountId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	FullName     string    `json:"fullName"`
	EmailAddress string    `json:"emailAddress"`
	ClubName     string    `json:"clubName"`
	Approved     bool      `json:"approved"`
	StudentCount int       `json:"studentCount"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

type AccountResponse struct {
	Account  AccountSummary `json:"account"`
	Students []Student      `json:"students"`
}

type AccountListResponse struct {
	Accounts []AccountSummary `json:"accounts"`
}

type RoleResponse struct {
	AccountID   string `json:"accountId"`
	Role        string `json:"role"`
	Provisioned bool   `json:"provisioned"`
	Approved    bool   `json:"approved"`
}

type Grade struct {
	DatePassed string    `json:"datePassed"`
	Examiner   string    `json:"examiner"`
	Grade      string    `json:"grade"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

// Student carries the stored record plus the derived grade and license fields clients show.
type Student struct {
	StudentID               string `json:"studentId"`
	FirstName               string `json:"firstName"`
	LastName                string `json:"lastName"`
	EmailAddress            string `json:"emailAddress"`
	Phone                   string `json:"phone"`
	Address                 string `json:"address"`
	Postcode                string `json:"postcode"`
	Occupation              string `json:"occupation"`
	BirthDate               string `json:"birthDate"`
	ClubName                string `json:"clubName"`
	AgreedToMembershipTerms bool   `json:"agreedToMembershipTerms"`
	AgreedToPhotography     bool   `json:"agreedToPhotography"`
	LicDate                 string `json:"licDate"`
	LicExpDate              string `json:"licExpDate"`

	LicenseApplicationStatus nullable.Nullable[string] `json:"licenseApplicationStatus"`
	GradingHistory           []Grade                   `json:"gradingHistory"`
	DateJoined               time.Time                 `json:"dateJoined,omitzero"`

	HighestGrade  string `json:"highestGrade"`
	NextGrade     string `json:"nextGrade"`
	LicenseState  string `json:"licenseState"`
	LicenseStatus string `json:"licenseStatus"`
}

type StudentResponse struct {
	Student Student `json:"student"`
}

type StudentListResponse struct {
	Students []Student `json:"students"`
}

type SignUpRequest struct {
	validation.AccountProfileForm
	AgreedToTerms     bool   `json:"agreedToTerms"`
	AuthorizationCode string `json:"authorizationCode"`
}

// UpdateAccountRequest distinguishes an omitted field from an explicit null.
type UpdateAccountRequest struct {
	FirstName    nullable.Nullable[string] `json:"firstName,omitempty"`
	LastName     nullable.Nullable[string] `json:"lastName,omitempty"`
	EmailAddress nullable.Nullable[string] `json:"emailAddress,omitempty"`
	ClubName     nullable.Nullable[string] `json:"clubName,omitempty"`
}

type ApprovalRequest struct {
	Approved *bool `json:"approved"`
}

// PromotionRequest fields are optional; empty ones take the promotion defaults.
type PromotionRequest struct {
	DatePassed string `json:"datePassed"`
	Examiner   string `json:"examiner"`
	Grade      string `json:"grade"`
}

type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

type PasswordStrengthResponse struct {
	Strong bool   `json:"strong"`
	Report string `json:"report"`
}

type FormCheckResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

func accountSummaryFromDomain(a domain.Account) AccountSummary {
	return AccountSummary{
		AccountID:    string(a.ID),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		FullName:     a.FullName(),
		EmailAddress: a.Email,
		ClubName:     a.ClubName,
		Approved:     a.Approved,
		StudentCount: len(a.Students),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func accountFromDomain(a domain.Account, today time.Time) AccountResponse {
	return AccountResponse{Account: accountSummaryFromDomain(a), Students: studentsFromDomain(a.Students, today)}
}

func studentsFromDomain(in []domain.Student, today time.Time) []Student {
	out := make([]Student, 0, len(in))
	for _, st := range in {
		out = append(out, studentFromDomain(st, today))
	}
	return out
}

func studentFromDomain(st domain.Student, today time.Time) Student {
	out := Student{
		StudentID:                string(st.ID),
		FirstName:                st.FirstName,
		LastName:                 st.LastName,
		EmailAddress:             st.Email,
		Phone:                    st.Phone,
		Address:                  st.Address,
		Postcode:                 st.Postcode,
		Occupation:               st.Occupation,
		BirthDate:                st.BirthDate,
		ClubName:                 st.ClubName,
		AgreedToMembershipTerms:  st.AgreedToMembershipTerms,
		AgreedToPhotography:      st.AgreedToPhotography,
		LicDate:                  st.LicDate,
		LicExpDate:               st.LicExpDate,
		LicenseApplicationStatus: nullable.NewNullNullable[string](),
		GradingHistory:           make([]Grade, 0, len(st.GradingHistory)),
		DateJoined:               st.DateJoined,
		HighestGrade:             domain.HighestGradeName(st.GradingHistory),
		NextGrade:                domain.NextGradeFor(st.GradingHistory),
		LicenseState:             st.LicenseState(today).String(),
		LicenseStatus:            st.LicenseStatusText(today),
	}
	if st.LicenseApplicationStatus != domain.LicenseApplicationNone {
		out.LicenseApplicationStatus = nullable.NewNullableWithValue(string(st.LicenseApplicationStatus))
	}
	for _, g := range st.GradingHistory {
		out.GradingHistory = append(out.GradingHistory, Grade{
			DatePassed: g.DatePassed,
			Examiner:   g.Examiner,
			Grade:      g.Name,
			CreatedAt:  g.CreatedAt,
		})
	}
	return out
}

func formCheck(errs validation.FieldErrors) FormCheckResponse {
	out := FormCheckResponse{Valid: errs.OK(), Errors: map[string]string{}}
	for k, v := range errs {
		out.Errors[k] = v
	}
	return out
}
