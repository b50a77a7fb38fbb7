package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lilrhino/dojopal-api/internal/domain"
)

// FieldErrors maps a field's json name to its message. Only failing fields are present.
type FieldErrors map[string]string

func (e FieldErrors) OK() bool { return len(e) == 0 }

// Details converts the errors into the shape used by API error envelopes.
func (e FieldErrors) Details() map[string]any {
	out := make(map[string]any, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	rules := map[string]func(string) bool{
		"dojo_email":      IsValidEmail,
		"dojo_phone":      IsValidPhone,
		"uk_postcode":     IsValidUKPostcode,
		"dmy_date":        IsValidDate,
		"strong_password": IsStrongPassword,
	}
	for tag, ok := range rules {
		ok := ok
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return ok(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}
	return v
}

func check(form any, messages map[string]string) FieldErrors {
	out := FieldErrors{}
	err := validate.Struct(form)
	if err == nil {
		return out
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		out["form"] = err.Error()
		return out
	}
	for _, fe := range ves {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		out[fe.Field()] = msg
	}
	return out
}

func merge(tables ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}

const dateFormatMessage = "Please enter date in DD/MM/YYYY format"

var profileMessages = map[string]string{
	"firstName.required":      "First name is required",
	"lastName.required":       "Last name is required",
	"emailAddress.required":   "Email is required",
	"emailAddress.dojo_email": "Please enter a valid email address",
	"phone.required":          "Phone number is required",
	"phone.dojo_phone":        "Please enter a valid phone number (10-15 digits)",
	"address.required":        "Address is required",
	"postcode.required":       "Postcode is required",
	"postcode.uk_postcode":    "Please enter a valid UK postcode (e.g., SW1A 1AA)",
	"occupation.required":     "Occupation is required",
	"birthDate.required":      "Birth date is required",
	"birthDate.dmy_date":      dateFormatMessage,
	"clubName.required":       "Club name is required",
}

var termsMessages = map[string]string{
	"agreedToMembershipTerms.required": "You must agree to membership terms",
}

var optionalLicenseMessages = map[string]string{
	"licDate.dmy_date":    "Please enter license date in DD/MM/YYYY format",
	"licExpDate.dmy_date": "Please enter license expiry date in DD/MM/YYYY format",
}

// StudentProfile holds the personal fields every student form shares.
type StudentProfile struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Email      string `json:"emailAddress" validate:"required,dojo_email"`
	Phone      string `json:"phone" validate:"required,dojo_phone"`
	Address    string `json:"address" validate:"required"`
	Postcode   string `json:"postcode" validate:"required,uk_postcode"`
	Occupation string `json:"occupation" validate:"required"`
	BirthDate  string `json:"birthDate" validate:"required,dmy_date"`
	ClubName   string `json:"clubName" validate:"required"`
}

// Normalized trims every field and uppercases the postcode.
func (p StudentProfile) Normalized() StudentProfile {
	return StudentProfile{
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		Email:      strings.TrimSpace(p.Email),
		Phone:      strings.TrimSpace(p.Phone),
		Address:    strings.TrimSpace(p.Address),
		Postcode:   domain.NormalizePostcode(p.Postcode),
		Occupation: strings.TrimSpace(p.Occupation),
		BirthDate:  strings.TrimSpace(p.BirthDate),
		ClubName:   strings.TrimSpace(p.ClubName),
	}
}

// StudentForm is the admin "add student" form. License dates are optional but must be
// well formed when present.
type StudentForm struct {
	StudentProfile
	LicDate                 string `json:"licDate" validate:"omitempty,dmy_date"`
	LicExpDate              string `json:"licExpDate" validate:"omitempty,dmy_date"`
	AgreedToMembershipTerms bool   `json:"agreedToMembershipTerms" validate:"required"`
	AgreedToPhotography     bool   `json:"agreedToPhotography"`
}

func (f StudentForm) Normalized() StudentForm {
	f.StudentProfile = f.StudentProfile.Normalized()
	f.LicDate = strings.TrimSpace(f.LicDate)
	f.LicExpDate = strings.TrimSpace(f.LicExpDate)
	return f
}

var studentFormMessages = merge(profileMessages, termsMessages, optionalLicenseMessages)

func ValidateStudentForm(f StudentForm) FieldErrors {
	return check(f, studentFormMessages)
}

// StudentEditForm edits personal details. Terms are not re-asked and license dates are
// left to RenewLicense.
type StudentEditForm struct {
	StudentProfile
	AgreedToMembershipTerms bool `json:"agreedToMembershipTerms"`
	AgreedToPhotography     bool `json:"agreedToPhotography"`
}

func (f StudentEditForm) Normalized() StudentEditForm {
	f.StudentProfile = f.StudentProfile.Normalized()
	return f
}

func ValidateStudentEditForm(f StudentEditForm) FieldErrors {
	return check(f, profileMessages)
}

// LicenseApplicationForm is submitted by an account owner applying for a student's license.
type LicenseApplicationForm struct {
	StudentProfile
	AgreedToMembershipTerms bool `json:"agreedToMembershipTerms" validate:"required"`
	AgreedToPhotography     bool `json:"agreedToPhotography"`
}

func (f LicenseApplicationForm) Normalized() LicenseApplicationForm {
	f.StudentProfile = f.StudentProfile.Normalized()
	return f
}

var licenseApplicationMessages = merge(profileMessages, termsMessages)

func ValidateLicenseApplicationForm(f LicenseApplicationForm) FieldErrors {
	return check(f, licenseApplicationMessages)
}

type GradeForm struct {
	DatePassed string `json:"datePassed" validate:"required,dmy_date"`
	Examiner   string `json:"examiner" validate:"required"`
	Grade      string `json:"grade" validate:"required"`
}

func (f GradeForm) Normalized() GradeForm {
	return GradeForm{
		DatePassed: strings.TrimSpace(f.DatePassed),
		Examiner:   strings.TrimSpace(f.Examiner),
		Grade:      strings.TrimSpace(f.Grade),
	}
}

var gradeMessages = map[string]string{
	"datePassed.required": "Date passed is required",
	"datePassed.dmy_date": dateFormatMessage,
	"examiner.required":   "Examiner name is required",
	"grade.required":      "Grade is required",
}

func ValidateGradeForm(f GradeForm) FieldErrors {
	return check(f, gradeMessages)
}

type RenewalForm struct {
	LicDate    string `json:"licDate" validate:"required,dmy_date"`
	LicExpDate string `json:"licExpDate" validate:"required,dmy_date"`
}

func (f RenewalForm) Normalized() RenewalForm {
	return RenewalForm{
		LicDate:    strings.TrimSpace(f.LicDate),
		LicExpDate: strings.TrimSpace(f.LicExpDate),
	}
}

var renewalMessages = map[string]string{
	"licDate.required":    "License date is required",
	"licDate.dmy_date":    dateFormatMessage,
	"licExpDate.required": "License expiry date is required",
	"licExpDate.dmy_date": dateFormatMessage,
}

func ValidateRenewalForm(f RenewalForm) FieldErrors {
	return check(f, renewalMessages)
}

// AccountProfileForm covers the account holder's own details.
type AccountProfileForm struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"emailAddress" validate:"required,dojo_email"`
	ClubName  string `json:"clubName" validate:"required"`
}

func (f AccountProfileForm) Normalized() AccountProfileForm {
	return AccountProfileForm{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		ClubName:  strings.TrimSpace(f.ClubName),
	}
}

var accountProfileMessages = map[string]string{
	"firstName.required":      "First name is required",
	"lastName.required":       "Last name is required",
	"emailAddress.required":   "Email is required",
	"emailAddress.dojo_email": "Please enter a valid email address",
	"clubName.required":       "Club name is required",
}

func ValidateAccountProfileForm(f AccountProfileForm) FieldErrors {
	return check(f, accountProfileMessages)
}

// SignUpForm is the full registration form, including credentials handled by the
// identity provider and the club authorization code.
type SignUpForm struct {
	AccountProfileForm
	Password          string `json:"password" validate:"required,strong_password"`
	ConfirmPassword   string `json:"confirmPassword" validate:"required,eqfield=Password"`
	AgreedToTerms     bool   `json:"agreedToTerms" validate:"required"`
	AuthorizationCode string `json:"authorizationCode" validate:"required"`
}

var signUpMessages = merge(accountProfileMessages, map[string]string{
	"password.required":          "Password is required",
	"password.strong_password":   "Password must be strong (8+ chars, upper/lower case, digit, special char)",
	"confirmPassword.required":   "Please confirm your password",
	"confirmPassword.eqfield":    "Passwords do not match",
	"agreedToTerms.required":     "You must agree to the Privacy Policy and Terms & Conditions",
	"authorizationCode.required": "Authorization code is required",
})

// ValidateSignUpForm checks field shape only. Whether the authorization code is correct is
// decided by the accounts service.
func ValidateSignUpForm(f SignUpForm) FieldErrors {
	f.AccountProfileForm = f.AccountProfileForm.Normalized()
	f.AuthorizationCode = strings.TrimSpace(f.AuthorizationCode)
	return check(f, signUpMessages)
}

// AccountSettingsForm changes the signed-in user's email and/or password.
type AccountSettingsForm struct {
	CurrentEmail       string `json:"currentEmail"`
	NewEmail           string `json:"newEmail"`
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// ValidateAccountSettingsForm mirrors the settings screen: any difference from the current
// email, case included, is a change and needs a valid address; a password change needs the
// current password plus a confirmed strong new one.
func ValidateAccountSettingsForm(f AccountSettingsForm) FieldErrors {
	out := FieldErrors{}
	newEmail := strings.TrimSpace(f.NewEmail)
	emailChanged := newEmail != strings.TrimSpace(f.CurrentEmail)
	passwordChanged := f.NewPassword != "" || f.ConfirmNewPassword != ""

	if emailChanged {
		switch {
		case newEmail == "":
			out["newEmail"] = "Email is required"
		case !IsValidEmail(newEmail):
			out["newEmail"] = "Please enter a valid email address"
		}
	}
	if passwordChanged {
		if f.CurrentPassword == "" {
			out["currentPassword"] = "Current password is required to change password"
		}
		switch {
		case f.NewPassword == "":
			out["newPassword"] = "New password is required"
		case !IsStrongPassword(f.NewPassword):
			out["newPassword"] = "Password must be strong (8+ chars, upper/lower case, digit, special char)"
		}
		switch {
		case f.ConfirmNewPassword == "":
			out["confirmNewPassword"] = "Please confirm your new password"
		case f.ConfirmNewPassword != f.NewPassword:
			out["confirmNewPassword"] = "Passwords do not match"
		}
	}
	if !emailChanged && !passwordChanged {
		out["form"] = "No changes to save"
	}
	return out
}
