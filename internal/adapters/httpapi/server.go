package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/lilrhino/dojopal-api/internal/app/accounts"
	"github.com/lilrhino/dojopal-api/internal/app/roster"
	"github.com/lilrhino/dojopal-api/internal/domain"
	clockport "github.com/lilrhino/dojopal-api/internal/ports/out/clock"
	"github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

// Server adapts the account and roster services to HTTP.
type Server struct {
	Accounts *accounts.Service
	Roster   *roster.Service
	Idem     idempotency.Store

	clk clockport.Clock
	log *zap.Logger
}

func NewServer(accountsSvc *accounts.Service, rosterSvc *roster.Service, idem idempotency.Store, clk clockport.Clock, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Accounts: accountsSvc,
		Roster:   rosterSvc,
		Idem:     idem,
		clk:      clk,
		log:      log.Named("httpapi"),
	}
}

func (s *Server) today() time.Time { return clockport.Today(s.clk) }

// actor resolves the authenticated caller, writing the error response itself on failure.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (accounts.Actor, bool) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return accounts.Actor{}, false
	}
	a, err := s.Accounts.ResolveActor(r.Context(), domain.SubjectID(sub))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return accounts.Actor{}, false
	}
	return a, true
}

// target resolves the {accountId} of the route ("me" is the caller) and checks the caller
// may use it at the requested access level.
func (s *Server) target(w http.ResponseWriter, r *http.Request, access accounts.Access) (accounts.Actor, domain.AccountID, bool) {
	actor, ok := s.actor(w, r)
	if !ok {
		return accounts.Actor{}, "", false
	}
	var raw string
	if err := bindPathParam(r, "accountId", &raw); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid path parameter", map[string]any{"accountId": err.Error()})
		return accounts.Actor{}, "", false
	}
	id := domain.AccountID(raw)
	if raw == meAlias {
		id = actor.ID
	}
	if !domain.ValidAccountID(id) {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid path parameter",
			map[string]any{"accountId": "must be 1-128 letters, digits, '_' or '-'"})
		return accounts.Actor{}, "", false
	}
	if err := s.Accounts.Authorize(actor, id, access); err != nil {
		writeAppError(w, r, s.log, err)
		return accounts.Actor{}, "", false
	}
	return actor, id, true
}

// studentTarget is target plus the {studentId} of the route.
func (s *Server) studentTarget(w http.ResponseWriter, r *http.Request, access accounts.Access) (domain.AccountID, roster.Selector, bool) {
	_, id, ok := s.target(w, r, access)
	if !ok {
		return "", roster.Selector{}, false
	}
	sid, ok := studentIDParam(w, r)
	if !ok {
		return "", roster.Selector{}, false
	}
	return id, roster.ByID(domain.StudentID(sid.String())), true
}

func (s *Server) GetMyRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, RoleResponse{
		AccountID:   string(actor.ID),
		Role:        string(actor.Role),
		Provisioned: actor.Provisioned,
		Approved:    actor.Approved,
	})
}

func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	var req SignUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.AccountProfileForm = req.AccountProfileForm.Normalized()
	// The gate code never reaches the idempotency store in clear text.
	canon := struct {
		Profile any    `json:"profile"`
		Terms   bool   `json:"terms"`
		Code    string `json:"code"`
	}{req.AccountProfileForm, req.AgreedToTerms, mustHash(strings.ToUpper(strings.TrimSpace(req.AuthorizationCode)))}

	s.respondOnce(w, r, canon, func() (handlerResult, error) {
		a, err := s.Accounts.SignUp(r.Context(), domain.SubjectID(sub), accounts.SignUpInput{
			AccountProfileForm: req.AccountProfileForm,
			AgreedToTerms:      req.AgreedToTerms,
			AuthorizationCode:  req.AuthorizationCode,
		})
		if err != nil {
			return handlerResult{}, err
		}
		return handlerResult{http.StatusCreated, accountFromDomain(a, s.today())}, nil
	})
}

func (s *Server) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	if err := s.Accounts.RequireAdmin(actor); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	all, err := s.Accounts.ListAccounts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	out := AccountListResponse{Accounts: make([]AccountSummary, 0, len(all))}
	for _, a := range all {
		out.Accounts = append(out.Accounts, accountSummaryFromDomain(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetAccount(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.target(w, r, accounts.AccessView)
	if !ok {
		return
	}
	a, err := s.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, accountFromDomain(a, s.today()))
}

func (s *Server) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.target(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.Accounts.UpdateProfile(r.Context(), id, accounts.UpdateProfileInput{
		FirstName: optionalFromNullable(req.FirstName),
		LastName:  optionalFromNullable(req.LastName),
		Email:     optionalFromNullable(req.EmailAddress),
		ClubName:  optionalFromNullable(req.ClubName),
	})
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, accountFromDomain(a, s.today()))
}

func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.target(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	if err := s.Accounts.RequireAdmin(actor); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if err := s.Accounts.DeleteAccount(r.Context(), id); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetApproval(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := s.target(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	if err := s.Accounts.RequireAdmin(actor); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	var req ApprovalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Approved == nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", map[string]any{"approved": "is required"})
		return
	}
	a, err := s.Accounts.SetApproval(r.Context(), id, *req.Approved)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, accountFromDomain(a, s.today()))
}

func (s *Server) ListStudents(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.target(w, r, accounts.AccessView)
	if !ok {
		return
	}
	sts, err := s.Roster.ListStudents(r.Context(), id)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StudentListResponse{Students: studentsFromDomain(sts, s.today())})
}

// LookupStudent finds a student by name and email, for clients that predate student ids.
func (s *Server) LookupStudent(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.target(w, r, accounts.AccessView)
	if !ok {
		return
	}
	q := r.URL.Query()
	key := domain.StudentKey{
		FirstName: strings.TrimSpace(q.Get("firstName")),
		LastName:  strings.TrimSpace(q.Get("lastName")),
		Email:     strings.TrimSpace(q.Get("emailAddress")),
	}
	st, err := s.Roster.GetStudent(r.Context(), id, roster.ByKey(key))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StudentResponse{Student: studentFromDomain(st, s.today())})
}

func (s *Server) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.studentTarget(w, r, accounts.AccessView)
	if !ok {
		return
	}
	st, err := s.Roster.GetStudent(r.Context(), id, sel)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StudentResponse{Student: studentFromDomain(st, s.today())})
}

func (s *Server) AddStudent(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.target(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	var form validation.StudentForm
	if !decodeBody(w, r, &form) {
		return
	}
	form = form.Normalized()
	s.respondOnce(w, r, form, func() (handlerResult, error) {
		st, err := s.Roster.AddStudent(r.Context(), id, form)
		if err != nil {
			return handlerResult{}, err
		}
		return handlerResult{http.StatusCreated, StudentResponse{Student: studentFromDomain(st, s.today())}}, nil
	})
}

func (s *Server) EditStudent(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.studentTarget(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	var form validation.StudentEditForm
	if !decodeBody(w, r, &form) {
		return
	}
	st, err := s.Roster.EditStudent(r.Context(), id, sel, form)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StudentResponse{Student: studentFromDomain(st, s.today())})
}

func (s *Server) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.studentTarget(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	if err := s.Roster.DeleteStudent(r.Context(), id, sel); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AddGrade(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.studentTarget(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	var form validation.GradeForm
	if !decodeBody(w, r, &form) {
		return
	}
	form = form.Normalized()
	s.respondOnce(w, r, form, func() (handlerResult, error) {
		st, err := s.Roster.AddGrade(r.Context(), id, sel, form)
		if err != nil {
			return handlerResult{}, err
		}
		return handlerResult{http.StatusCreated, StudentResponse{Student: studentFromDomain(st, s.today())}}, nil
	})
}

func (s *Server) PromoteStudent(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.studentTarget(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	var req PromotionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in := roster.PromoteInput{
		DatePassed: strings.TrimSpace(req.DatePassed),
		Examiner:   strings.TrimSpace(req.Examiner),
		Grade:      strings.TrimSpace(req.Grade),
	}
	s.respondOnce(w, r, in, func() (handlerResult, error) {
		st, err := s.Roster.PromoteStudent(r.Context(), id, sel, in)
		if err != nil {
			return handlerResult{}, err
		}
		return handlerResult{http.StatusCreated, StudentResponse{Student: studentFromDomain(st, s.today())}}, nil
	})
}

func (s *Server) RenewLicense(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.studentTarget(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	var form validation.RenewalForm
	if !decodeBody(w, r, &form) {
		return
	}
	st, err := s.Roster.RenewLicense(r.Context(), id, sel, form)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StudentResponse{Student: studentFromDomain(st, s.today())})
}

func (s *Server) SubmitLicenseApplication(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.studentTarget(w, r, accounts.AccessManage)
	if !ok {
		return
	}
	var form validation.LicenseApplicationForm
	if !decodeBody(w, r, &form) {
		return
	}
	form = form.Normalized()
	s.respondOnce(w, r, form, func() (handlerResult, error) {
		st, err := s.Roster.SubmitLicenseApplication(r.Context(), id, sel, form)
		if err != nil {
			return handlerResult{}, err
		}
		return handlerResult{http.StatusOK, StudentResponse{Student: studentFromDomain(st, s.today())}}, nil
	})
}

func (s *Server) CheckPasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req PasswordStrengthRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, PasswordStrengthResponse{
		Strong: validation.IsStrongPassword(req.Password),
		Report: validation.PasswordStrengthReport(req.Password),
	})
}

func (s *Server) CheckSignUpForm(w http.ResponseWriter, r *http.Request) {
	var form validation.SignUpForm
	if !decodeBody(w, r, &form) {
		return
	}
	writeJSON(w, http.StatusOK, formCheck(validation.ValidateSignUpForm(form)))
}

func (s *Server) CheckAccountSettingsForm(w http.ResponseWriter, r *http.Request) {
	var form validation.AccountSettingsForm
	if !decodeBody(w, r, &form) {
		return
	}
	writeJSON(w, http.StatusOK, formCheck(validation.ValidateAccountSettingsForm(form)))
}

func optionalFromNullable(n nullable.Nullable[string]) accounts.Optional[string] {
	if !n.IsSpecified() {
		return accounts.Unspecified[string]()
	}
	if n.IsNull() {
		return accounts.Null[string]()
	}
	v, err := n.Get()
	if err != nil {
		return accounts.Unspecified[string]()
	}
	return accounts.Some(v)
}

func mustHash(v string) string {
	h, _ := hashCanonical(v)
	return h
}
