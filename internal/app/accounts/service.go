// Package accounts manages account lifecycle: sign-up, profile, approval, deletion, admin
// listing, and resolving who a caller is and what they may touch.
package accounts

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/lilrhino/dojopal-api/internal/app/roster"
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
	"github.com/lilrhino/dojopal-api/internal/ports/out/adminrepo"
	clockport "github.com/lilrhino/dojopal-api/internal/ports/out/clock"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

// DefaultListLimit caps how many accounts the admin list reads.
const DefaultListLimit = 1000

type Service struct {
	repo   accountrepo.Repository
	admins adminrepo.Repository
	clk    clockport.Clock
	gate   GateCode
	log    *zap.Logger

	ListLimit int
}

func NewService(repo accountrepo.Repository, admins adminrepo.Repository, clk clockport.Clock, gate GateCode, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		admins:    admins,
		clk:       clk,
		gate:      gate,
		log:       log.Named("accounts"),
		ListLimit: DefaultListLimit,
	}
}

// ResolveActor works out who subject is. A valid admin marker makes the caller an admin;
// otherwise they are a regular account holder, provisioned or not.
func (s *Service) ResolveActor(ctx context.Context, subject domain.SubjectID) (Actor, error) {
	id := domain.AccountID(subject)
	if !domain.ValidAccountID(id) {
		return Actor{}, &Error{Status: 401, Code: "UNAUTHORIZED", Message: "token subject is not a valid account id"}
	}

	marker, err := s.admins.Get(ctx, id)
	found := err == nil
	if err != nil && !errors.Is(err, adminrepo.ErrNotFound) {
		return Actor{}, err
	}
	if domain.IsAdmin(id, marker, found) {
		actor := Actor{ID: id, Role: domain.RoleAdmin, Approved: true}
		_, err := s.repo.Get(ctx, id)
		switch {
		case err == nil:
			actor.Provisioned = true
		case !errors.Is(err, accountrepo.ErrNotFound):
			return Actor{}, err
		}
		return actor, nil
	}
	if found {
		s.log.Warn("malformed admin marker ignored", zap.String("accountId", string(id)))
	}

	actor := Actor{ID: id, Role: domain.RoleAccount}
	a, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		actor.Provisioned = true
		actor.Approved = a.Approved
	case !errors.Is(err, accountrepo.ErrNotFound):
		return Actor{}, err
	}
	return actor, nil
}

// Authorize checks whether actor may use target at the given access level. Admins may use
// any account; everyone else only their own, and only once approved to manage it.
func (s *Service) Authorize(actor Actor, target domain.AccountID, access Access) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.Provisioned {
		return &Error{Status: 401, Code: "ACCOUNT_NOT_PROVISIONED", Message: "no account exists for the authenticated subject"}
	}
	if actor.ID != target {
		return forbidden("accounts may only be accessed by their owner or an administrator")
	}
	if access == AccessManage && !actor.Approved {
		return &Error{Status: 403, Code: "ACCOUNT_NOT_APPROVED", Message: "account is awaiting administrator approval"}
	}
	return nil
}

func (s *Service) RequireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return forbidden("administrator access required")
	}
	return nil
}

// SignUp creates an unapproved account keyed by the caller's subject.
func (s *Service) SignUp(ctx context.Context, subject domain.SubjectID, in SignUpInput) (domain.Account, error) {
	id := domain.AccountID(subject)
	if !domain.ValidAccountID(id) {
		return domain.Account{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid account id",
			Details: map[string]any{"accountId": "must be 1-128 letters, digits, '_' or '-'"},
		}
	}

	form := in.AccountProfileForm.Normalized()
	errs := validation.ValidateAccountProfileForm(form)
	if !in.AgreedToTerms {
		errs["agreedToTerms"] = "You must agree to the Privacy Policy and Terms & Conditions"
	}
	switch {
	case strings.TrimSpace(in.AuthorizationCode) == "":
		errs["authorizationCode"] = "Authorization code is required"
	case !s.gate.Matches(in.AuthorizationCode):
		s.log.Warn("sign-up rejected: wrong authorization code", zap.String("accountId", string(id)))
		errs["authorizationCode"] = "Invalid authorization code"
	}
	if !errs.OK() {
		return domain.Account{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid sign-up", Details: errs.Details()}
	}

	now := s.clk.Now()
	a := domain.Account{
		ID:        id,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		ClubName:  form.ClubName,
		Approved:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, accountrepo.ErrAlreadyExists) {
			return domain.Account{}, &Error{Status: 409, Code: "ACCOUNT_ALREADY_EXISTS", Message: "an account already exists for the authenticated subject"}
		}
		return domain.Account{}, &roster.StoreError{Op: "create account", Err: err}
	}
	s.log.Info("account signed up", zap.String("accountId", string(id)))
	return a, nil
}

func (s *Service) GetAccount(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return domain.Account{}, notFound(id)
		}
		return domain.Account{}, &roster.StoreError{Op: "get account", Err: err}
	}
	return a.BackfillStudentIDs(), nil
}

func (s *Service) UpdateProfile(ctx context.Context, id domain.AccountID, in UpdateProfileInput) (domain.Account, error) {
	nullErrs := map[string]any{}
	for name, f := range map[string]Optional[string]{
		"firstName":    in.FirstName,
		"lastName":     in.LastName,
		"emailAddress": in.Email,
		"clubName":     in.ClubName,
	} {
		if f.IsNull() {
			nullErrs[name] = "cannot be null"
		}
	}
	if len(nullErrs) > 0 {
		return domain.Account{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid profile", Details: nullErrs}
	}

	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	form := validation.AccountProfileForm{FirstName: a.FirstName, LastName: a.LastName, Email: a.Email, ClubName: a.ClubName}
	if in.FirstName.IsSpecified() {
		form.FirstName = in.FirstName.Value()
	}
	if in.LastName.IsSpecified() {
		form.LastName = in.LastName.Value()
	}
	if in.Email.IsSpecified() {
		form.Email = in.Email.Value()
	}
	if in.ClubName.IsSpecified() {
		form.ClubName = in.ClubName.Value()
	}
	form = form.Normalized()
	if errs := validation.ValidateAccountProfileForm(form); !errs.OK() {
		return domain.Account{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid profile", Details: errs.Details()}
	}

	a.FirstName, a.LastName, a.Email, a.ClubName = form.FirstName, form.LastName, form.Email, form.ClubName
	a.UpdatedAt = s.clk.Now()
	if err := s.repo.Put(ctx, a); err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return domain.Account{}, notFound(id)
		}
		return domain.Account{}, &roster.StoreError{Op: "put account", Err: err}
	}
	return a, nil
}

// SetApproval updates only the approval flag so concurrent roster edits are not overwritten.
func (s *Service) SetApproval(ctx context.Context, id domain.AccountID, approved bool) (domain.Account, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	now := s.clk.Now()
	if err := s.repo.SetApproved(ctx, id, approved, now); err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return domain.Account{}, notFound(id)
		}
		return domain.Account{}, &roster.StoreError{Op: "set approval", Err: err}
	}
	s.log.Info("account approval changed", zap.String("accountId", string(id)), zap.Bool("approved", approved))
	return roster.SetApproval(a, approved, now), nil
}

// DeleteAccount removes the account and, with it, every student and grade it owns.
func (s *Service) DeleteAccount(ctx context.Context, id domain.AccountID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return notFound(id)
		}
		return &roster.StoreError{Op: "delete account", Err: err}
	}
	s.log.Info("account deleted", zap.String("accountId", string(id)))
	return nil
}

// ListAccounts returns accounts sorted by full name. A non-empty query keeps accounts whose
// full name, email or club contains it, ignoring case.
func (s *Service) ListAccounts(ctx context.Context, query string) ([]domain.Account, error) {
	all, err := s.repo.List(ctx, s.ListLimit)
	if err != nil {
		return nil, &roster.StoreError{Op: "list accounts", Err: err}
	}

	fold := cases.Fold()
	q := fold.String(domain.NormalizeHumanName(query))
	out := make([]domain.Account, 0, len(all))
	for _, a := range all {
		if q == "" ||
			strings.Contains(fold.String(a.FullName()), q) ||
			strings.Contains(fold.String(a.Email), q) ||
			strings.Contains(fold.String(a.ClubName), q) {
			out = append(out, a.BackfillStudentIDs())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := fold.String(out[i].FullName()), fold.String(out[j].FullName())
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return out, nil
}

func notFound(id domain.AccountID) *Error {
	return &Error{
		Status:  404,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
		Details: map[string]any{"accountId": string(id)},
	}
}
