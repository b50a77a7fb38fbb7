package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/accountrepo"
	clockport "github.com/lilrhino/dojopal-api/internal/ports/out/clock"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

const DefaultExaminer = "Bo Channon"

type Service struct {
	repo accountrepo.Repository
	clk  clockport.Clock
	log  *zap.Logger

	newStudentID func() domain.StudentID

	// DefaultExaminer is recorded on promotions that do not name an examiner.
	DefaultExaminer string
}

func NewService(repo accountrepo.Repository, clk clockport.Clock, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo: repo,
		clk:  clk,
		log:  log.Named("roster"),
		newStudentID: func() domain.StudentID {
			return domain.StudentID(uuid.NewString())
		},
		DefaultExaminer: DefaultExaminer,
	}
}

func (s *Service) ListStudents(ctx context.Context, id domain.AccountID) ([]domain.Student, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Students, nil
}

func (s *Service) GetStudent(ctx context.Context, id domain.AccountID, sel Selector) (domain.Student, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return domain.Student{}, err
	}
	i, err := sel.resolve(a.Students)
	if err != nil {
		return domain.Student{}, err
	}
	return a.Students[i], nil
}

func (s *Service) AddStudent(ctx context.Context, id domain.AccountID, f validation.StudentForm) (domain.Student, error) {
	f = f.Normalized()
	if errs := validation.ValidateStudentForm(f); !errs.OK() {
		return domain.Student{}, validationError(errs)
	}
	sid := s.newStudentID()
	next, err := s.mutate(ctx, id, func(a domain.Account) (domain.Account, error) {
		if n, _ := ByKey(domain.StudentKey{FirstName: f.FirstName, LastName: f.LastName, Email: f.Email}).count(a.Students); n > 0 {
			s.log.Warn("student with the same name and email already exists",
				zap.String("accountId", string(id)), zap.Int("existing", n))
		}
		return AddStudent(a, f, sid, s.clk.Now())
	})
	if err != nil {
		return domain.Student{}, err
	}
	return next.Students[len(next.Students)-1], nil
}

func (s *Service) EditStudent(ctx context.Context, id domain.AccountID, sel Selector, f validation.StudentEditForm) (domain.Student, error) {
	f = f.Normalized()
	if errs := validation.ValidateStudentEditForm(f); !errs.OK() {
		return domain.Student{}, validationError(errs)
	}
	return s.mutateStudent(ctx, id, sel, func(a domain.Account, sel Selector) (domain.Account, error) {
		return EditStudent(a, sel, f)
	})
}

// DeleteStudent removes the first matching student. A selector that matches nothing is not
// an error.
func (s *Service) DeleteStudent(ctx context.Context, id domain.AccountID, sel Selector) error {
	_, err := s.mutate(ctx, id, func(a domain.Account) (domain.Account, error) {
		out, n := DeleteStudent(a, sel)
		switch {
		case n == 0:
			s.log.Info("delete matched no student", zap.String("accountId", string(id)), zap.Any("selector", sel.details()))
			return a, errUnchanged
		case n > 1:
			s.log.Warn("delete matched several students; removed the first",
				zap.String("accountId", string(id)), zap.Any("selector", sel.details()), zap.Int("matches", n))
		}
		return out, nil
	})
	return err
}

func (s *Service) AddGrade(ctx context.Context, id domain.AccountID, sel Selector, f validation.GradeForm) (domain.Student, error) {
	f = f.Normalized()
	if errs := validation.ValidateGradeForm(f); !errs.OK() {
		return domain.Student{}, validationError(errs)
	}
	return s.mutateStudent(ctx, id, sel, func(a domain.Account, sel Selector) (domain.Account, error) {
		return AddGrade(a, sel, f, s.clk.Now())
	})
}

func (s *Service) PromoteStudent(ctx context.Context, id domain.AccountID, sel Selector, in PromoteInput) (domain.Student, error) {
	return s.mutateStudent(ctx, id, sel, func(a domain.Account, sel Selector) (domain.Account, error) {
		return PromoteStudent(a, sel, in, s.clk.Now(), s.DefaultExaminer)
	})
}

// RenewLicense applies f, or a one-year license from today when both dates are empty.
func (s *Service) RenewLicense(ctx context.Context, id domain.AccountID, sel Selector, f validation.RenewalForm) (domain.Student, error) {
	f = f.Normalized()
	if f.LicDate == "" && f.LicExpDate == "" {
		f = DefaultRenewal(clockport.Today(s.clk))
	}
	if errs := validation.ValidateRenewalForm(f); !errs.OK() {
		return domain.Student{}, validationError(errs)
	}
	return s.mutateStudent(ctx, id, sel, func(a domain.Account, sel Selector) (domain.Account, error) {
		return RenewLicense(a, sel, f)
	})
}

func (s *Service) SubmitLicenseApplication(ctx context.Context, id domain.AccountID, sel Selector, f validation.LicenseApplicationForm) (domain.Student, error) {
	f = f.Normalized()
	if errs := validation.ValidateLicenseApplicationForm(f); !errs.OK() {
		return domain.Student{}, validationError(errs)
	}
	return s.mutateStudent(ctx, id, sel, func(a domain.Account, sel Selector) (domain.Account, error) {
		return SubmitLicenseApplication(a, sel, f)
	})
}

// load fetches the account with legacy student ids filled in.
func (s *Service) load(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return domain.Account{}, accountNotFound(id)
		}
		return domain.Account{}, &StoreError{Op: "get account", Err: err}
	}
	return a.BackfillStudentIDs(), nil
}

// errUnchanged tells mutate that fn left the account as it was, so nothing is written.
var errUnchanged = errors.New("account unchanged")

// mutate re-reads the account, applies fn and overwrites the whole document. Concurrent
// writers to the same account race; the last write wins.
func (s *Service) mutate(ctx context.Context, id domain.AccountID, fn func(domain.Account) (domain.Account, error)) (domain.Account, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	next, err := fn(a)
	if errors.Is(err, errUnchanged) {
		return a, nil
	}
	if err != nil {
		return domain.Account{}, err
	}
	next.UpdatedAt = s.clk.Now()
	if err := s.repo.Put(ctx, next); err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			return domain.Account{}, accountNotFound(id)
		}
		return domain.Account{}, &StoreError{Op: "put account", Err: err}
	}
	return next, nil
}

// mutateStudent pins sel to the student's id before applying op so the result can be found
// even when op changes the student's name or email.
func (s *Service) mutateStudent(ctx context.Context, id domain.AccountID, sel Selector, op func(domain.Account, Selector) (domain.Account, error)) (domain.Student, error) {
	var pinned Selector
	next, err := s.mutate(ctx, id, func(a domain.Account) (domain.Account, error) {
		i, err := sel.resolve(a.Students)
		if err != nil {
			if ae := (*Error)(nil); errors.As(err, &ae) && ae.Code == "STUDENT_KEY_AMBIGUOUS" {
				s.log.Warn("ambiguous student selector", zap.String("accountId", string(id)), zap.Any("selector", sel.details()))
			}
			return a, err
		}
		pinned = ByID(a.Students[i].ID)
		return op(a, pinned)
	})
	if err != nil {
		return domain.Student{}, err
	}
	i, err := pinned.resolve(next.Students)
	if err != nil {
		return domain.Student{}, err
	}
	return next.Students[i], nil
}
