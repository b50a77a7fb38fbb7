package accounts

import (
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

// Optional separates an omitted PATCH field from an explicit null and from a value.
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// UpdateProfileInput patches the account holder's details. None of the fields may be null.
type UpdateProfileInput struct {
	FirstName Optional[string]
	LastName  Optional[string]
	Email     Optional[string]
	ClubName  Optional[string]
}

type SignUpInput struct {
	validation.AccountProfileForm
	AgreedToTerms     bool
	AuthorizationCode string
}

// Access is the level of access requested on an account.
type Access int

const (
	// AccessView allows reading the account, including while it awaits approval.
	AccessView Access = iota
	// AccessManage allows changing the account or its roster.
	AccessManage
)

// Actor is the resolved caller of a request.
type Actor struct {
	ID   domain.AccountID
	Role domain.Role

	// Provisioned is false when no account document exists for the caller.
	Provisioned bool
	Approved    bool
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }
