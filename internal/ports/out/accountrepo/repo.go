package accountrepo

import (
	"context"
	"time"

	"github.com/lilrhino/dojopal-api/internal/domain"
)

// Repository persists whole account documents. Students and their grading history live
// inside the account document; there is no per-student storage.
//
// Writes are last-write-wins. Callers that read-modify-write accept lost updates between
// concurrent writers of the same account.
type Repository interface {
	Create(ctx context.Context, a domain.Account) error
	Get(ctx context.Context, id domain.AccountID) (domain.Account, error)

	// Put overwrites the whole document. Returns ErrNotFound when the account is gone.
	Put(ctx context.Context, a domain.Account) error

	// SetApproved updates only the approval flag and updatedAt.
	SetApproved(ctx context.Context, id domain.AccountID, approved bool, at time.Time) error

	Delete(ctx context.Context, id domain.AccountID) error

	// List returns at most limit accounts ordered by id.
	List(ctx context.Context, limit int) ([]domain.Account, error)
}
