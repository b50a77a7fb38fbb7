package adminrepo

import (
	"context"
	"errors"

	"github.com/lilrhino/dojopal-api/internal/domain"
)

// ErrNotFound indicates no admin marker is stored under the id.
var ErrNotFound = errors.New("admin marker not found")

// Repository reads admin trust markers. Markers are provisioned out of band; the API never
// writes them.
type Repository interface {
	Get(ctx context.Context, id domain.AccountID) (domain.AdminMarker, error)
}
