// Package idempotency describes storage for replayable POST responses.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/lilrhino/dojopal-api/internal/domain"
)

// Key is the client-chosen Idempotency-Key header value.
type Key string

// Fingerprint names one stored response: a caller's key on one method and path, plus the
// hash of the normalized request. The record with an empty BodyHash is the key's metadata;
// its Body is the hash of the first request seen with that key.
type Fingerprint struct {
	Key      Key
	Subject  domain.SubjectID
	Method   string
	Route    string
	BodyHash string
}

// Digest folds fp and scope into a fixed-length hex id for stores that index by one column
// or key. scope separates callers that share subject names, such as two token issuers.
func (fp Fingerprint) Digest(scope string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		scope, string(fp.Key), string(fp.Subject), fp.Method, fp.Route, fp.BodyHash,
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Record is a stored response, replayed byte for byte.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store keeps records by fingerprint. Put replaces whatever the fingerprint held.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
