package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lilrhino/dojopal-api/internal/app/roster"
	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/ports/out/idempotency"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

// handlerResult is a successful response body and its status.
type handlerResult struct {
	status int
	body   any
}

// respondOnce runs handle and writes its result. With an Idempotency-Key header the
// response is stored against caller, key, path and the hash of canon (the normalized
// request): a retry with the same payload is replayed, a reused key with a different
// payload is rejected with 409. Failures are never stored.
func (s *Server) respondOnce(w http.ResponseWriter, r *http.Request, canon any, handle func() (handlerResult, error)) {
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" || s.Idem == nil {
		res, err := handle()
		if err != nil {
			writeAppError(w, r, s.log, err)
			return
		}
		writeJSON(w, res.status, res.body)
		return
	}

	ctx := r.Context()
	bodyHash, err := hashCanonical(canon)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	sub, _ := SubjectFromContext(ctx)
	metaFP := idempotency.Fingerprint{
		Key:     idempotency.Key(key),
		Subject: domain.SubjectID(sub),
		Method:  r.Method,
		Route:   r.URL.Path,
	}
	meta, ok, err := s.Idem.Get(ctx, metaFP)
	if err != nil {
		writeAppError(w, r, s.log, &roster.StoreError{Op: "get idempotency record", Err: err})
		return
	}
	if ok && string(meta.Body) != bodyHash {
		writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
		return
	}
	if !ok {
		if err := s.Idem.Put(ctx, metaFP, idempotency.Record{
			ContentType: "text/plain",
			Body:        []byte(bodyHash),
			CreatedAt:   s.clk.Now().UTC(),
		}); err != nil {
			s.log.Warn("idempotency meta record not stored", zap.Error(err))
		}
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	if rec, ok, err := s.Idem.Get(ctx, respFP); err != nil {
		writeAppError(w, r, s.log, &roster.StoreError{Op: "get idempotency record", Err: err})
		return
	} else if ok && rec.StatusCode >= 200 && rec.StatusCode < 300 {
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	}

	res, err := handle()
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	b, err := json.Marshal(res.body)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	b = append(b, '\n')
	if err := s.Idem.Put(ctx, respFP, idempotency.Record{
		StatusCode:  res.status,
		ContentType: "application/json",
		Body:        b,
		CreatedAt:   s.clk.Now().UTC(),
	}); err != nil {
		s.log.Warn("idempotency response not stored", zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.status)
	_, _ = w.Write(b)
}

func hashCanonical(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
