package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/lilrhino/dojopal-api/internal/app/accounts"
	"github.com/lilrhino/dojopal-api/internal/app/roster"
)

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorResponse(r *http.Request, code string, message string, details map[string]any) ErrorResponse {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	return er
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, errorResponse(r, code, message, details))
}

// writeAppError maps service errors onto the envelope. Store failures surface as 500 with
// the store's message; anything unrecognized is logged and hidden.
func writeAppError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		ae *accounts.Error
		re *roster.Error
		se *roster.StoreError
	)
	switch {
	case errors.As(err, &ae):
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
	case errors.As(err, &re):
		writeError(w, r, re.Status, re.Code, re.Message, re.Details)
	case errors.As(err, &se):
		log.Error("document store failure", zap.String("op", se.Op), zap.Error(se.Err),
			zap.String("requestId", middleware.GetReqID(r.Context())))
		writeError(w, r, http.StatusInternalServerError, "STORE_ERROR", se.Error(), nil)
	default:
		log.Error("unhandled error", zap.Error(err), zap.String("requestId", middleware.GetReqID(r.Context())))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
