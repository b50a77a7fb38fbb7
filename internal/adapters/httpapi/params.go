package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// maxBodyBytes bounds request bodies; a full student form is well under 8 KiB.
const maxBodyBytes = 64 << 10

// meAlias in the accountId position addresses the caller's own account.
const meAlias = "me"

func bindPathParam(r *http.Request, name string, dest any) error {
	return runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
}

func studentIDParam(w http.ResponseWriter, r *http.Request) (openapi_types.UUID, bool) {
	var id openapi_types.UUID
	if err := bindPathParam(r, "studentId", &id); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid path parameter",
			map[string]any{"studentId": "must be a UUID"})
		return openapi_types.UUID{}, false
	}
	return id, true
}

// decodeBody reads a JSON body into dst, answering 422 itself when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "request body must be a JSON object"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "request body too large"
		}
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, map[string]any{"body": err.Error()})
		return false
	}
	return true
}
