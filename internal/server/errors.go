package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/hanscompark/castleblock/pkg/errors"
	"github.com/hanscompark/castleblock/pkg/store"
)

var errBodyTooLarge = apperrors.New(apperrors.ErrCodeInvalidInput, "request body too large")

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code apperrors.Code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  string(code),
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"INTERNAL_ERROR"}`))
		return
	}
	_, _ = w.Write(payload)
}

// fail maps err to a status and error body. Errors without a code are
// logged and reported as internal errors.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, apperrors.ErrCodeNotFound, "block not found")
		return
	}
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, apperrors.ErrCodeInvalidInput, apperrors.UserMessage(err))
		return
	}
	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, status, code, http.StatusText(status))
		return
	}
	writeError(w, status, code, apperrors.UserMessage(err))
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, apperrors.ErrCodeNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, apperrors.ErrCodeInvalidInput, "method not allowed")
}

func validPageID(next http.Handler) http.Handler {
	return validParam("pageID", apperrors.ValidatePageID, next)
}

func validBlockID(next http.Handler) http.Handler {
	return validParam("blockID", apperrors.ValidateBlockID, next)
}

func validParam(name string, check func(string) error, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := check(chi.URLParam(r, name)); err != nil {
			writeError(w, http.StatusBadRequest, apperrors.GetCode(err), apperrors.UserMessage(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}
