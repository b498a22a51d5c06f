// apps/go-server/internal/httpserver/errors.go
//
// Error normalization.
// Handlers have the signature func(w, r) error and are adapted with handle().
// Any returned error is mapped here to a status code and a {"error": msg} body:
//
//   store.ErrInvalidID      -> 400 "Malformatted id"
//   *store.ValidationError  -> 400 validation message
//   store.ErrDuplicateKey   -> 400 "Expected \"username\" to be unique"
//   token.ErrTokenInvalid   -> 401 "Token invalid"
//   token.ErrTokenExpired   -> 401 "Token expired"
//   *apiError               -> its own status and message
//   anything else           -> 500, logged

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
	"github.com/robalobadob/bloglist/apps/go-server/internal/token"
)

// apiError is a failure raised by a handler with a fixed status.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(msg string) error   { return &apiError{http.StatusBadRequest, msg} }
func unauthorized(msg string) error { return &apiError{http.StatusUnauthorized, msg} }
func forbidden(msg string) error    { return &apiError{http.StatusForbidden, msg} }
func notFound(msg string) error     { return &apiError{http.StatusNotFound, msg} }

type errorBody struct {
	Error string `json:"error"`
}

// handlerFunc is an http handler that reports failures by returning them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts h to http.HandlerFunc, routing any error to writeError.
func handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

// writeError is the single place that turns an error into a response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	logger := hlog.FromRequest(r)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// classify maps an error to its status code and public message.
func classify(err error) (int, string) {
	var apiErr *apiError
	var verr *store.ValidationError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.status, apiErr.msg
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, "Malformatted id"
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, store.ErrDuplicateKey):
		return http.StatusBadRequest, `Expected "username" to be unique`
	case errors.Is(err, token.ErrTokenInvalid):
		return http.StatusUnauthorized, "Token invalid"
	case errors.Is(err, token.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("malformed JSON body")
}
