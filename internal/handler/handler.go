package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"stockapi/internal/middleware"
	"stockapi/internal/model"
	"stockapi/internal/validation"

	"github.com/rs/zerolog"
)

// maxJSONBodyBytes caps the size of JSON request bodies.
const maxJSONBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a standardised error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string][]string, logger zerolog.Logger) {
	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", code).Int("status", status).Str("path", r.URL.Path).Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		Errors:        fields,
		CorrelationID: r.Header.Get(middleware.RequestIDHeader),
	})
}

// writeServiceError maps a service error onto an HTTP response. Validation
// and conflict errors use validationStatus, which differs per resource.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, validationStatus int, logger zerolog.Logger) {
	de, ok := model.AsError(err)
	if !ok {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected service error")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "Internal server error", nil, logger)
		return
	}

	switch de.Kind {
	case model.KindValidation, model.KindConflict:
		writeError(w, r, validationStatus, model.ErrCodeValidation, de.Message, de.Fields, logger)
	case model.KindNotFound:
		writeError(w, r, http.StatusNotFound, de.Code, de.Message, nil, logger)
	case model.KindAuthentication:
		writeError(w, r, http.StatusUnauthorized, de.Code, de.Message, nil, logger)
	default:
		logger.Error().Err(err).Str("kind", string(de.Kind)).Msg("unmapped domain error")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "Internal server error", nil, logger)
	}
}

// decodeJSON decodes the request body into dst. An empty body decodes to the
// zero value so the validation rules report the missing fields. Type
// mismatches become validation errors; anything else is a malformed body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	if converted := validation.FromDecodeError(err); model.IsKind(converted, model.KindValidation) {
		return converted
	}
	return errMalformedBody
}

var errMalformedBody = errors.New("malformed request body")

// writeDecodeError renders the result of decodeJSON.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, status int, logger zerolog.Logger) {
	if errors.Is(err, errMalformedBody) {
		writeError(w, r, status, model.ErrCodeInvalidJSON, "The request body is malformed.", nil, logger)
		return
	}
	writeServiceError(w, r, err, status, logger)
}

// pathID parses the {id} path value. Anything that is not a positive integer
// is reported as not found.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
