package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// Message is the body returned for failed API calls.
type Message struct {
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": code}.
func WriteMessage(w http.ResponseWriter, status int, code string) {
	WriteJSON(w, status, Message{Message: code})
}

// StatusFor maps a domain error kind to an HTTP status.
func StatusFor(kind timeclock.Kind) int {
	switch kind {
	case timeclock.KindConflict:
		return http.StatusBadRequest
	case timeclock.KindNotFound, timeclock.KindIllegalTransition:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// DomainError reports err to the client. Domain errors become
// {"message": code} responses; anything else is logged and hidden behind a
// 500.
func DomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, message string) {
	var de *timeclock.Error
	if stderrors.As(err, &de) {
		logger.Debug(message, requestFields(r, zap.String("code", de.Code))...)
		WriteMessage(w, StatusFor(de.Kind), de.Code)
		return
	}
	InternalError(w, r, logger, err, message)
}

func InternalError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, message string) {
	logger.Error(message, requestFields(r, zap.Error(err))...)
	WriteMessage(w, http.StatusInternalServerError, "internal_error")
}

func BadRequestError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, code string) {
	logger.Debug("bad request", requestFields(r, zap.Error(err))...)
	WriteMessage(w, http.StatusBadRequest, code)
}

func requestFields(r *http.Request, fields ...zap.Field) []zap.Field {
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return append(fields, zap.String("path", r.URL.Path))
}
