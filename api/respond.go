package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpupo63/devfolio-backend/errs"
	"github.com/rs/zerolog"
)

// Envelope is the body of every resource response. Failures never carry Data.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, status int, body any) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// WriteData writes a successful envelope around data.
func (r Responder) WriteData(w http.ResponseWriter, status int, data any, message string) {
	r.WriteJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// WriteList writes a successful envelope around a collection and its size.
func (r Responder) WriteList(w http.ResponseWriter, data any, count int) {
	r.WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.WriteJSON(w, http.StatusInternalServerError, Envelope{Message: "Internal server error"})
		return
	}

	body := Envelope{Message: apiErr.Summary()}
	if apiErr.StatusCode >= http.StatusInternalServerError {
		// the cause stays in the log
		r.logger.Error().Str("error", apiErr.GetFullError()).Int("status", apiErr.StatusCode).Msg("request failed")
	} else {
		body.Error = apiErr.Details
	}

	r.WriteJSON(w, apiErr.StatusCode, body)
}
