package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
)

// maxBodyBytes bounds request bodies; problem images dominate.
const maxBodyBytes = 10 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.GetCode(err)
	msg := apperr.UserMessage(err)
	if code == "" {
		code = apperr.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "err", err)
		if code == apperr.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func notFound(format string, args ...any) error {
	return apperr.New(apperr.ErrCodeNotFound, format, args...)
}
