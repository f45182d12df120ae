package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"message": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

// RespondWithErr maps err onto the error taxonomy and writes it. Unknown
// errors are logged and reported as 500 with a generic message.
func RespondWithErr(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		logrus.WithError(err).Error(fallback)
		RespondWithError(w, status, fallback)
		return
	}
	RespondWithError(w, status, messageOf(err))
}

// messageOf strips the wrapping prefix chain down to what the caller sent
// or the sentinel text.
func messageOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

type M map[string]any
