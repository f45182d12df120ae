package utils

import (
	"chefbazar/globals"
	"net/http"
)

// GetEmailFromRequest returns the verified email set by the auth guard.
func GetEmailFromRequest(r *http.Request) string {
	email, ok := r.Context().Value(globals.EmailKey).(string)
	if !ok {
		return ""
	}
	return email
}
