package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chefbazar/globals"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

// Request builds a request carrying body (a string is sent as-is, anything
// else JSON encoded) and, when email is non-empty, an authenticated caller.
func Request(t *testing.T, method, target, email string, body any) *http.Request {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req = req.WithContext(context.WithValue(req.Context(), globals.EmailKey, email))
	}
	return req
}

// Serve runs h and returns the recorded response.
func Serve(h httprouter.Handle, req *http.Request, ps ...httprouter.Param) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req, httprouter.Params(ps))
	return rec
}

// Param is shorthand for a route parameter.
func Param(key, value string) httprouter.Param {
	return httprouter.Param{Key: key, Value: value}
}

// Decode unmarshals a recorded JSON body into T.
func Decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
