package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "local-chef-bazar"

type certServer struct {
	*httptest.Server
	key  *rsa.PrivateKey
	hits atomic.Int32
}

func newCertServer(t *testing.T) *certServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	cs := &certServer{key: key}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.hits.Add(1)
		w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
		_ = json.NewEncoder(w).Encode(map[string]string{"k1": string(certPEM)})
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *certServer) sign(t *testing.T, kid string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(cs.key)
	require.NoError(t, err)
	return s
}

func validClaims() Claims {
	now := time.Now()
	return Claims{
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProject,
			Audience:  jwt.ClaimStrings{testProject},
			Subject:   "uid-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	cs := newCertServer(t)
	v := NewFirebaseVerifier(testProject, WithCertsURL(cs.URL))

	email, err := v.Verify(context.Background(), cs.sign(t, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestVerifyReusesKeysUntilMaxAge(t *testing.T) {
	cs := newCertServer(t)
	v := NewFirebaseVerifier(testProject, WithCertsURL(cs.URL))
	token := cs.sign(t, "k1", validClaims())

	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, cs.hits.Load())
}

func TestVerifyRejects(t *testing.T) {
	cs := newCertServer(t)
	v := NewFirebaseVerifier(testProject, WithCertsURL(cs.URL))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other-project"}

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://example.com"

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noEmail := validClaims()
	noEmail.Email = ""

	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"wrong audience": cs.sign(t, "k1", wrongAudience),
		"wrong issuer":   cs.sign(t, "k1", wrongIssuer),
		"expired":        cs.sign(t, "k1", expired),
		"no email":       cs.sign(t, "k1", noEmail),
		"no subject":     cs.sign(t, "k1", noSubject),
		"unknown kid":    cs.sign(t, "k9", validClaims()),
		"garbage":        "not-a-jwt",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsHS256(t *testing.T) {
	cs := newCertServer(t)
	v := NewFirebaseVerifier(testProject, WithCertsURL(cs.URL))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	tok.Header["kid"] = "k1"
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeServiceAccount(t *testing.T) {
	raw := `{"type":"service_account","project_id":"local-chef-bazar","client_email":"svc@local-chef-bazar.iam.gserviceaccount.com"}`
	sa, err := DecodeServiceAccount(base64.StdEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)
	assert.Equal(t, "local-chef-bazar", sa.ProjectID)

	_, err = DecodeServiceAccount("%%%")
	assert.Error(t, err)

	_, err = DecodeServiceAccount(base64.StdEncoding.EncodeToString([]byte(`{}`)))
	assert.Error(t, err)
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 600*time.Second, maxAge("public, max-age=600, must-revalidate"))
	assert.Equal(t, defaultKeyTTL, maxAge("no-cache"))
	assert.Equal(t, defaultKeyTTL, maxAge(""))
}
