package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testClientID = "client-123.apps.googleusercontent.com"

type oidcFixture struct {
	srv *httptest.Server
	key *rsa.PrivateKey
	kid string
}

func newOIDCFixture(t *testing.T) *oidcFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	f := &oidcFixture{key: key, kid: "test-kid"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   "https://accounts.google.com",
			"jwks_uri": f.srv.URL + "/certs",
		})
	})
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": f.kid,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *oidcFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = f.kid
	s, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func baseGoogleClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"sub":            "10987654321",
		"email":          "owner@mickelsenfarms.com",
		"email_verified": true,
		"name":           "Farm Owner",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func TestGoogleVerifierAcceptsValidToken(t *testing.T) {
	f := newOIDCFixture(t)
	v, err := newGoogleVerifier(f.srv.Client(), f.srv.URL+"/.well-known/openid-configuration", testClientID)
	if err != nil {
		t.Fatalf("newGoogleVerifier: %v", err)
	}

	id, err := v.VerifyIDToken(context.Background(), f.sign(t, baseGoogleClaims()))
	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	if id.Subject != "10987654321" || id.Email != "owner@mickelsenfarms.com" || !id.EmailVerified {
		t.Fatalf("identity: unexpected %+v", id)
	}
}

func TestGoogleVerifierRejections(t *testing.T) {
	f := newOIDCFixture(t)
	v, err := newGoogleVerifier(f.srv.Client(), f.srv.URL+"/.well-known/openid-configuration", testClientID)
	if err != nil {
		t.Fatalf("newGoogleVerifier: %v", err)
	}

	mutate := map[string]func(jwt.MapClaims){
		"wrong audience": func(c jwt.MapClaims) { c["aud"] = "someone-else" },
		"wrong issuer":   func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" },
		"expired":        func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() },
		"missing sub":    func(c jwt.MapClaims) { delete(c, "sub") },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			claims := baseGoogleClaims()
			fn(claims)
			if _, err := v.VerifyIDToken(context.Background(), f.sign(t, claims)); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, baseGoogleClaims())
	hs.Header["kid"] = f.kid
	signed, _ := hs.SignedString([]byte("shared"))
	if _, err := v.VerifyIDToken(context.Background(), signed); err == nil {
		t.Fatalf("expected HS256 token to be rejected")
	}
}

func TestGoogleVerifierUnknownKid(t *testing.T) {
	f := newOIDCFixture(t)
	v, err := newGoogleVerifier(f.srv.Client(), f.srv.URL+"/.well-known/openid-configuration", testClientID)
	if err != nil {
		t.Fatalf("newGoogleVerifier: %v", err)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, baseGoogleClaims())
	tok.Header["kid"] = "rotated-away"
	signed, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	_, err = v.VerifyIDToken(context.Background(), signed)
	if err == nil || !strings.Contains(err.Error(), "kid not found") {
		t.Fatalf("want kid not found error, got %v", err)
	}
}

func TestNewGoogleVerifierRequiresClientID(t *testing.T) {
	if _, err := NewGoogleVerifier(nil, " "); err == nil {
		t.Fatalf("expected error for empty client id")
	}
}

func TestGoogleVerifierAcceptsStringEmailVerified(t *testing.T) {
	f := newOIDCFixture(t)
	v, err := newGoogleVerifier(f.srv.Client(), f.srv.URL+"/.well-known/openid-configuration", testClientID)
	if err != nil {
		t.Fatalf("newGoogleVerifier: %v", err)
	}
	claims := baseGoogleClaims()
	claims["email_verified"] = "true"
	claims["iss"] = "accounts.google.com"
	id, err := v.VerifyIDToken(context.Background(), f.sign(t, claims))
	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	if !id.EmailVerified {
		t.Fatalf("email_verified: want=true got=false")
	}
}
