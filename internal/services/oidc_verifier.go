package services

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	googleDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"
	googleKeysTTL      = 6 * time.Hour
	googleClockSkew    = 30 * time.Second
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var errUnknownSigningKey = errors.New("kid not found in google key set")

type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// googleClaims is the subset of a Google ID token the CMS reads.
type googleClaims struct {
	jwt.RegisteredClaims
	Email         string   `json:"email"`
	EmailVerified flagBool `json:"email_verified"`
	Name          string   `json:"name"`
}

// flagBool accepts true/false as either a JSON bool or a string.
type flagBool bool

func (b *flagBool) UnmarshalJSON(raw []byte) error {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	*b = flagBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

type googleVerifier struct {
	clientID string
	parser   *jwt.Parser
	keys     *googleKeySet
}

func NewGoogleVerifier(httpClient *http.Client, clientID string) (GoogleVerifier, error) {
	return newGoogleVerifier(httpClient, googleDiscoveryURL, clientID)
}

func newGoogleVerifier(httpClient *http.Client, discoveryURL, clientID string) (*googleVerifier, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("GOOGLE_OIDC_CLIENT_ID is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &googleVerifier{
		clientID: clientID,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(clientID),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(googleClockSkew),
		),
		keys: &googleKeySet{
			http:         httpClient,
			discoveryURL: discoveryURL,
			ttl:          googleKeysTTL,
		},
	}, nil
}

func (v *googleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("id_token is empty")
	}
	var claims googleClaims
	_, err := v.parser.ParseWithClaims(idToken, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("id_token header has no kid")
		}
		return v.keys.lookup(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid id_token: %w", err)
	}
	if !slices.Contains(googleIssuers, claims.Issuer) {
		return nil, fmt.Errorf("issuer mismatch: %q", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("id_token has no sub")
	}
	return &GoogleIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
	}, nil
}

// googleKeySet resolves the JWKS location through discovery on first use and
// caches the RSA keys by kid. A failed refresh keeps serving a known key.
type googleKeySet struct {
	http         *http.Client
	discoveryURL string
	ttl          time.Duration

	mu        sync.Mutex
	jwksURL   string
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func (s *googleKeySet) lookup(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[kid]
	if ok && time.Since(s.fetchedAt) < s.ttl {
		return key, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		if ok {
			return key, nil
		}
		return nil, err
	}
	if key, ok = s.keys[kid]; !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownSigningKey, kid)
	}
	return key, nil
}

func (s *googleKeySet) refreshLocked(ctx context.Context) error {
	if s.jwksURL == "" {
		var doc struct {
			JWKSURI string `json:"jwks_uri"`
		}
		if err := s.getJSON(ctx, s.discoveryURL, &doc); err != nil {
			return fmt.Errorf("oidc discovery: %w", err)
		}
		if strings.TrimSpace(doc.JWKSURI) == "" {
			return fmt.Errorf("oidc discovery: no jwks_uri")
		}
		s.jwksURL = doc.JWKSURI
	}

	var set struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := s.getJSON(ctx, s.jwksURL, &set); err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	next := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		if pub, err := decodeRSAKey(k.N, k.E); err == nil {
			next[k.Kid] = pub
		}
	}
	if len(next) == 0 {
		return fmt.Errorf("jwks has no usable RSA keys")
	}
	s.keys = next
	s.fetchedAt = time.Now()
	return nil
}

func (s *googleKeySet) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: %s", url, res.Status)
	}
	return json.NewDecoder(res.Body).Decode(dst)
}

func decodeRSAKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() <= 0 {
		return nil, fmt.Errorf("invalid rsa exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())}, nil
}
