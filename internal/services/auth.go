package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/ctxutil"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

const (
	sessionIssuer   = "mickelsen-farms"
	ProviderSession = "session"
	ProviderGoogle  = "google"
)

type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthService interface {
	// SetContextFromToken verifies a bearer token and attaches the caller
	// identity, admin flag included, to the returned context.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	ExchangeGoogleCredential(ctx context.Context, credential string) (*Session, error)
	IssueSessionToken(subject, email string) (*Session, error)
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	policy       *AdminPolicy
	google       GoogleVerifier
	jwtSecretKey []byte
	sessionTTL   time.Duration
	now          func() time.Time
}

// NewAuthService builds the token layer. google may be nil, in which case
// only locally issued session tokens are accepted.
func NewAuthService(
	log *logger.Logger,
	policy *AdminPolicy,
	google GoogleVerifier,
	jwtSecretKey string,
	sessionTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &authService{
		log:          serviceLog,
		policy:       policy,
		google:       google,
		jwtSecretKey: []byte(jwtSecretKey),
		sessionTTL:   sessionTTL,
		now:          time.Now,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing or invalid token")
	}

	subject, email, sessionErr := as.parseSessionToken(tokenString)
	provider := ProviderSession
	if sessionErr != nil {
		if as.google == nil {
			as.log.Debug("Session token rejected", "error", sessionErr)
			return ctx, apierr.Unauthorized("missing or invalid token")
		}
		id, gErr := as.google.VerifyIDToken(ctx, tokenString)
		if gErr != nil {
			as.log.Debug("Token rejected", "session_error", sessionErr, "google_error", gErr)
			return ctx, apierr.Unauthorized("missing or invalid token")
		}
		if !id.EmailVerified {
			return ctx, apierr.Unauthorized("email not verified")
		}
		subject, email, provider = id.Subject, id.Email, ProviderGoogle
	}

	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		Subject:     subject,
		Email:       normalizeEmail(email),
		Provider:    provider,
		IsAdmin:     as.policy.IsAdmin(email),
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) ExchangeGoogleCredential(ctx context.Context, credential string) (*Session, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, apierr.BadRequest("credential is required")
	}
	if as.google == nil {
		return nil, apierr.Upstream("google sign-in", errors.New("not configured"))
	}
	id, err := as.google.VerifyIDToken(ctx, credential)
	if err != nil {
		as.log.Warn("Google credential rejected", "error", err)
		return nil, apierr.Unauthorized("invalid google credential")
	}
	if !id.EmailVerified {
		return nil, apierr.Unauthorized("email not verified")
	}
	session, err := as.IssueSessionToken(id.Subject, id.Email)
	if err != nil {
		return nil, err
	}
	as.log.Info("Session issued", "email", session.Email, "is_admin", session.IsAdmin)
	return session, nil
}

func (as *authService) IssueSessionToken(subject, email string) (*Session, error) {
	if len(as.jwtSecretKey) == 0 {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, errors.New("JWT_SECRET_KEY is not configured"))
	}
	now := as.now().UTC()
	expiresAt := now.Add(as.sessionTTL)
	claims := sessionClaims{
		Email: normalizeEmail(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecretKey)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &Session{
		Token:     signed,
		Email:     claims.Email,
		IsAdmin:   as.policy.IsAdmin(claims.Email),
		ExpiresAt: expiresAt,
	}, nil
}

func (as *authService) parseSessionToken(tokenString string) (string, string, error) {
	if len(as.jwtSecretKey) == 0 {
		return "", "", errors.New("session tokens disabled")
	}
	claims := &sessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	)
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return as.jwtSecretKey, nil
	})
	if err != nil {
		return "", "", err
	}
	if !tok.Valid || strings.TrimSpace(claims.Email) == "" {
		return "", "", errors.New("invalid session token")
	}
	return claims.Subject, claims.Email, nil
}

// requireAdmin is the service-side half of the admin policy: the identity
// must be present and flagged admin by the auth middleware.
func requireAdmin(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return apierr.Unauthorized("authentication required")
	}
	if !rd.IsAdmin {
		return apierr.Forbidden("admin privileges required")
	}
	return nil
}
