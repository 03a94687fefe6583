// Package auth turns the Authorization header of a request into the user
// identity that keys conversation state.
package auth

import (
	"context"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingToken = errors.New("authorization header required")
	ErrInvalidToken = errors.New("invalid authorization token")
)

// TestUserID is the identity used when authentication is disabled.
const TestUserID = "test-user"

type Identity struct {
	UserID   string
	Username string
}

type Resolver interface {
	Resolve(ctx context.Context, authorization string) (Identity, error)
}

// AnonymousResolver ignores the header and returns a fixed identity.
type AnonymousResolver struct{}

func (AnonymousResolver) Resolve(context.Context, string) (Identity, error) {
	return Identity{UserID: TestUserID, Username: TestUserID}, nil
}

// JWKSResolver validates RS256 bearer tokens against a JWKS endpoint.
type JWKSResolver struct {
	keyfunc jwt.Keyfunc
}

// NewJWKSResolver fetches the key set from url and keeps it refreshed in
// the background until ctx is done.
func NewJWKSResolver(ctx context.Context, url string) (*JWKSResolver, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, errors.Wrap(err, "load jwks")
	}
	return &JWKSResolver{keyfunc: k.Keyfunc}, nil
}

func NewKeyfuncResolver(kf jwt.Keyfunc) *JWKSResolver {
	return &JWKSResolver{keyfunc: kf}
}

func (r *JWKSResolver) Resolve(_ context.Context, authorization string) (Identity, error) {
	raw := strings.TrimSpace(authorization)
	if raw == "" {
		return Identity{}, ErrMissingToken
	}
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return Identity{}, errors.Wrap(ErrInvalidToken, "expected bearer token")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, r.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil || !parsed.Valid {
		log.Debug().Err(err).Msg("token validation failed")
		return Identity{}, errors.Wrap(ErrInvalidToken, "token validation failed")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, errors.Wrap(ErrInvalidToken, "token has no subject")
	}
	username, _ := claims["username"].(string)
	if username == "" {
		username, _ = claims["cognito:username"].(string)
	}
	return Identity{UserID: sub, Username: username}, nil
}

// NewResolver picks the testing-mode resolver when auth is disabled, the
// JWKS URL is unset or points at localhost.
func NewResolver(ctx context.Context, jwksURL string, disabled bool) (Resolver, error) {
	switch {
	case disabled:
		log.Warn().Msg("authentication disabled, all requests use the test identity")
		return AnonymousResolver{}, nil
	case jwksURL == "":
		log.Error().Msg("COGNITO_JWKS_URL is not set, all requests use the test identity; set DISABLE_AUTH=1 if this is intended")
		return AnonymousResolver{}, nil
	case strings.Contains(jwksURL, "localhost"):
		log.Warn().Str("jwks_url", jwksURL).Msg("local JWKS URL, all requests use the test identity")
		return AnonymousResolver{}, nil
	}
	return NewJWKSResolver(ctx, jwksURL)
}
