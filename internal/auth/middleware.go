package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"caterrides-core/internal/config"
)

type contextKey string

const identityKey contextKey = "identity"

// Verifier turns a raw bearer token into a caller identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

type hmacAdapter struct {
	inner *HMACVerifier
}

func (a hmacAdapter) Verify(_ context.Context, rawToken string) (*Identity, error) {
	return a.inner.Verify(rawToken)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v oidcVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Sub  string `json:"sub"`
		Role string `json:"role"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	return &Identity{Subject: claims.Sub, Role: claims.Role}, nil
}

// NewVerifier picks OIDC verification when an issuer is configured and falls
// back to shared-secret JWT verification otherwise.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (Verifier, error) {
	if cfg.OIDCIssuer != "" {
		provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}
		return oidcVerifier{verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true})}, nil
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("neither OIDC_ISSUER nor JWT_SECRET is configured")
	}
	return hmacAdapter{inner: NewHMACVerifier(cfg.JWTSecret)}, nil
}

// Middleware authenticates the bearer token and requires the given role.
func Middleware(verifier Verifier, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
				return
			}

			if identity.Role != role {
				http.Error(w, fmt.Sprintf("%s token required", role), http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Caller extracts the authenticated identity in handlers.
func Caller(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		return id
	}
	return nil
}
