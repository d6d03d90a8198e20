package v1handler

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"sitescope/internal/config"
	"sitescope/pkg/domain"
	"sitescope/pkg/logger"
	"sitescope/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyTier
)

// Claims is the token payload minted by the jwt command: the subject is the
// user ID and the tier claim carries the billing tier at mint time.
type Claims struct {
	jwt.RegisteredClaims

	Tier string `json:"tier"`
}

// SecHandlerOptions configures request authentication.
type SecHandlerOptions struct {
	// PublicKey is the PEM-encoded RSA public key tokens are verified against.
	PublicKey string
	// AgentToken is the shared secret the crawl agent presents on ingestion calls.
	AgentToken string
}

// NewSecHandlerOptions constructs SecHandlerOptions from the application config.
func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{
		PublicKey:  cfg.JWT.PublicKey,
		AgentToken: cfg.Crawler.AgentToken,
	}
}

// SecHandler authenticates customer and agent requests.
type SecHandler struct {
	publicKey  *rsa.PublicKey
	agentToken string
}

// NewSecHandler parses the configured public key and returns a SecHandler.
func NewSecHandler(options *SecHandlerOptions) (*SecHandler, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(options.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	return &SecHandler{
		publicKey:  key,
		agentToken: options.AgentToken,
	}, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", serrors.With(serrors.ErrUnauthorized, "missing authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", serrors.With(serrors.ErrUnauthorized, "authorization header is not a bearer token")
	}

	return token, nil
}

// RequireUser verifies the caller's JWT and stashes the user ID and tier
// claim in the request context.
func (s *SecHandler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Code:    serrors.ErrUnauthorized.Error(),
				Message: err.Error(),
			})

			return
		}

		var claims Claims
		if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.publicKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()})); err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Code:    serrors.ErrUnauthorized.Error(),
				Message: "invalid token",
			})

			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Code:    serrors.ErrUnauthorized.Error(),
				Message: "invalid subject",
			})

			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, domain.UserID(userID))
		ctx = context.WithValue(ctx, ctxKeyTier, claims.Tier)
		ctx = logger.WithFields(ctx, zap.String("userId", claims.Subject))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAgent verifies the crawl agent's shared secret on ingestion routes.
func (s *SecHandler) RequireAgent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil || subtle.ConstantTimeCompare([]byte(raw), []byte(s.agentToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Code:    serrors.ErrUnauthorized.Error(),
				Message: "invalid agent token",
			})

			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext returns the authenticated user's ID. The zero value is
// only possible on routes that skipped RequireUser.
func GetUserIDFromContext(ctx context.Context) domain.UserID {
	if id, ok := ctx.Value(ctxKeyUserID).(domain.UserID); ok {
		return id
	}

	return domain.UserID{}
}

// GetTierFromContext returns the raw tier claim of the authenticated user.
func GetTierFromContext(ctx context.Context) string {
	if tier, ok := ctx.Value(ctxKeyTier).(string); ok {
		return tier
	}

	return ""
}
