package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"order-desk-backend/internal/config"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

const (
	UserIDKey      = "user_id"
	IdentityKey    = "identity"
	AccessTokenKey = "access_token"
	SessionKey     = "session"
)

// Claims is the subset of a Supabase access token the API reads.
type Claims struct {
	Email            string                 `json:"email"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
	EmailVerified    *bool                  `json:"email_verified,omitempty"`
	EmailConfirmedAt interface{}            `json:"email_confirmed_at,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the caller identity.
func (c *Claims) Identity() (services.Identity, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return services.Identity{}, errors.New("token subject is not a user id")
	}

	identity := services.Identity{
		UserID: id,
		Email:  c.Email,
	}
	if name, ok := c.UserMetadata["full_name"].(string); ok {
		identity.FullName = name
	}

	// Older tokens carry the flag in user_metadata only.
	switch {
	case c.EmailVerified != nil:
		identity.EmailVerified = *c.EmailVerified
	default:
		if v, ok := c.UserMetadata["email_verified"].(bool); ok {
			identity.EmailVerified = v
		}
	}
	if !identity.EmailVerified {
		identity.EmailVerified = confirmed(c.EmailConfirmedAt) || confirmed(c.UserMetadata["email_confirmed_at"])
	}
	return identity, nil
}

// confirmed reports whether an email_confirmed_at claim holds a timestamp.
func confirmed(v interface{}) bool {
	switch at := v.(type) {
	case nil:
		return false
	case string:
		return at != ""
	default:
		return true
	}
}

func abort(c *gin.Context, status int, err, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: err, Message: message})
}

// AuthMiddleware verifies the bearer token against the Supabase JWT secret
// and stores the caller identity in the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if cfg.SupabaseJWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.SupabaseJWTSecret), nil
		})
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token", tokenErrorMessage(err))
			return
		}

		identity, err := claims.Identity()
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token claims", err.Error())
			return
		}

		c.Set(UserIDKey, identity.UserID.String())
		c.Set(IdentityKey, identity)
		c.Set(AccessTokenKey, tokenString)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// EventSource cannot set headers; the stream accepts the token as a
		// query parameter instead.
		if token := c.Query("access_token"); token != "" && strings.HasSuffix(c.FullPath(), "/stream") {
			return token, true
		}
		abort(c, http.StatusUnauthorized, "missing authorization header", "")
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		abort(c, http.StatusUnauthorized, "invalid authorization header format", "")
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		abort(c, http.StatusUnauthorized, "empty token", "")
		return "", false
	}
	return token, true
}

func tokenErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token has expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "token signature is invalid - check JWT secret"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed - ensure you're using a valid Supabase JWT token"
	default:
		return err.Error()
	}
}

// SessionResolver maps an identity to its application profile.
type SessionResolver interface {
	Resolve(ctx context.Context, identity services.Identity) (*services.Session, error)
}

// SessionMiddleware resolves the caller's profile. It must run after
// AuthMiddleware.
func SessionMiddleware(resolver SessionResolver, requireVerified bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(IdentityKey)
		identity, ok := value.(services.Identity)
		if !exists || !ok {
			abort(c, http.StatusUnauthorized, "user id not found", "")
			return
		}

		if requireVerified && !identity.EmailVerified {
			abort(c, http.StatusForbidden, "email not verified", "confirm your email address before using the API")
			return
		}

		session, err := resolver.Resolve(c.Request.Context(), identity)
		if err != nil {
			abort(c, http.StatusBadGateway, "failed to load profile", err.Error())
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// RequireRole rejects callers whose profile role is not one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFrom(c)
		if session == nil || session.Profile == nil {
			abort(c, http.StatusUnauthorized, "no session", "")
			return
		}
		for _, role := range roles {
			if session.Profile.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden", "your role cannot perform this action")
	}
}

func SessionFrom(c *gin.Context) *services.Session {
	value, exists := c.Get(SessionKey)
	if !exists {
		return nil
	}
	session, _ := value.(*services.Session)
	return session
}

func AccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}
