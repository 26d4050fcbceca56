package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/auth"
	"github.com/pavitra93/dealer-management-api/shared/metrics"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

const principalKey = "principal"

// AuthMiddleware resolves bearer tokens into principals
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	log      logrus.FieldLogger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier auth.TokenVerifier, log logrus.FieldLogger) *AuthMiddleware {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthMiddleware{verifier: verifier, log: log}
}

// RequireAuth validates the bearer token and attaches the principal to the
// gin context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			metrics.RecordDenied("missing_token")
			utils.HandleError(c, utils.Unauthorized("Not authorized, token missing"))
			return
		}

		principal, err := am.verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.WithFields(logrus.Fields{
				"path":  c.FullPath(),
				"error": err.Error(),
			}).Debug("Token rejected")
			metrics.RecordDenied("invalid_token")
			utils.HandleError(c, utils.Unauthorized("Not authorized, token invalid"))
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRole allows the request only for the given roles. It must run after
// RequireAuth; a missing principal is rejected as well.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			metrics.RecordDenied("no_principal")
			utils.HandleError(c, utils.Forbidden("Insufficient permissions"))
			return
		}
		if _, ok := allowed[principal.Role]; !ok {
			metrics.RecordDenied("role")
			utils.HandleError(c, utils.Forbidden("Insufficient permissions"))
			return
		}
		c.Next()
	}
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SetPrincipal attaches a resolved principal to the request
func SetPrincipal(c *gin.Context, p *models.Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the principal resolved by RequireAuth
func GetPrincipal(c *gin.Context) (*models.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok && p != nil
}
