package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// profileKey is the gin context key holding the caller's verified profile.
const profileKey = "profile"

// authMiddleware verifies the bearer token and loads the caller's profile.
// A missing or bad token is a 401; a verified token whose uid has no profile,
// or whose profile is deactivated, is a 403 with a distinct code. The role on
// the stored profile is the only role the request ever sees.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("Authorization")
		if tokenStr == "" {
			SendError(c, http.StatusUnauthorized, CodeMissingToken, "Authentication required",
				"Please provide a valid authorization token in the request header", nil)
			c.Abort()
			return
		}
		tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

		uid, err := s.verifier.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			SendError(c, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token",
				"The provided token is invalid, expired, or malformed. Please login again", nil)
			c.Abort()
			return
		}

		profile, err := s.store.GetUserProfile(c.Request.Context(), uid)
		if err != nil {
			SendError(c, http.StatusForbidden, CodeProfileNotFound, "No employee profile",
				"Your account has no employee profile. Please contact an administrator", nil)
			c.Abort()
			return
		}
		if !profile.IsActive {
			SendError(c, http.StatusForbidden, CodeAccountInactive, "Account deactivated",
				"Your account has been deactivated. Please contact an administrator", nil)
			c.Abort()
			return
		}

		c.Set(profileKey, profile)
		c.Next()
	}
}

// currentProfile returns the verified profile set by authMiddleware.
func currentProfile(c *gin.Context) *model.UserProfile {
	return c.MustGet(profileKey).(*model.UserProfile)
}

// scopeFor derives the caller's row-level scope from the verified profile.
func scopeFor(c *gin.Context) scope.Scope {
	p := currentProfile(c)
	return scope.For(p.Role, p.UID)
}

// requireManager rejects callers below manager class.
func (s *Server) requireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !scope.IsManager(currentProfile(c).Role) {
			SendError(c, http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions",
				"This resource requires a SystemAdmin or BranchManager role", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAdmin rejects everyone but SystemAdmin.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !scope.IsAdmin(currentProfile(c).Role) {
			SendError(c, http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions",
				"This resource requires the SystemAdmin role", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}

// CORSMiddleware allows browser clients on other origins to reach the API.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin, Cache-Control")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
