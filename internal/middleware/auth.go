package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"identity-service/internal/logger"
	"identity-service/internal/usecase/user"
	appErrors "identity-service/pkg/errors"
	"identity-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AuthContextKey = "auth"

	AccessTokenHeader  = "accesstoken"
	RefreshTokenHeader = "refreshtoken"
)

// Authenticator resolves request credentials into an authenticated context.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken, refreshToken string) (*user.AuthenticatedContext, error)
}

// AuthMiddleware guards a route group. The access token comes from
// "Authorization: Bearer <token>" or the accesstoken header; the optional
// refresh token from the refreshtoken header.
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, ok := bearerToken(c)
		if !ok {
			utils.ErrorResponseWithCode(c, http.StatusUnauthorized, appErrors.CodeUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}
		if accessToken == "" {
			accessToken = strings.TrimSpace(c.GetHeader(AccessTokenHeader))
		}
		refreshToken := strings.TrimSpace(c.GetHeader(RefreshTokenHeader))

		auth, err := authenticator.Authenticate(c.Request.Context(), accessToken, refreshToken)
		if err != nil {
			if !errors.Is(err, appErrors.ErrUnauthorized) {
				logger.Error("Authentication failed",
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
				utils.ErrorResponseWithCode(c, http.StatusInternalServerError, appErrors.CodeInternal, "Internal server error")
				c.Abort()
				return
			}
			utils.ErrorResponseWithCode(c, http.StatusUnauthorized, appErrors.CodeUnauthorized, appErrors.ErrUnauthorized.Error())
			c.Abort()
			return
		}

		c.Set(AuthContextKey, auth)
		c.Next()
	}
}

// bearerToken returns the token of an Authorization header. A missing header
// yields "", true; a malformed one yields "", false.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// GetAuthContext returns the value stored by AuthMiddleware for this request.
func GetAuthContext(c *gin.Context) (*user.AuthenticatedContext, bool) {
	value, exists := c.Get(AuthContextKey)
	if !exists {
		return nil, false
	}
	auth, ok := value.(*user.AuthenticatedContext)
	return auth, ok && auth != nil
}
