package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/response"
)

// RevocationChecker reports whether a token ID has been logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RejectRevokedTokens stops requests carrying a token that was logged out.
// Must run after RequireUserJWT or RequireWSAuth. A Redis failure lets the request through.
func RejectRevokedTokens(checker RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		revoked, err := checker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("Revocation check failed, allowing request")
			c.Next()
			return
		}
		if revoked {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRevoked)
			return
		}

		c.Next()
	}
}
