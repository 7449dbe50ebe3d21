package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hakobgh/socialmedia/auth"
	"github.com/hakobgh/socialmedia/utils"
)

const (
	// ContextUID is the gin context key carrying the authenticated user's uid.
	ContextUID = "sub"
	// ContextToken carries the raw access token, needed by the handlers that
	// talk back to the auth provider (sign out, account deletion).
	ContextToken = "token"
)

// JWT fetches the access token from the "token" header (falling back to the
// query string for websocket clients), validates it against the auth provider
// and stores the resolved uid in the request context. It aborts with 401 on a
// missing or invalid token.
func JWT(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("token")
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorTokenAuthFail,
				"msg":  "empty access token",
			})
			c.Abort()
			return
		}

		uid, err := provider.UserFromToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": utils.ErrorTokenAuthFail,
				"msg":  err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(ContextUID, uid)
		c.Set(ContextToken, token)

		// before request
		c.Next()
	}
}
