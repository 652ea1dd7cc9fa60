package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/internal/handler"
	"github.com/jwalitptl/records-api/pkg/security"
)

const HeaderRegistrarKey = "X-Registrar-Key"

// RegistrarKey gates administrative registration routes behind a shared API
// key checked against a bcrypt hash. The policy service still verifies the
// caller principal; this only hardens the transport surface.
func RegistrarKey(verifier security.SecretVerifier, keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderRegistrarKey)
		if key == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing registrar key"))
			c.Abort()
			return
		}

		if err := verifier.Compare(keyHash, key); err != nil {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("invalid registrar key"))
			c.Abort()
			return
		}
		c.Next()
	}
}
