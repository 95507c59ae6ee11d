package middleware

import (
	"context"
	"strings"

	"github.com/Ranjel272/POSBF/internal/apierror"
	"github.com/Ranjel272/POSBF/internal/model"
	"github.com/Ranjel272/POSBF/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	IdentityKey = "identity"
)

// Verifier resolves a bearer token to a live identity.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (*service.Identity, error)
}

// Authenticate validates the Bearer token on every protected route. The
// verifier re-reads the account, so a disabled account fails here even with
// a token that has not expired.
func Authenticate(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abort(c, apierror.Unauthenticated("Authentication required"))
			return
		}

		ident, err := v.Verify(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(IdentityKey, ident)
		c.Next()
	}
}

// RequireRole rejects requests whose verified role is not in the allowed
// list. A request that reached it without Authenticate is treated as
// unauthenticated.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.Authorize(GetIdentity(c), roles...); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// GetIdentity is a helper to retrieve the verified identity from the Gin
// context. Returns nil when the request was not authenticated.
func GetIdentity(c *gin.Context) *service.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*service.Identity)
	return ident
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apierror.Status(err), apierror.Response(err))
}
