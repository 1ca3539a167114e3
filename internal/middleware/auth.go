package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

// UserIDHeader carries the authenticated user id. The API gateway in front
// of this service sets it after verifying the session.
const UserIDHeader = "X-User-ID"

const userContextKey = "currentUser"

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

func Authenticate(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unknown user"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by Authenticate, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
