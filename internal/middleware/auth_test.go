package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

type userFinderFunc func(ctx context.Context, id string) (*model.User, error)

func (f userFinderFunc) FindByID(ctx context.Context, id string) (*model.User, error) {
	return f(ctx, id)
}

func TestAuthenticate(t *testing.T) {
	payee := &model.User{ID: "u-1", Role: model.RolePayee}
	finder := userFinderFunc(func(_ context.Context, id string) (*model.User, error) {
		switch id {
		case payee.ID:
			return payee, nil
		case "broken":
			return nil, errors.New("connection refused")
		}
		return nil, repository.ErrNotFound
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Authenticate(finder))

	var seen *model.User
	router.GET("/me", func(c *gin.Context) {
		seen = CurrentUser(c)
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"known user", "u-1", http.StatusNoContent},
		{"padded id", "  u-1 ", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"unknown user", "u-2", http.StatusUnauthorized},
		{"store failure", "broken", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(UserIDHeader, tc.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, payee, seen)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}
