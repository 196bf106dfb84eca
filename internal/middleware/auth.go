package middleware

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/atlasworks/projectfeed/internal/identity"
	"github.com/atlasworks/projectfeed/internal/repository"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	authClient *auth.Client
	directory  repository.DirectoryRepository
}

func NewAuthMiddleware(ctx context.Context, directory repository.DirectoryRepository) (*AuthMiddleware, error) {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{authClient: client, directory: directory}, nil
}

// RequireActor verifies the bearer token and resolves the verified uid to a
// directory actor, stored under "actor" in the request context.
func (m *AuthMiddleware) RequireActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := m.authClient.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		actor, err := m.directory.ActorByAuthUID(c.Request().Context(), token.UID)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown_actor"})
		}
		c.Set("actor", actor)
		return next(c)
	}
}

func (m *AuthMiddleware) Client() *auth.Client {
	return m.authClient
}

// HeaderActor resolves the acting identity from plain headers. Used instead
// of RequireActor when Firebase is not configured, so local setups can pick
// an identity per request.
func HeaderActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idc := identity.Context{
			EmployeeID: headerID(c, "X-Employee-Id"),
			SalesRepID: headerID(c, "X-Sales-Rep-Id"),
			UserID:     headerID(c, "X-User-Id"),
		}
		if actor, err := identity.Resolve(idc); err == nil {
			c.Set("actor", actor)
		}
		return next(c)
	}
}

func headerID(c echo.Context, name string) uint64 {
	v, _ := strconv.ParseUint(c.Request().Header.Get(name), 10, 64)
	return v
}
