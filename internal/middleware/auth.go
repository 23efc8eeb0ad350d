package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/exitboard/exitboard/internal/model"
	"github.com/exitboard/exitboard/internal/repository"
	"github.com/exitboard/exitboard/internal/utils"
)

// TokenCookieName is the cookie the session token is mirrored into for
// flows that cannot attach an Authorization header.  Its lifetime matches
// the token's.
const TokenCookieName = "exitboard_token"

// UserLoader is the slice of the user repository the session gate needs.
// Declared here so the gate can be tested without a database.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Internal failure reasons.  They drive logging and metrics only; the
// client always receives one of two generic responses so nothing about
// account state can be probed through this endpoint.
const (
	reasonMissingToken   = "missing_token"
	reasonInvalidToken   = "invalid_token"
	reasonTokenExpired   = "token_expired"
	reasonUserNotFound   = "user_not_found"
	reasonDeactivated    = "account_deactivated"
	reasonInvalidated    = "session_invalidated"
)

// SessionGate returns an Echo middleware that runs the full session check
// on every request it wraps:
//
//  1. signature/structure check on the bearer token
//  2. expiry check
//  3. load the referenced user
//  4. reject if the account is deactivated
//  5. reject if the token was issued before the user's invalidation
//     watermark
//
// Nothing is cached between requests.  Status and watermark can be changed
// by an admin at any moment, and the whole point of the watermark design
// is that revocation takes effect on the very next request.  Handlers
// access the authenticated user via c.Get("user") / c.Get("user_id") /
// c.Get("role").
func SessionGate(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return signInAgain(c, reasonMissingToken, "")
			}

			claims, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return signInAgain(c, reasonTokenExpired, "")
				}
				return signInAgain(c, reasonInvalidToken, "")
			}

			u, err := users.GetByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return signInAgain(c, reasonUserNotFound, claims.UserID)
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session check failed"})
			}

			if u.Status == model.StatusDeactivated {
				slog.Warn("session rejected", "reason", reasonDeactivated, "user_id", u.ID)
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
			}

			// The token's iat has one-second granularity while the watermark
			// keeps sub-second precision, so a token minted within the same
			// second as a force-logout can compare as issued-before and be
			// rejected.  That errs toward revocation; the holder just signs
			// in again and gets a newer iat.
			if u.InvalidatedSince != nil && claims.IssuedAt.Before(*u.InvalidatedSince) {
				return signInAgain(c, reasonInvalidated, u.ID)
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}

// bearerToken extracts the session token from the Authorization header,
// falling back to the mirrored cookie.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if ck, err := c.Cookie(TokenCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// signInAgain logs the internal reason and answers with the one generic
// 401 body used for every non-deactivation failure.
func signInAgain(c echo.Context, reason, userID string) error {
	if userID != "" {
		slog.Warn("session rejected", "reason", reason, "user_id", userID)
	} else {
		slog.Warn("session rejected", "reason", reason)
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "please sign in again"})
}
