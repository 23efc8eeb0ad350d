package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/exitboard/exitboard/internal/config"
	"github.com/exitboard/exitboard/internal/crypto"
	"github.com/exitboard/exitboard/internal/middleware"
	"github.com/exitboard/exitboard/internal/model"
	"github.com/exitboard/exitboard/internal/repository"
	"github.com/exitboard/exitboard/internal/utils"
)

// invalidCredentials is the one error string used for unknown email, wrong
// password and undecryptable password envelopes alike, so sign-in responses
// cannot be used to enumerate accounts.
const invalidCredentials = "Invalid credentials"

// AuthHandler bundles dependencies for the auth endpoints.  Key is the
// derived envelope key shared with clients; it is computed once at startup.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Key   []byte
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, key []byte) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Key: key}
}

// ----- DTOs -----

type signupReq struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password crypto.Envelope `json:"password"`
	Company  string          `json:"company"`
	Title    string          `json:"title"`
}
type signinReq struct {
	Email    string          `json:"email"`
	Password crypto.Envelope `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User  model.PublicUser `json:"user"`
	Token tokenPart        `json:"token"`
}

// Signup: create the user and return it with a freshly issued token.  The
// password arrives inside a credential envelope; the response itself is
// plain JSON.  A duplicate email gets the same generic error as any other
// failure so the endpoint does not confirm which addresses are registered.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var password string
	if err := crypto.Open(req.Password, h.Key, &password); err != nil {
		slog.Warn("signup: password envelope rejected", "err", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unable to create account"})
	}
	if req.Email == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, password, req.Company, req.Title, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Same body as other failures; existence of the email must not leak.
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unable to create account"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to create account"})
	}

	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, h.tokenTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to create account"})
	}
	h.setTokenCookie(c, tok)

	return c.JSON(http.StatusCreated, authResp{
		User:  u.Public(),
		Token: tokenPart{Token: tok.Token, Expires: tok.ExpiresAt},
	})
}

// Signin: verify credentials and return an envelope wrapping {user, token}.
// Unknown email, wrong password and an undecryptable envelope all produce
// the identical 401; a deactivated account is refused with 403 even when
// the credentials are correct.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var password string
	if err := crypto.Open(req.Password, h.Key, &password); err != nil {
		slog.Warn("signin: password envelope rejected", "err", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
	}
	if req.Email == "" || password == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign in failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
	}
	if u.Status == model.StatusDeactivated {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Account has been deactivated"})
	}

	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, h.tokenTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign in failed"})
	}

	sealed, err := crypto.Seal(authResp{
		User:  u.Public(),
		Token: tokenPart{Token: tok.Token, Expires: tok.ExpiresAt},
	}, h.Key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign in failed"})
	}
	h.setTokenCookie(c, tok)

	return c.JSON(http.StatusOK, sealed)
}

// Session: liveness probe for a held token.  By the time this handler runs
// the session gate has already re-checked signature, expiry, account
// status and the invalidation watermark, so all that is left is to say so.
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "active"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := c.Get("user").(model.User)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "please sign in again"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

type profileReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Title   string `json:"title"`
}

// UpdateProfile lets the authenticated user edit their own name, email,
// company and title.  Role, status and the invalidation watermark stay
// admin-only.  Unlike sign-up, a conflicting email is reported openly:
// the caller is already authenticated, so there is no enumeration surface
// to protect.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	var req profileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, req.Name, req.Email, strings.TrimSpace(req.Company), strings.TrimSpace(req.Title))
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// DeleteAccount removes the authenticated user's account together with
// every job posting they authored.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete account failed"})
	}
	h.clearTokenCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) tokenTTL() time.Duration {
	return time.Duration(h.Cfg.TokenTTLDays) * 24 * time.Hour
}

// setTokenCookie mirrors the token into a cookie with the token's own
// lifetime, for flows that cannot attach an Authorization header.
func (h *AuthHandler) setTokenCookie(c echo.Context, tok utils.SessionToken) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTokenCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
