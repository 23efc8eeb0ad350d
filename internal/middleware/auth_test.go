package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exitboard/exitboard/internal/model"
	"github.com/exitboard/exitboard/internal/repository"
	"github.com/exitboard/exitboard/internal/utils"
)

const gateSecret = "gate-test-secret"

// fakeLoader satisfies UserLoader from a map, standing in for the user
// repository.
type fakeLoader struct {
	users map[string]model.User
}

func (f *fakeLoader) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func runGate(t *testing.T, loader *fakeLoader, configure func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	configure(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	gate := SessionGate(gateSecret, loader)
	handler := gate(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get("user_id")})
	})
	require.NoError(t, handler(c))
	return rec
}

func bearer(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewSessionToken(gateSecret, userID, ttl)
	require.NoError(t, err)
	return tok.Token
}

func activeUser(id string) model.User {
	return model.User{ID: id, Email: id + "@example.com", Role: model.RoleUser, Status: model.StatusActive}
}

func TestSessionGate_ValidToken(t *testing.T) {
	loader := &fakeLoader{users: map[string]model.User{"u1": activeUser("u1")}}

	rec := runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+bearer(t, "u1", time.Hour))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"u1"`)
}

func TestSessionGate_CookieFallback(t *testing.T) {
	loader := &fakeLoader{users: map[string]model.User{"u1": activeUser("u1")}}

	rec := runGate(t, loader, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: bearer(t, "u1", time.Hour)})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionGate_MissingToken(t *testing.T) {
	loader := &fakeLoader{users: map[string]model.User{}}

	rec := runGate(t, loader, func(*http.Request) {})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "please sign in again")
}

func TestSessionGate_MalformedToken(t *testing.T) {
	loader := &fakeLoader{users: map[string]model.User{}}

	rec := runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionGate_ExpiredToken(t *testing.T) {
	loader := &fakeLoader{users: map[string]model.User{"u1": activeUser("u1")}}

	rec := runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+bearer(t, "u1", -time.Minute))
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionGate_UserDeleted(t *testing.T) {
	loader := &fakeLoader{users: map[string]model.User{}}

	rec := runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+bearer(t, "ghost", time.Hour))
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionGate_DeactivatedAccount(t *testing.T) {
	u := activeUser("u1")
	u.Status = model.StatusDeactivated
	loader := &fakeLoader{users: map[string]model.User{"u1": u}}

	rec := runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+bearer(t, "u1", time.Hour))
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// A token whose signature and expiry are still perfectly fine must die the
// moment the user's invalidation watermark passes its issue time.  This is
// the revocation property the whole subsystem exists for.
func TestSessionGate_WatermarkRevokesValidToken(t *testing.T) {
	u := activeUser("u1")
	loader := &fakeLoader{users: map[string]model.User{"u1": u}}
	token := bearer(t, "u1", time.Hour)

	// Before the force-logout the token authenticates.
	rec := runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Admin forces logout: watermark moves past the token's issue time.
	watermark := time.Now().UTC().Add(time.Second)
	u.InvalidatedSince = &watermark
	loader.users["u1"] = u

	rec = runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A token issued after the watermark (a fresh sign-in following a forced
// logout) must authenticate normally.
func TestSessionGate_TokenIssuedAfterWatermark(t *testing.T) {
	u := activeUser("u1")
	watermark := time.Now().UTC().Add(-time.Minute)
	u.InvalidatedSince = &watermark
	loader := &fakeLoader{users: map[string]model.User{"u1": u}}

	rec := runGate(t, loader, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+bearer(t, "u1", time.Hour))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}
