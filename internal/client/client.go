// Package client is the Go counterpart of the browser app's auth layer:
// it seals credentials into envelopes, holds the issued session token and
// keeps the local notion of "signed in" consistent with server-side
// revocation via the Monitor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/exitboard/exitboard/internal/crypto"
	"github.com/exitboard/exitboard/internal/model"
)

var (
	// ErrSessionInvalid is the confirmed verdict: the server answered the
	// check and the session is gone (revoked, expired, deactivated or the
	// account no longer exists).  Unlike transport errors it must never be
	// retried; the caller logs out immediately.
	ErrSessionInvalid = errors.New("session no longer valid")

	// ErrNotSignedIn is returned when an operation needs a held token and
	// there is none.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrRequestFailed wraps non-auth server errors.
	ErrRequestFailed = errors.New("request failed")
)

// Client talks to the ExitBoard API.
type Client struct {
	baseURL string
	http    *http.Client
	key     []byte
	store   TokenStore
}

// New builds a Client.  The envelope key must come from the same
// DeriveKey inputs the server uses, otherwise every envelope round trip
// fails as a decryption error.
func New(baseURL string, key []byte, store TokenStore) *Client {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		key:     key,
		store:   store,
	}
}

// Store exposes the token store (the Monitor purges it on forced logout).
func (c *Client) Store() TokenStore { return c.store }

type signupPayload struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password crypto.Envelope `json:"password"`
	Company  string          `json:"company,omitempty"`
	Title    string          `json:"title,omitempty"`
}
type signinPayload struct {
	Email    string          `json:"email"`
	Password crypto.Envelope `json:"password"`
}

// AuthResult is the decoded {user, token} pair both auth endpoints yield.
type AuthResult struct {
	User  model.PublicUser `json:"user"`
	Token struct {
		Token   string    `json:"token"`
		Expires time.Time `json:"expires"`
	} `json:"token"`
}

// SignUp registers an account.  The password travels only inside an
// envelope; the response is plain JSON.
func (c *Client) SignUp(ctx context.Context, name, email, password, company, title string) (AuthResult, error) {
	sealed, err := crypto.Seal(password, c.key)
	if err != nil {
		return AuthResult{}, err
	}
	body := signupPayload{Name: name, Email: email, Password: sealed, Company: company, Title: title}

	resp, err := c.post(ctx, "/v1/auth/signup", body)
	if err != nil {
		return AuthResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return AuthResult{}, apiError(resp)
	}
	var out AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return AuthResult{}, fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	c.store.Save(out.Token.Token, out.User)
	return out, nil
}

// SignIn authenticates and opens the encrypted {user, token} response.
func (c *Client) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	sealed, err := crypto.Seal(password, c.key)
	if err != nil {
		return AuthResult{}, err
	}

	resp, err := c.post(ctx, "/v1/auth/signin", signinPayload{Email: email, Password: sealed})
	if err != nil {
		return AuthResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AuthResult{}, apiError(resp)
	}
	var env crypto.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return AuthResult{}, fmt.Errorf("%w: decode envelope: %v", ErrRequestFailed, err)
	}
	var out AuthResult
	if err := crypto.Open(env, c.key, &out); err != nil {
		return AuthResult{}, err
	}
	c.store.Save(out.Token.Token, out.User)
	return out, nil
}

// SessionCheck asks the server whether the held session is still valid.
// nil means active.  ErrSessionInvalid means the server confirmed the
// session is dead.  Any other error is inconclusive (network trouble,
// timeout, 5xx) and the caller should simply try again later.
func (c *Client) SessionCheck(ctx context.Context) error {
	token, _, ok := c.store.Load()
	if !ok {
		return ErrNotSignedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/auth/session", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrSessionInvalid
	default:
		return fmt.Errorf("%w: session check returned %d", ErrRequestFailed, resp.StatusCode)
	}
}

// Authed performs an authenticated API request, decoding a JSON response
// into out when out is non-nil.  A session verdict (401, or the 403 the
// gate answers for a deactivated account) is reported as
// ErrSessionInvalid, which makes every protected call double as a
// liveness check: the Monitor can observe the result instead of issuing
// a separate poll.  Any other 403 is an authorization refusal — a role
// gate or an ownership check saying no to this one operation — and the
// session itself is still fine.
func (c *Client) Authed(ctx context.Context, method, path string, body, out any) error {
	token, _, ok := c.store.Load()
	if !ok {
		return ErrNotSignedIn
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body)
		return ErrSessionInvalid
	case resp.StatusCode == http.StatusForbidden:
		var reply struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&reply)
		// The gate's deactivated-account answer is the only 403 that means
		// the session is dead; every other 403 refuses one operation.
		if reply.Error == "account deactivated" {
			return ErrSessionInvalid
		}
		if reply.Error != "" {
			return fmt.Errorf("%w: %s (status %d)", ErrRequestFailed, reply.Error, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	case resp.StatusCode >= 400:
		return apiError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return nil
}

// SignOut drops all local state.  Voluntary logout is purely client side;
// the token simply stops being presented and eventually expires.
func (c *Client) SignOut() { c.store.Clear() }

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// apiError turns a non-success response into an error carrying the
// server's error string when one is present.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "" {
		return fmt.Errorf("%w: %s (status %d)", ErrRequestFailed, body.Error, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
}
