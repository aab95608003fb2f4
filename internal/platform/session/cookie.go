package session

import (
	"crypto/sha256"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const tokenKey = "access_token"

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secret string
	MaxAge int
	Secure bool
}

// deriveKey stretches the configured secret to a 32-byte key, salted per purpose.
func deriveKey(secret, purpose string) []byte {
	sum := sha256.Sum256([]byte(secret + purpose))
	return sum[:]
}

// NewCookieStore returns an authenticated and encrypted cookie store.
func NewCookieStore(opts CookieOptions) *sessions.CookieStore {
	store := sessions.NewCookieStore(deriveKey(opts.Secret, "auth"), deriveKey(opts.Secret, "encryption"))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CookieResolver keeps the access token in a session cookie and verifies it
// on every request. An Authorization bearer header is honoured as well so API
// clients do not need the cookie.
type CookieResolver struct {
	store    sessions.Store
	name     string
	verifier *Verifier
	logger   zerolog.Logger
}

func NewCookieResolver(store sessions.Store, name string, verifier *Verifier, logger zerolog.Logger) *CookieResolver {
	return &CookieResolver{store: store, name: name, verifier: verifier, logger: logger}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// SafeGetSession returns the verified session, or nothing when the request
// carries no token or the token fails verification. Only a cookie that cannot
// be decoded is reported as an error.
func (cr *CookieResolver) SafeGetSession(r *http.Request) (*Session, *User, error) {
	token := bearerToken(r)
	if token == "" {
		sess, err := cr.store.Get(r, cr.name)
		if err != nil {
			return nil, nil, err
		}
		token, _ = sess.Values[tokenKey].(string)
	}
	if token == "" {
		return nil, nil, nil
	}

	s, u, err := cr.verifier.Verify(token)
	if err != nil {
		cr.logger.Debug().Err(err).Msg("discarding unverifiable session token")
		return nil, nil, nil
	}
	return s, u, nil
}

// Establish verifies token and stores it in the session cookie.
func (cr *CookieResolver) Establish(c echo.Context, token string) (*Session, *User, error) {
	s, u, err := cr.verifier.Verify(token)
	if err != nil {
		return nil, nil, err
	}
	sess, _ := cr.store.Get(c.Request(), cr.name)
	sess.Values[tokenKey] = token
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return nil, nil, err
	}
	return s, u, nil
}

// Clear expires the session cookie.
func (cr *CookieResolver) Clear(c echo.Context) error {
	sess, _ := cr.store.Get(c.Request(), cr.name)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
