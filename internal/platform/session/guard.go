package session

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// LoginRedirect returns the login URL that returns the visitor to u's path.
func LoginRedirect(u *url.URL) string {
	return LoginPath + "?redirectTo=" + u.EscapedPath()
}

// Guard protects a route group. Requests without a session are redirected to
// the login page with 303 See Other; authenticated requests continue with the
// session and user on the request context and under the "session" and "user"
// echo keys.
func Guard(resolver Resolver, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			sess, user, err := resolver.SafeGetSession(req)
			if err != nil {
				logger.Warn().Err(err).Str("path", req.URL.Path).Msg("session resolution failed")
				sess, user = nil, nil
			}
			if sess == nil {
				return c.Redirect(http.StatusSeeOther, LoginRedirect(req.URL))
			}
			if user == nil {
				user = sess.User
			}

			c.SetRequest(req.WithContext(WithSession(req.Context(), sess, user)))
			c.Set("session", sess)
			c.Set("user", user)
			return next(c)
		}
	}
}
