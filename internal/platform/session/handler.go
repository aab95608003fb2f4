package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/records/pkg/result"
)

// LayoutData is what a protected page receives from the guard.
type LayoutData struct {
	Session *Session `json:"session"`
	User    *User    `json:"user"`
}

type Handler struct {
	cookies *CookieResolver
}

// NewHandler returns the session endpoints. cookies may be nil, in which case
// sign-in and sign-out are not mounted.
func NewHandler(cookies *CookieResolver) *Handler {
	return &Handler{cookies: cookies}
}

// RegisterRoutes mounts sign-in and sign-out on public and the layout
// endpoint on the guarded group.
func (h *Handler) RegisterRoutes(public *echo.Group, protected *echo.Group) {
	if h.cookies != nil {
		public.POST("/session", h.SignIn)
		public.POST("/logout", h.SignOut)
	}
	protected.GET("/session", h.Layout)
}

type signInRequest struct {
	AccessToken string `json:"access_token"`
}

func (h *Handler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil || req.AccessToken == "" {
		return c.JSON(http.StatusBadRequest, result.Fail[any](result.FaultInvalid, "access_token is required"))
	}
	sess, user, err := h.cookies.Establish(c, req.AccessToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, result.Fail[any](result.FaultUnauthorized, "invalid access token"))
	}
	return c.JSON(http.StatusOK, result.OK(LayoutData{Session: sess, User: user}))
}

func (h *Handler) SignOut(c echo.Context) error {
	if err := h.cookies.Clear(c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear session")
	}
	return c.NoContent(http.StatusNoContent)
}

// Layout returns the session and user attached by Guard.
func (h *Handler) Layout(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, result.OK(LayoutData{Session: FromContext(ctx), User: UserFromContext(ctx)}))
}
