package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

const defaultCookieName = "vd_session"

func (s SessionCookie) name() string {
	if s.Name == "" {
		return defaultCookieName
	}
	return s.Name
}

// Set writes token to the response with the given expiry.
func (s SessionCookie) Set(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     s.name(),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie in the browser.
func (s SessionCookie) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token reads the session token from the cookie, falling back to an
// Authorization: Bearer header. fromCookie reports where it was found.
func (s SessionCookie) Token(req *http.Request) (token string, fromCookie bool) {
	if ck, err := req.Cookie(s.name()); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return bearerToken(req), false
}

// rewrite replaces the session cookie on the inbound request so handlers
// reading the cookie observe the refreshed token.
func (s SessionCookie) rewrite(req *http.Request, token string) {
	cookies := req.Cookies()
	req.Header.Del("Cookie")
	found := false
	for _, ck := range cookies {
		if ck.Name == s.name() {
			ck.Value = token
			found = true
		}
		req.AddCookie(ck)
	}
	if !found {
		req.AddCookie(&http.Cookie{Name: s.name(), Value: token})
	}
}
