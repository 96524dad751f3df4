// Package cookie owns the http-only credential cookie shared by the JSON API
// and the rendered pages.
package cookie

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const DefaultName = "token"

// Jar reads and writes the credential cookie.
type Jar struct {
	Name   string
	Secure bool
	now    func() time.Time
}

func NewJar(name string, secure bool) Jar {
	if name == "" {
		name = DefaultName
	}
	return Jar{Name: name, Secure: secure, now: time.Now}
}

// Read returns the raw token, or "" when the cookie is absent.
func (j Jar) Read(c echo.Context) string {
	ck, err := c.Cookie(j.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Set writes token so that the browser drops it at expiresAt.
func (j Jar) Set(c echo.Context, token string, expiresAt time.Time) {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	maxAge := int(expiresAt.Sub(now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetCookie(&http.Cookie{
		Name:     j.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie on the client.
func (j Jar) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     j.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
