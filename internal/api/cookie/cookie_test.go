package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestJar_SetWritesHTTPOnlyLaxCookie(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jar := NewJar("", true)
	jar.now = func() time.Time { return now }
	jar.Set(c, "abc", now.Add(time.Hour))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != DefaultName || ck.Value != "abc" {
		t.Fatalf("unexpected cookie %s=%s", ck.Name, ck.Value)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attributes not set: %+v", ck)
	}
	if ck.MaxAge != 3600 {
		t.Fatalf("expected max-age 3600, got %d", ck.MaxAge)
	}
}

func TestJar_ClearExpiresCookie(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewJar("token", false).Clear(c)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("expected an expired empty cookie, got %+v", cookies)
	}
}

func TestJar_Read(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "xyz"})
	c := e.NewContext(req, httptest.NewRecorder())

	jar := NewJar("token", false)
	if got := jar.Read(c); got != "xyz" {
		t.Fatalf("expected xyz, got %q", got)
	}

	empty := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := jar.Read(empty); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
