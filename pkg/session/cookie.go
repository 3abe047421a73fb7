package session

import (
	"net/http"

	"github.com/agromarket/agromarket-backend/pkg/config"
)

// Cookies reads and writes the session cookie according to config.
type Cookies struct {
	cfg config.SessionConfig
}

func NewCookies(cfg config.SessionConfig) Cookies {
	return Cookies{cfg: cfg}
}

// Name returns the configured cookie name.
func (c Cookies) Name() string {
	return c.cfg.CookieName
}

// Read returns the session key carried by the request, or empty.
func (c Cookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.cfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Write sets the session cookie. The cookie itself is a browser-session cookie;
// idle expiry is enforced server side.
func (c Cookies) Write(w http.ResponseWriter, key string) {
	http.SetCookie(w, c.base(key))
}

// Clear expires the session cookie on the client.
func (c Cookies) Clear(w http.ResponseWriter) {
	cookie := c.base("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func (c Cookies) base(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: c.cfg.SameSiteMode(),
	}
}
