package security

import (
	"net/http"
	"strings"
	"time"
)

const TokenCookieName = "token"

// CookieManager writes the session cookie. Domain is the parent apex (for
// example ".example.shop") so every tenant subdomain receives the cookie.
type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure, SameSite: parseSameSite(sameSite)}
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (m *CookieManager) SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, m.tokenCookie(token, int(ttl.Seconds())))
}

func (m *CookieManager) ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, m.tokenCookie("", -1))
}

func (m *CookieManager) tokenCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   maxAge,
		Secure:   m.Secure,
		HttpOnly: true,
		SameSite: m.SameSite,
	}
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
