package authapi

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names are part of the client contract.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

func (h *Handler) refreshPath() string {
	return h.cfg.BasePath + "/auth/refresh"
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, value string, exp time.Time) {
	h.setCookie(w, AccessCookie, value, "/", exp)
}

// The refresh cookie is scoped to the refresh route so it is not sent with every request.
func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string, exp time.Time) {
	h.setCookie(w, RefreshCookie, value, h.refreshPath(), exp)
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	h.expireCookie(w, AccessCookie, "/")
	h.expireCookie(w, RefreshCookie, h.refreshPath())
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value, path string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   h.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: parseSameSite(h.cfg.CookieSameSite),
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: parseSameSite(h.cfg.CookieSameSite),
	})
}

func cookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	return v, v != ""
}

// accessToken reads the access cookie, falling back to a Bearer header.
func accessToken(r *http.Request) (string, bool) {
	if v, ok := cookieValue(r, AccessCookie); ok {
		return v, true
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	v := strings.TrimSpace(parts[1])
	return v, v != ""
}
