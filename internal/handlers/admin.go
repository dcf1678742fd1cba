package handlers

import (
	"net/http"

	"rifas-admin/internal/auth"
)

const loginPath = "/admin/login"

// LoginPage offers the email form and, inside the Telegram Mini App, captures
// initData into a cookie and goes straight to the panel.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", h.newView(r, "Ingresar", ""))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	token, user, err := h.svc.Users.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		h.fail(w, r, err, loginPath)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.svc.Users.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
	h.log.Infow("admin logged in", "user_id", user.ID, "rol", user.Role)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{auth.CookieName, "tg_init_data"} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: name == auth.CookieName})
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, playersPath, http.StatusSeeOther)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
