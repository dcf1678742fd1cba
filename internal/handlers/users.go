package handlers

import (
	"net/http"

	"rifas-admin/internal/listing"
	"rifas-admin/internal/services"
)

const usersPath = "/admin/usuarios"

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	q := listing.ParseQuery(r.URL.Query(), "nombre")
	page, err := h.svc.Users.ListUsers(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	v := h.newView(r, "Usuarios", "usuarios")
	v.Query = q
	v.Page = page
	h.render(w, r, "usuarios.html", v)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Users.CreateUser(r.Context(), services.UserInput{
		Email:    r.FormValue("email"),
		Name:     r.FormValue("nombre"),
		Role:     r.FormValue("rol"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		h.fail(w, r, err, usersPath)
		return
	}
	h.done(w, r, usersPath, "Usuario "+u.Email+" creado")
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, usersPath)
		return
	}
	if err := h.svc.Users.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err, usersPath)
		return
	}
	h.done(w, r, usersPath, "Usuario eliminado")
}
