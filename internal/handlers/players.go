package handlers

import (
	"net/http"

	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
)

const playersPath = "/admin/jugadores"

func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	q := listing.ParseQuery(r.URL.Query(), "nombre")
	page, err := h.svc.Players.ListPlayers(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	v := h.newView(r, "Jugadores", "jugadores")
	v.Query = q
	v.Page = page
	h.render(w, r, "jugadores.html", v)
}

func playerFromForm(r *http.Request) models.Player {
	return models.Player{
		FirstName:       r.FormValue("nombre"),
		LastName:        r.FormValue("apellido"),
		Email:           r.FormValue("email"),
		Phone:           r.FormValue("telefono"),
		NationalID:      r.FormValue("cedula"),
		FavoriteNumbers: r.FormValue("numeros_favoritos"),
	}
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	p := playerFromForm(r)
	if err := h.svc.Players.CreatePlayer(r.Context(), &p); err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	h.done(w, r, playersPath, "Jugador registrado")
}

func (h *Handler) EditPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	p, err := h.svc.Players.GetPlayer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	v := h.newView(r, "Editar "+p.FullName(), "jugadores")
	v.Data = p
	h.render(w, r, "jugador_form.html", v)
}

func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	current, err := h.svc.Players.GetPlayer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	p := playerFromForm(r)
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt
	if err := h.svc.Players.UpdatePlayer(r.Context(), &p); err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	h.done(w, r, playersPath, "Jugador actualizado")
}

func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	if err := h.svc.Players.DeletePlayer(r.Context(), id); err != nil {
		h.fail(w, r, err, playersPath)
		return
	}
	h.done(w, r, playersPath, "Jugador eliminado")
}
