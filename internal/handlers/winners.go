package handlers

import (
	"net/http"
)

const winnersPath = "/admin/ganadores"

func (h *Handler) Winners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.svc.Winners.ListWinners(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	v := h.newView(r, "Ganadores", "ganadores")
	v.Data = winners
	h.render(w, r, "ganadores.html", v)
}

func (h *Handler) DeclareWinner(w http.ResponseWriter, r *http.Request) {
	ticketID, err := formID(r.FormValue("ticket_id"))
	if err == nil && ticketID == 0 {
		err = badInput("falta el ticket")
	}
	if err != nil {
		h.fail(w, r, err, winnersPath)
		return
	}
	winner, err := h.svc.Winners.DeclareWinner(r.Context(), ticketID, r.FormValue("premio"))
	if err != nil {
		h.fail(w, r, err, winnersPath)
		return
	}
	h.done(w, r, winnersPath, "🏆 "+winner.PlayerName+" gana "+winner.Prize)
}

func (h *Handler) DeleteWinner(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, winnersPath)
		return
	}
	if err := h.svc.Winners.DeleteWinner(r.Context(), id); err != nil {
		h.fail(w, r, err, winnersPath)
		return
	}
	h.done(w, r, winnersPath, "Ganador eliminado")
}
