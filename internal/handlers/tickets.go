package handlers

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rifas-admin/internal/export"
	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

const ticketsPath = "/admin/tickets"

type ticketsData struct {
	Raffles []models.Raffle
	States  []string
}

func ticketFilter(v url.Values) (repositories.TicketFilter, error) {
	raffleID, err := formID(v.Get("rifa_id"))
	if err != nil {
		return repositories.TicketFilter{}, err
	}
	playerID, err := formID(v.Get("jugador_id"))
	if err != nil {
		return repositories.TicketFilter{}, err
	}
	status := v.Get("estado")
	if status != "" && !models.ValidTicketState(status) {
		return repositories.TicketFilter{}, badInput("estado desconocido %q", status)
	}
	return repositories.TicketFilter{RaffleID: raffleID, PlayerID: playerID, Status: status}, nil
}

func filterValues(f repositories.TicketFilter) url.Values {
	v := url.Values{}
	if f.RaffleID > 0 {
		v.Set("rifa_id", strconv.FormatInt(f.RaffleID, 10))
	}
	if f.PlayerID > 0 {
		v.Set("jugador_id", strconv.FormatInt(f.PlayerID, 10))
	}
	if f.Status != "" {
		v.Set("estado", f.Status)
	}
	return v
}

// Tickets lists vista_tickets rows, newest first unless a sort is chosen.
func (h *Handler) Tickets(w http.ResponseWriter, r *http.Request) {
	f, err := ticketFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	q := listing.ParseQuery(r.URL.Query(), "")
	page, err := h.svc.Tickets.ListTickets(r.Context(), f, q)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	raffles, err := h.svc.Raffles.ListRaffles(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	v := h.newView(r, "Tickets", "tickets")
	v.Query = q
	v.Filters = filterValues(f)
	v.Page = page
	v.Data = ticketsData{Raffles: raffles, States: models.TicketStates}
	h.render(w, r, "tickets.html", v)
}

// ExportTickets downloads every ticket matching the current filters and search.
func (h *Handler) ExportTickets(w http.ResponseWriter, r *http.Request) {
	f, err := ticketFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	q := listing.ParseQuery(r.URL.Query(), "")

	var buf bytes.Buffer
	n, err := h.svc.Tickets.ExportCSV(r.Context(), f, q, &buf)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	h.log.Infow("tickets exported", "rows", n)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.TicketsFilename(time.Now())+`"`)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) TicketDetails(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	details, err := h.svc.Tickets.Details(r.Context(), id)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) SetTicketState(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, ticketsPath)
		return
	}
	status := r.FormValue("estado")
	if err := h.svc.Tickets.SetState(r.Context(), id, status); err != nil {
		h.fail(w, r, err, ticketsPath)
		return
	}
	h.done(w, r, ticketsPath, "Ticket marcado como "+status)
}

func (h *Handler) ReleaseTicket(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, ticketsPath)
		return
	}
	if err := h.svc.Tickets.Release(r.Context(), id); err != nil {
		h.fail(w, r, err, ticketsPath)
		return
	}
	h.done(w, r, ticketsPath, "Ticket liberado")
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, ticketsPath)
		return
	}
	if err := h.svc.Tickets.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, ticketsPath)
		return
	}
	h.done(w, r, ticketsPath, "Ticket eliminado")
}
