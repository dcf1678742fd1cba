package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"rifas-admin/internal/models"
	"rifas-admin/internal/services"
	"rifas-admin/internal/storage"
)

const rafflesPath = "/admin/rifas"

// uploads larger than this spill to temp files
const formMemory = storage.MaxUploadSize + 1<<20

func (h *Handler) Raffles(w http.ResponseWriter, r *http.Request) {
	raffles, err := h.svc.Raffles.ListRaffles(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	v := h.newView(r, "Rifas", "rifas")
	v.Data = raffles
	h.render(w, r, "rifas.html", v)
}

// ActiveRaffles is the public JSON list of raffles still selling tickets.
func (h *Handler) ActiveRaffles(w http.ResponseWriter, r *http.Request) {
	raffles, err := h.svc.Raffles.ActiveRaffles(r.Context())
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	if raffles == nil {
		raffles = []models.Raffle{}
	}
	writeJSON(w, http.StatusOK, raffles)
}

func (h *Handler) NewRaffle(w http.ResponseWriter, r *http.Request) {
	v := h.newView(r, "Nueva rifa", "rifas")
	v.Data = &models.Raffle{}
	h.render(w, r, "rifa_form.html", v)
}

func (h *Handler) EditRaffle(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, rafflesPath)
		return
	}
	raf, err := h.svc.Raffles.GetRaffle(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, rafflesPath)
		return
	}
	v := h.newView(r, "Editar "+raf.Name, "rifas")
	v.Data = raf
	h.render(w, r, "rifa_form.html", v)
}

func raffleInput(r *http.Request) (services.RaffleInput, error) {
	in := services.RaffleInput{
		Name:        r.FormValue("nombre"),
		Description: r.FormValue("descripcion"),
		Category:    r.FormValue("categoria"),
		Rules:       r.FormValue("reglas"),
	}
	var err error
	if in.TicketPrice, err = parseAmount("precio", r.FormValue("precio_ticket")); err != nil {
		return in, err
	}
	if total := strings.TrimSpace(r.FormValue("total_tickets")); total != "" {
		if in.TotalTickets, err = strconv.Atoi(total); err != nil {
			return in, badInput("cantidad de tickets inválida")
		}
	}
	if in.StartsAt, err = parseDateInput("fecha de inicio", r.FormValue("fecha_inicio")); err != nil {
		return in, err
	}
	if in.EndsAt, err = parseDateInput("fecha de cierre", r.FormValue("fecha_fin")); err != nil {
		return in, err
	}

	positions := r.Form["premio_posicion"]
	descriptions := r.Form["premio_descripcion"]
	for i, desc := range descriptions {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		pos := i + 1
		if i < len(positions) && strings.TrimSpace(positions[i]) != "" {
			if pos, err = strconv.Atoi(strings.TrimSpace(positions[i])); err != nil {
				return in, badInput("posición de premio inválida")
			}
		}
		in.Prizes = append(in.Prizes, models.PrizeTier{Position: pos, Description: desc})
	}
	return in, nil
}

func (h *Handler) CreateRaffle(w http.ResponseWriter, r *http.Request) {
	back := rafflesPath + "/nueva"
	if err := parseMultipart(r, formMemory); err != nil {
		h.fail(w, r, err, back)
		return
	}
	in, err := raffleInput(r)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	image, err := formFile(r, "imagen")
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	defer closeFile(image)

	raf, err := h.svc.Raffles.CreateRaffle(r.Context(), in, image)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.done(w, r, rafflesPath, "Rifa "+raf.Name+" creada con "+strconv.Itoa(raf.TotalTickets)+" tickets")
}

func (h *Handler) UpdateRaffle(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, rafflesPath)
		return
	}
	back := rafflesPath + "/" + strconv.FormatInt(id, 10) + "/editar"
	if err := parseMultipart(r, formMemory); err != nil {
		h.fail(w, r, err, back)
		return
	}
	in, err := raffleInput(r)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	image, err := formFile(r, "imagen")
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	defer closeFile(image)

	if _, err := h.svc.Raffles.UpdateRaffle(r.Context(), id, in, image); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.done(w, r, rafflesPath, "Rifa actualizada")
}

func (h *Handler) FinishRaffle(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, rafflesPath)
		return
	}
	if err := h.svc.Raffles.FinishRaffle(r.Context(), id); err != nil {
		h.fail(w, r, err, rafflesPath)
		return
	}
	h.done(w, r, rafflesPath, "Rifa finalizada")
}

func (h *Handler) DeleteRaffle(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, rafflesPath)
		return
	}
	if err := h.svc.Raffles.DeleteRaffle(r.Context(), id); err != nil {
		h.fail(w, r, err, rafflesPath)
		return
	}
	h.done(w, r, rafflesPath, "Rifa eliminada")
}
