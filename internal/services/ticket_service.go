package services

import (
	"context"
	"io"
	"strconv"

	"go.uber.org/zap"

	"rifas-admin/internal/export"
	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

var ticketSortKeys = listing.Keys[models.TicketView]{
	"numero": {Number: func(t models.TicketView) float64 {
		n, _ := strconv.ParseFloat(t.Number, 64)
		return n
	}},
	"jugador": listing.NameKey(
		func(t models.TicketView) string { return t.PlayerFirstName },
		func(t models.TicketView) string { return t.PlayerLastName }),
	"precio": {Number: func(t models.TicketView) float64 { return t.Price }},
	"fecha":  {Number: func(t models.TicketView) float64 { return float64(t.CreatedAt.UnixNano()) }},
	"estado": {Text: func(t models.TicketView) string { return t.Status }},
	"rifa":   {Text: func(t models.TicketView) string { return t.RaffleName }},
}

func ticketFields(t models.TicketView) []string {
	return []string{t.Number, t.PlayerFirstName, t.PlayerLastName, t.PlayerEmail, t.PlayerPhone,
		t.PlayerNationalID, t.RaffleName, t.Status}
}

type TicketService struct {
	tickets  repositories.TicketRepository
	requests repositories.PaymentRequestRepository
	log      *zap.SugaredLogger
}

func NewTicketService(tickets repositories.TicketRepository, requests repositories.PaymentRequestRepository, log *zap.SugaredLogger) *TicketService {
	return &TicketService{tickets: tickets, requests: requests, log: log}
}

// FilteredTickets applies the store filter, then search and sort.
func (s *TicketService) FilteredTickets(ctx context.Context, f repositories.TicketFilter, q listing.Query) ([]models.TicketView, error) {
	views, err := s.tickets.FindViews(ctx, f)
	if err != nil {
		return nil, err
	}
	return listing.Sort(listing.Filter(views, q.Search, ticketFields), ticketSortKeys, q), nil
}

func (s *TicketService) ListTickets(ctx context.Context, f repositories.TicketFilter, q listing.Query) (listing.Page[models.TicketView], error) {
	views, err := s.FilteredTickets(ctx, f, q)
	if err != nil {
		return listing.Page[models.TicketView]{}, err
	}
	return listing.Paginate(views, q.Page, listing.TicketsPageSize), nil
}

// ExportCSV writes every ticket matching f and q, ignoring pagination.
func (s *TicketService) ExportCSV(ctx context.Context, f repositories.TicketFilter, q listing.Query, w io.Writer) (int, error) {
	views, err := s.FilteredTickets(ctx, f, q)
	if err != nil {
		return 0, err
	}
	if err := export.TicketsCSV(w, views); err != nil {
		return 0, err
	}
	return len(views), nil
}

type TicketDetails struct {
	Ticket   models.TicketView       `json:"ticket"`
	Requests []models.PaymentRequest `json:"solicitudes"`
}

func (s *TicketService) Details(ctx context.Context, id int64) (*TicketDetails, error) {
	view, err := s.tickets.FindViewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.FindByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []models.PaymentRequest{}
	}
	return &TicketDetails{Ticket: *view, Requests: reqs}, nil
}

// SetState moves a ticket to any known state. Use Release to free it.
func (s *TicketService) SetState(ctx context.Context, id int64, status string) error {
	if !models.ValidTicketState(status) {
		return invalid("estado desconocido %q", status)
	}
	if status == models.TicketAvailable {
		return s.Release(ctx, id)
	}
	if err := s.tickets.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Infow("ticket state changed", "ticket_id", id, "estado", status)
	return nil
}

// Release frees the ticket and clears its owner.
func (s *TicketService) Release(ctx context.Context, id int64) error {
	if err := s.tickets.Release(ctx, id); err != nil {
		return err
	}
	s.log.Infow("ticket released", "ticket_id", id)
	return nil
}

func (s *TicketService) Delete(ctx context.Context, id int64) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("ticket deleted", "ticket_id", id)
	return nil
}
