package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
	"rifas-admin/internal/storage"
)

var requestSortKeys = listing.Keys[models.PaymentRequest]{
	"fecha": {Number: func(r models.PaymentRequest) float64 { return float64(r.CreatedAt.UnixNano()) }},
	"monto": {Number: func(r models.PaymentRequest) float64 { return r.Amount }},
}

func requestFields(r models.PaymentRequest) []string {
	return []string{r.Reference, r.Method, r.TicketNumber, r.PlayerName, r.RaffleName}
}

// SubmitInput is what a buyer sends along with the proof of payment.
type SubmitInput struct {
	TicketID  int64
	Buyer     models.Buyer
	Method    string
	Reference string
	Amount    float64
}

type PaymentService struct {
	requests repositories.PaymentRequestRepository
	tickets  repositories.TicketRepository
	players  repositories.PlayerRepository
	files    Uploader
	notifier Notifier
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewPaymentService(requests repositories.PaymentRequestRepository, tickets repositories.TicketRepository,
	players repositories.PlayerRepository, files Uploader, notifier Notifier, log *zap.SugaredLogger) *PaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PaymentService{requests: requests, tickets: tickets, players: players, files: files,
		notifier: notifier, log: log, now: time.Now}
}

// ListRequests filters by estado (empty for all), then searches, sorts and pages.
func (s *PaymentService) ListRequests(ctx context.Context, status string, q listing.Query) (listing.Page[models.PaymentRequest], error) {
	all, err := s.requests.FindAll(ctx, status)
	if err != nil {
		return listing.Page[models.PaymentRequest]{}, err
	}
	return listing.Apply(all, q, requestFields, requestSortKeys, listing.RequestsPageSize), nil
}

// Submit reserves the ticket for the buyer and files a pending request with
// the uploaded proof.
func (s *PaymentService) Submit(ctx context.Context, in SubmitInput, proof *File) (*models.PaymentRequest, error) {
	in.Buyer.FirstName = strings.TrimSpace(in.Buyer.FirstName)
	in.Buyer.LastName = strings.TrimSpace(in.Buyer.LastName)
	in.Buyer.Email = strings.ToLower(strings.TrimSpace(in.Buyer.Email))
	in.Reference = strings.TrimSpace(in.Reference)
	switch {
	case in.Buyer.FirstName == "":
		return nil, invalid("el nombre es obligatorio")
	case in.Buyer.Phone == "" && in.Buyer.Email == "":
		return nil, invalid("indica un teléfono o un email")
	case in.Reference == "":
		return nil, invalid("la referencia es obligatoria")
	case in.Amount <= 0:
		return nil, invalid("el monto debe ser mayor que cero")
	case proof == nil || proof.Body == nil:
		return nil, invalid("falta el comprobante de pago")
	}

	ticket, err := s.tickets.FindViewByID(ctx, in.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.RaffleStatus != models.RaffleActive {
		return nil, conflict("la rifa ya no está activa")
	}
	if ticket.Status != models.TicketAvailable && !sameBuyer(ticket, in.Buyer) {
		return nil, conflict("el ticket %s no está disponible", ticket.Number)
	}

	proofURL, err := s.files.Upload(ctx, storage.BucketProofs, proof.Name, proof.Body)
	if err != nil {
		return nil, invalid("comprobante: %v", err)
	}

	if ticket.Status == models.TicketAvailable {
		playerID, err := s.ensurePlayer(ctx, in.Buyer)
		if err == nil {
			err = s.tickets.Reserve(ctx, ticket.ID, playerID, in.Buyer)
		}
		if err != nil {
			s.dropProof(proofURL)
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, conflict("el ticket %s ya fue apartado", ticket.Number)
			}
			return nil, err
		}
	}

	req := &models.PaymentRequest{
		TicketID:  ticket.ID,
		Method:    in.Method,
		Reference: in.Reference,
		Amount:    in.Amount,
		ProofURL:  proofURL,
		Status:    models.RequestPending,
		CreatedAt: s.now(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	req.TicketNumber = ticket.Number
	req.RaffleName = ticket.RaffleName

	s.log.Infow("payment request submitted", "request_id", req.ID, "ticket_id", ticket.ID)
	s.notifier.NotifyAdmin(fmt.Sprintf("🎟️ *Nueva solicitud de pago: #%s*\n👤 Cliente: %s %s\n📞 Telf: %s\n💰 Monto: $%.2f\n💳 Ref: %s\n\n_Rifa: %s_",
		md(ticket.Number), md(in.Buyer.FirstName), md(in.Buyer.LastName), md(in.Buyer.Phone), in.Amount, md(in.Reference), md(ticket.RaffleName)))
	return req, nil
}

func sameBuyer(t *models.TicketView, b models.Buyer) bool {
	if t.Status != models.TicketReserved && t.Status != models.TicketPartial {
		return false
	}
	if b.Email != "" && strings.EqualFold(t.PlayerEmail, b.Email) {
		return true
	}
	return b.Phone != "" && t.PlayerPhone == b.Phone
}

// ensurePlayer returns the player matching the buyer's email or phone,
// registering a new one when there is none.
func (s *PaymentService) ensurePlayer(ctx context.Context, b models.Buyer) (*int64, error) {
	players, err := s.players.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if (b.Email != "" && strings.EqualFold(p.Email, b.Email)) || (b.Phone != "" && p.Phone == b.Phone) {
			id := p.ID
			return &id, nil
		}
	}

	p := &models.Player{FirstName: b.FirstName, LastName: b.LastName, Email: b.Email, Phone: b.Phone, NationalID: b.NationalID}
	if err := validatePlayer(p); err != nil {
		return nil, err
	}
	if err := s.players.Create(ctx, p); err != nil {
		return nil, err
	}
	return &p.ID, nil
}

func (s *PaymentService) dropProof(url string) {
	if err := s.files.Remove(url); err != nil {
		s.log.Warnw("could not remove proof", "url", url, "error", err)
	}
}

// Approve marks the ticket pagado and the request aprobado.
func (s *PaymentService) Approve(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	return s.resolve(ctx, id, models.RequestApproved, s.requests.Approve)
}

// Reject frees the ticket and marks the request rechazado.
func (s *PaymentService) Reject(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	return s.resolve(ctx, id, models.RequestRejected, s.requests.Reject)
}

func (s *PaymentService) resolve(ctx context.Context, id int64, status string, apply func(context.Context, int64, time.Time) error) (*models.PaymentRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, conflict("la solicitud ya fue %s", req.Status)
	}
	if err := apply(ctx, id, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, conflict("la solicitud cambió mientras se procesaba")
		}
		return nil, err
	}

	resolved, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Infow("payment request resolved", "request_id", id, "estado", status, "ticket_id", req.TicketID)
	verb := "aprobada ✅"
	if status == models.RequestRejected {
		verb = "rechazada ❌"
	}
	s.notifier.NotifyAdmin(fmt.Sprintf("Solicitud #%d %s\nTicket #%s - %s\nRef: %s", id, verb, md(req.TicketNumber), md(req.RaffleName), md(req.Reference)))
	return resolved, nil
}
