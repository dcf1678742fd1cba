package repositories

import (
	"context"
	"errors"
	"time"

	"rifas-admin/internal/models"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate record")

type PlayerRepository interface {
	FindAll(ctx context.Context) ([]models.Player, error)
	FindByID(ctx context.Context, id int64) (*models.Player, error)
	Create(ctx context.Context, p *models.Player) error
	Update(ctx context.Context, p *models.Player) error
	Delete(ctx context.Context, id int64) error
}

// RaffleRepository persists raffles. Create also generates the raffle's tickets.
type RaffleRepository interface {
	FindAll(ctx context.Context) ([]models.Raffle, error)
	FindByStatus(ctx context.Context, status string) ([]models.Raffle, error)
	FindByID(ctx context.Context, id int64) (*models.Raffle, error)
	Create(ctx context.Context, r *models.Raffle, numbers []string) error
	Update(ctx context.Context, r *models.Raffle) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

// TicketFilter holds equality predicates; zero values are ignored.
type TicketFilter struct {
	RaffleID int64
	PlayerID int64
	Status   string
}

type TicketRepository interface {
	FindViews(ctx context.Context, f TicketFilter) ([]models.TicketView, error)
	FindViewByID(ctx context.Context, id int64) (*models.TicketView, error)
	FindByID(ctx context.Context, id int64) (*models.Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Reserve(ctx context.Context, id int64, playerID *int64, buyer models.Buyer) error
	Release(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type PaymentRequestRepository interface {
	FindAll(ctx context.Context, status string) ([]models.PaymentRequest, error)
	FindByTicket(ctx context.Context, ticketID int64) ([]models.PaymentRequest, error)
	FindByID(ctx context.Context, id int64) (*models.PaymentRequest, error)
	Create(ctx context.Context, pr *models.PaymentRequest) error
	// Approve marks the ticket pagado and the request aprobado in one transaction.
	Approve(ctx context.Context, id int64, at time.Time) error
	// Reject frees the ticket and marks the request rechazado in one transaction.
	Reject(ctx context.Context, id int64, at time.Time) error
}

type WinnerRepository interface {
	FindAll(ctx context.Context) ([]models.Winner, error)
	Create(ctx context.Context, w *models.Winner) error
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	FindAll(ctx context.Context) ([]models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, u *models.AdminUser) error
	Delete(ctx context.Context, id int64) error
}
