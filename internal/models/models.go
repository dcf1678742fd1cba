package models

import (
	"strings"
	"time"
)

// Player represents a registered buyer
type Player struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"nombre"`
	LastName        string    `json:"apellido"`
	Email           string    `json:"email"`
	Phone           string    `json:"telefono"`
	NationalID      string    `json:"cedula"`
	FavoriteNumbers string    `json:"numeros_favoritos"`
	CreatedAt       time.Time `json:"created_at"`
}

func (p Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type PlayerStatus string

const (
	StatusWinner   PlayerStatus = "winner"
	StatusActive   PlayerStatus = "active"
	StatusInactive PlayerStatus = "inactive"
)

// Labels shown next to the status badge
const (
	LabelWinner    = "GANADOR"
	LabelPaid      = "PAGADO"
	LabelToPay     = "POR PAGAR"
	LabelNoTickets = "SIN TICKETS"
)

// PlayerSummary is a player plus everything derived from tickets and winners.
// Ghost summaries come from tickets whose player row no longer exists.
type PlayerSummary struct {
	Player
	Ghost        bool         `json:"fantasma"`
	Status       PlayerStatus `json:"status"`
	StatusLabel  string       `json:"status_label"`
	TotalTickets int          `json:"total_tickets_comprados"`
	TotalSpent   float64      `json:"monto_total_gastado"`
}

const (
	RaffleActive   = "activa"
	RaffleFinished = "finalizada"
)

type PrizeTier struct {
	Position    int    `json:"posicion"`
	Description string `json:"descripcion"`
}

// Raffle represents a lottery event
type Raffle struct {
	ID           int64       `json:"id"`
	Name         string      `json:"nombre"`
	Description  string      `json:"descripcion"`
	TicketPrice  float64     `json:"precio_ticket"`
	TotalTickets int         `json:"total_tickets"`
	StartsAt     *time.Time  `json:"fecha_inicio"`
	EndsAt       *time.Time  `json:"fecha_fin"`
	Prizes       []PrizeTier `json:"premios"`
	Category     string      `json:"categoria"`
	Rules        string      `json:"reglas"`
	ImageURL     string      `json:"imagen_url"`
	Status       string      `json:"estado"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (r Raffle) IsActive() bool { return r.Status == RaffleActive }

const (
	TicketAvailable = "disponible"
	TicketReserved  = "apartado"
	TicketPartial   = "abonado"
	TicketPaid      = "pagado"
	TicketCancelled = "cancelado"
)

var TicketStates = []string{TicketAvailable, TicketReserved, TicketPartial, TicketPaid, TicketCancelled}

func ValidTicketState(s string) bool {
	for _, st := range TicketStates {
		if st == s {
			return true
		}
	}
	return false
}

// Buyer is the player snapshot stored on a ticket when it is taken.
type Buyer struct {
	FirstName  string `json:"comprador_nombre"`
	LastName   string `json:"comprador_apellido"`
	Email      string `json:"comprador_email"`
	Phone      string `json:"comprador_telefono"`
	NationalID string `json:"comprador_cedula"`
}

// Ticket represents a single raffle number
type Ticket struct {
	ID        int64     `json:"id"`
	RaffleID  int64     `json:"rifa_id"`
	PlayerID  *int64    `json:"jugador_id"` // nil while available
	Number    string    `json:"numero"`
	Price     float64   `json:"precio"`
	Status    string    `json:"estado"`
	Buyer     Buyer     `json:"comprador"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketView is a row of vista_tickets: the ticket with player and raffle columns.
type TicketView struct {
	Ticket
	PlayerFirstName  string `json:"jugador_nombre"`
	PlayerLastName   string `json:"jugador_apellido"`
	PlayerEmail      string `json:"jugador_email"`
	PlayerPhone      string `json:"jugador_telefono"`
	PlayerNationalID string `json:"jugador_cedula"`
	RaffleName       string `json:"rifa_nombre"`
	RaffleStatus     string `json:"rifa_estado"`
}

func (t TicketView) PlayerName() string {
	return strings.TrimSpace(t.PlayerFirstName + " " + t.PlayerLastName)
}

const (
	RequestPending  = "pendiente"
	RequestApproved = "aprobado"
	RequestRejected = "rechazado"
)

// PaymentRequest is a buyer's claim that a ticket has been paid.
type PaymentRequest struct {
	ID         int64      `json:"id"`
	TicketID   int64      `json:"ticket_id"`
	Method     string     `json:"metodo_pago"`
	Reference  string     `json:"referencia"`
	Amount     float64    `json:"monto"`
	ProofURL   string     `json:"comprobante_url"`
	Status     string     `json:"estado"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"fecha_resolucion"`

	// Filled by list queries
	TicketNumber string `json:"ticket_numero,omitempty"`
	RaffleID     int64  `json:"rifa_id,omitempty"`
	RaffleName   string `json:"rifa_nombre,omitempty"`
	PlayerName   string `json:"jugador_nombre,omitempty"`
}

type Winner struct {
	ID        int64     `json:"id"`
	RaffleID  int64     `json:"rifa_id"`
	TicketID  int64     `json:"ticket_id"`
	PlayerID  int64     `json:"jugador_id"`
	Prize     string    `json:"premio"`
	CreatedAt time.Time `json:"created_at"`

	TicketNumber string `json:"ticket_numero,omitempty"`
	RaffleName   string `json:"rifa_nombre,omitempty"`
	PlayerName   string `json:"jugador_nombre,omitempty"`
}

const (
	RoleAdmin    = "admin"
	RoleOperator = "operador"
)

// AdminUser can sign in to the panel
type AdminUser struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"nombre"`
	Role         string    `json:"rol"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
