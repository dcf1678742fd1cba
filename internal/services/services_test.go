package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rifas-admin/internal/auth"
	"rifas-admin/internal/config"
	"rifas-admin/internal/db"
	"rifas-admin/internal/listing"
	"rifas-admin/internal/logger"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
	"rifas-admin/internal/repositories/sqlstore"
	"rifas-admin/internal/storage"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) NotifyAdmin(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
}

type env struct {
	conn     *sql.DB
	files    *storage.Bucket
	notifier *recordingNotifier

	players  *PlayerService
	raffles  *RaffleService
	tickets  *TicketService
	payments *PaymentService
	winners  *WinnerService
	users    *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(config.DatabaseConfig{URL: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	files, err := storage.New(filepath.Join(dir, "storage"), "http://localhost:8080")
	require.NoError(t, err)

	log := logger.Nop()
	playerRepo := sqlstore.NewPlayerRepository(conn)
	raffleRepo := sqlstore.NewRaffleRepository(conn)
	ticketRepo := sqlstore.NewTicketRepository(conn)
	requestRepo := sqlstore.NewPaymentRequestRepository(conn)
	winnerRepo := sqlstore.NewWinnerRepository(conn)
	userRepo := sqlstore.NewUserRepository(conn)
	n := &recordingNotifier{}

	return &env{
		conn:     conn,
		files:    files,
		notifier: n,
		players:  NewPlayerService(playerRepo, ticketRepo, winnerRepo, log),
		raffles:  NewRaffleService(raffleRepo, files, log),
		tickets:  NewTicketService(ticketRepo, requestRepo, log),
		payments: NewPaymentService(requestRepo, ticketRepo, playerRepo, files, n, log),
		winners:  NewWinnerService(winnerRepo, ticketRepo, log),
		users:    NewUserService(userRepo, auth.NewTokenIssuer("secret", time.Hour), log),
	}
}

func (e *env) raffle(t *testing.T, total int) *models.Raffle {
	t.Helper()
	raf, err := e.raffles.CreateRaffle(context.Background(), RaffleInput{Name: "Rifa Moto", TicketPrice: 10, TotalTickets: total}, nil)
	require.NoError(t, err)
	return raf
}

func (e *env) ticket(t *testing.T, raffleID int64, number string) models.TicketView {
	t.Helper()
	views, err := e.tickets.FilteredTickets(context.Background(), repositories.TicketFilter{RaffleID: raffleID}, listing.Query{})
	require.NoError(t, err)
	for _, v := range views {
		if v.Number == number {
			return v
		}
	}
	t.Fatalf("ticket %s not found", number)
	return models.TicketView{}
}

func proof() *File {
	return &File{Name: "pago.png", Body: strings.NewReader("png-bytes")}
}

var ana = models.Buyer{FirstName: "Ana", LastName: "López", Email: "ana@mail.com", Phone: "0414"}

func (e *env) submit(t *testing.T, ticketID int64, b models.Buyer) *models.PaymentRequest {
	t.Helper()
	req, err := e.payments.Submit(context.Background(), SubmitInput{TicketID: ticketID, Buyer: b, Method: "pago_movil", Reference: "REF1", Amount: 10}, proof())
	require.NoError(t, err)
	return req
}
