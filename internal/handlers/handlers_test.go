package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"rifas-admin/internal/auth"
	"rifas-admin/internal/config"
	"rifas-admin/internal/db"
	"rifas-admin/internal/listing"
	"rifas-admin/internal/logger"
	tgmiddleware "rifas-admin/internal/middleware"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
	"rifas-admin/internal/repositories/sqlstore"
	"rifas-admin/internal/services"
	"rifas-admin/internal/storage"
)

const adminPassword = "secreto"

type app struct {
	router http.Handler
	svc    Services
}

func newApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(config.DatabaseConfig{URL: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	files, err := storage.New(filepath.Join(dir, "storage"), "http://example.test")
	require.NoError(t, err)

	log := logger.Nop()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	players := sqlstore.NewPlayerRepository(conn)
	raffles := sqlstore.NewRaffleRepository(conn)
	tickets := sqlstore.NewTicketRepository(conn)
	requests := sqlstore.NewPaymentRequestRepository(conn)
	winners := sqlstore.NewWinnerRepository(conn)
	users := sqlstore.NewUserRepository(conn)

	svc := Services{
		Players:  services.NewPlayerService(players, tickets, winners, log),
		Raffles:  services.NewRaffleService(raffles, files, log),
		Tickets:  services.NewTicketService(tickets, requests, log),
		Payments: services.NewPaymentService(requests, tickets, players, files, services.NopNotifier{}, log),
		Winners:  services.NewWinnerService(winners, tickets, log),
		Users:    services.NewUserService(users, tokens, log),
	}
	h, err := New(svc, log)
	require.NoError(t, err)
	router := NewRouter(h, tgmiddleware.AdminAuthConfig{AdminPassword: adminPassword, Tokens: tokens}, files.Root())
	return &app{router: router, svc: svc}
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func adminRequest(method, target string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.SetBasicAuth("admin", adminPassword)
	return req
}

func htmx(req *http.Request) *http.Request {
	req.Header.Set("HX-Request", "true")
	return req
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func (a *app) raffle(t *testing.T, total int) *models.Raffle {
	t.Helper()
	raf, err := a.svc.Raffles.CreateRaffle(context.Background(), services.RaffleInput{Name: "Rifa Moto", TicketPrice: 10, TotalTickets: total}, nil)
	require.NoError(t, err)
	return raf
}

func (a *app) ticketID(t *testing.T, raffleID int64, number string) int64 {
	t.Helper()
	views, err := a.svc.Tickets.FilteredTickets(context.Background(), repositories.TicketFilter{RaffleID: raffleID}, listing.Query{Sort: "numero"})
	require.NoError(t, err)
	for _, v := range views {
		if v.Number == number {
			return v.ID
		}
	}
	t.Fatalf("ticket %s not found", number)
	return 0
}

func submitForm(t *testing.T, fields map[string]string, withProof bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withProof {
		fw, err := mw.CreateFormFile("comprobante", "pago.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("jpg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/solicitudes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (a *app) submit(t *testing.T, ticketID int64, name, email string) models.PaymentRequest {
	t.Helper()
	rec := a.do(submitForm(t, map[string]string{
		"ticket_id": strconv.FormatInt(ticketID, 10), "nombre": name, "apellido": "López", "email": email,
		"telefono": "0414-" + name, "metodo_pago": "pago_movil", "referencia": "REF-" + name, "monto": "10,00",
	}, true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req models.PaymentRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &req))
	return req
}
