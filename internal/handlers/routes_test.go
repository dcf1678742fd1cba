package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas-admin/internal/auth"
	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/services"
)

func TestPublicEndpoints(t *testing.T) {
	a := newApp(t)
	rec := a.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	raf := a.raffle(t, 5)
	finished := a.raffle(t, 5)
	require.NoError(t, a.svc.Raffles.FinishRaffle(context.Background(), finished.ID))

	rec = a.do(httptest.NewRequest(http.MethodGet, "/rifas", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var raffles []models.Raffle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raffles))
	require.Len(t, raffles, 1)
	assert.Equal(t, raf.ID, raffles[0].ID)
}

func TestAdminAuth(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/jugadores", nil)
	req.Header.Set("Accept", "text/html")
	rec := a.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	rec = a.do(httptest.NewRequest(http.MethodGet, "/admin/jugadores", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	doc := document(t, a.do(httptest.NewRequest(http.MethodGet, "/admin/login", nil)))
	assert.Equal(t, 1, doc.Find(`form[action="/admin/login"]`).Length())
	assert.Zero(t, doc.Find("nav").Length())
}

func TestLoginFlow(t *testing.T) {
	a := newApp(t)
	_, err := a.svc.Users.CreateUser(context.Background(), services.UserInput{Email: "ana@rifas.com", Name: "Ana", Password: "suficiente"})
	require.NoError(t, err)

	bad := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(url.Values{"email": {"ana@rifas.com"}, "password": {"mala"}}.Encode()))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := a.do(bad)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/admin/login?error=")

	good := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(url.Values{"email": {"ana@rifas.com"}, "password": {"suficiente"}}.Encode()))
	good.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = a.do(good)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/admin/jugadores", nil)
	req.AddCookie(session)
	doc := document(t, a.do(req))
	assert.Contains(t, doc.Find("nav").Text(), "ana@rifas.com")
}

func TestPlayersPage(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	for _, n := range [][2]string{{"Ana", "López"}, {"Ana", "Martínez"}, {"Bruno", "Díaz"}} {
		require.NoError(t, a.svc.Players.CreatePlayer(ctx, &models.Player{FirstName: n[0], LastName: n[1]}))
	}

	doc := document(t, a.do(adminRequest(http.MethodGet, "/admin/jugadores?q=ana+lopez", nil)))
	rows := doc.Find("tr.player")
	require.Equal(t, 1, rows.Length())
	assert.Equal(t, "Ana López", strings.TrimSpace(rows.Find("td.name").Text()))
	assert.Contains(t, rows.Find(".badge").Text(), models.LabelNoTickets)
	assert.Equal(t, 1, doc.Find("nav").Length())

	partial := document(t, a.do(htmx(adminRequest(http.MethodGet, "/admin/jugadores?sort=nombre&dir=asc", nil))))
	assert.Zero(t, partial.Find("nav").Length())
	names := partial.Find("tr.player td.name").Map(func(_ int, s *goquery.Selection) string { return strings.TrimSpace(s.Text()) })
	assert.Equal(t, []string{"Ana López", "Ana Martínez", "Bruno Díaz"}, names)

	href, _ := partial.Find("th a").First().Attr("href")
	assert.Contains(t, href, "dir=desc")

	// the swapped wrapper reloads the list with the state it was rendered for
	partial = document(t, a.do(htmx(adminRequest(http.MethodGet, "/admin/jugadores?q=ana&sort=nombre&dir=desc&page=1", nil))))
	wrapper := partial.Find("div#table")
	require.Equal(t, 1, wrapper.Length())
	reload, _ := wrapper.Attr("hx-get")
	assert.Equal(t, "/admin/jugadores?dir=desc&q=ana&sort=nombre", reload)
	swap, _ := wrapper.Attr("hx-swap")
	assert.Equal(t, "outerHTML", swap)
	sortState, _ := wrapper.Find(".state input[name=sort]").Attr("value")
	dirState, _ := wrapper.Find(".state input[name=dir]").Attr("value")
	assert.Equal(t, "nombre", sortState)
	assert.Equal(t, "desc", dirState)
	assert.Equal(t, 2, wrapper.Find("tr.player").Length())
}

func TestEditPlayer(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	p := models.Player{FirstName: "Ana", LastName: "López", Email: "ana@mail.com"}
	require.NoError(t, a.svc.Players.CreatePlayer(ctx, &p))
	id := strconv.FormatInt(p.ID, 10)

	doc := document(t, a.do(adminRequest(http.MethodGet, "/admin/jugadores", nil)))
	edit, ok := doc.Find("tr.player a.edit").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "/admin/jugadores/"+id+"/editar", edit)

	doc = document(t, a.do(adminRequest(http.MethodGet, edit, nil)))
	form := doc.Find("form#player-form")
	action, _ := form.Attr("action")
	assert.Equal(t, "/admin/jugadores/"+id, action)
	email, _ := form.Find("input[name=email]").Attr("value")
	assert.Equal(t, "ana@mail.com", email)

	rec := a.do(adminRequest(http.MethodPost, action, url.Values{
		"nombre": {"Ana María"}, "apellido": {"López"}, "email": {"ANA@mail.com"}, "telefono": {"0412"},
	}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/admin/jugadores?ok="))

	got, err := a.svc.Players.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.FirstName)
	assert.Equal(t, "ana@mail.com", got.Email)
	assert.Equal(t, "0412", got.Phone)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))

	rec = a.do(htmx(adminRequest(http.MethodPost, action, url.Values{"nombre": {" "}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(adminRequest(http.MethodGet, "/admin/jugadores/999/editar", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	// ghosts are not editable
	raf := a.raffle(t, 5)
	a.submit(t, a.ticketID(t, raf.ID, "1"), "Luis", "luis@mail.com")
	page, err := a.svc.Players.ListPlayers(ctx, listing.Query{Search: "luis", Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NoError(t, a.svc.Players.DeletePlayer(ctx, page.Items[0].ID))

	doc = document(t, a.do(adminRequest(http.MethodGet, "/admin/jugadores?q=luis", nil)))
	require.Equal(t, 1, doc.Find("tr.player.ghost").Length())
	assert.Zero(t, doc.Find("tr.player.ghost a.edit").Length())
}

func TestCreatePlayerForm(t *testing.T) {
	a := newApp(t)
	rec := a.do(adminRequest(http.MethodPost, "/admin/jugadores", url.Values{"nombre": {"Ana"}, "email": {"ana@mail.com"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/admin/jugadores?ok="))

	rec = a.do(adminRequest(http.MethodPost, "/admin/jugadores", url.Values{"email": {"sin-nombre@mail.com"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = a.do(htmx(adminRequest(http.MethodPost, "/admin/jugadores", url.Values{"email": {"x@mail.com"}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var events map[string]notice
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &events))
	assert.Equal(t, "error", events["notify"].Level)
	assert.Equal(t, "el nombre es obligatorio", events["notify"].Message)
}

func TestPaymentRequestFlow(t *testing.T) {
	a := newApp(t)
	raf := a.raffle(t, 10)
	tid := a.ticketID(t, raf.ID, "4")

	rec := a.do(submitForm(t, map[string]string{"ticket_id": strconv.FormatInt(tid, 10), "nombre": "Ana", "referencia": "R", "monto": "10"}, false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := a.submit(t, tid, "Ana", "ana@mail.com")
	assert.Equal(t, models.RequestPending, req.Status)

	doc := document(t, a.do(adminRequest(http.MethodGet, "/admin/solicitudes", nil)))
	require.Equal(t, 1, doc.Find("tr.request").Length())
	proof, ok := doc.Find("tr.request a").Attr("href")
	require.True(t, ok)

	// the proof is served from the storage prefix
	u, err := url.Parse(proof)
	require.NoError(t, err)
	rec = a.do(httptest.NewRequest(http.MethodGet, u.Path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpg-bytes", rec.Body.String())

	path := "/admin/solicitudes/" + strconv.FormatInt(req.ID, 10) + "/aprobar"
	rec = a.do(htmx(adminRequest(http.MethodPost, path, url.Values{})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "listChanged")

	rec = a.do(htmx(adminRequest(http.MethodPost, path, url.Values{})))
	assert.Equal(t, http.StatusConflict, rec.Code)

	doc = document(t, a.do(adminRequest(http.MethodGet, "/admin/solicitudes", nil)))
	assert.Zero(t, doc.Find("tr.request").Length())
	doc = document(t, a.do(adminRequest(http.MethodGet, "/admin/solicitudes?estado=aprobado", nil)))
	assert.Equal(t, 1, doc.Find("tr.request").Length())

	rec = a.do(adminRequest(http.MethodGet, "/admin/tickets/"+strconv.FormatInt(tid, 10)+"/details", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var details services.TicketDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, models.TicketPaid, details.Ticket.Status)
	require.Len(t, details.Requests, 1)
	assert.Equal(t, models.RequestApproved, details.Requests[0].Status)
}

func TestRejectReleasesTicket(t *testing.T) {
	a := newApp(t)
	raf := a.raffle(t, 3)
	tid := a.ticketID(t, raf.ID, "1")
	req := a.submit(t, tid, "Ana", "ana@mail.com")

	rec := a.do(adminRequest(http.MethodPost, "/admin/solicitudes/"+strconv.FormatInt(req.ID, 10)+"/rechazar", url.Values{}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = a.do(adminRequest(http.MethodGet, "/admin/tickets/"+strconv.FormatInt(tid, 10)+"/details", nil))
	var details services.TicketDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, models.TicketAvailable, details.Ticket.Status)
	assert.Nil(t, details.Ticket.PlayerID)
}

func TestTicketsPageAndExport(t *testing.T) {
	a := newApp(t)
	raf := a.raffle(t, 30)
	a.submit(t, a.ticketID(t, raf.ID, "07"), "Ana", "ana@mail.com")
	a.submit(t, a.ticketID(t, raf.ID, "08"), "Luis", "luis@mail.com")

	doc := document(t, a.do(adminRequest(http.MethodGet, "/admin/tickets?rifa_id="+strconv.FormatInt(raf.ID, 10)+"&sort=numero", nil)))
	assert.Equal(t, 25, doc.Find("tr.ticket").Length())
	assert.Equal(t, "00", doc.Find("tr.ticket td.number").First().Text())
	next, ok := doc.Find(".pager a").Last().Attr("href")
	require.True(t, ok)
	assert.Contains(t, next, "page=2")
	assert.Contains(t, next, "rifa_id=")

	doc = document(t, a.do(htmx(adminRequest(http.MethodGet, "/admin/tickets?estado=apartado&q=ana", nil))))
	require.Equal(t, 1, doc.Find("tr.ticket").Length())
	assert.Equal(t, "07", doc.Find("tr.ticket td.number").Text())

	rec := a.do(adminRequest(http.MethodGet, "/admin/tickets/export.csv?estado=apartado", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)

	rec = a.do(adminRequest(http.MethodGet, "/admin/tickets?estado=perdido", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketMutations(t *testing.T) {
	a := newApp(t)
	raf := a.raffle(t, 3)
	tid := a.ticketID(t, raf.ID, "2")
	id := strconv.FormatInt(tid, 10)

	rec := a.do(htmx(adminRequest(http.MethodPost, "/admin/tickets/"+id+"/estado", url.Values{"estado": {models.TicketCancelled}})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(htmx(adminRequest(http.MethodPost, "/admin/tickets/"+id+"/release", url.Values{})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(htmx(adminRequest(http.MethodPost, "/admin/tickets/"+id+"/delete", url.Values{})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(adminRequest(http.MethodGet, "/admin/tickets/"+id+"/details", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func raffleForm(t *testing.T, fields url.Values, image string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if image != "" {
		fw, err := mw.CreateFormFile("imagen", image)
		require.NoError(t, err)
		_, err = fw.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestRaffleForms(t *testing.T) {
	a := newApp(t)

	doc := document(t, a.do(adminRequest(http.MethodGet, "/admin/rifas/nueva", nil)))
	assert.Equal(t, 1, doc.Find(`input[name="total_tickets"]`).Length())

	body, ctype := raffleForm(t, url.Values{
		"nombre": {"Rifa Carro"}, "precio_ticket": {"2,50"}, "total_tickets": {"100"},
		"fecha_inicio": {"2026-01-01T10:00"}, "fecha_fin": {"2026-02-01T10:00"},
		"premio_posicion":    {"1", "2", ""},
		"premio_descripcion": {"Carro", "Moto", ""},
	}, "carro.png")
	rec := a.do(withBody(adminRequest(http.MethodPost, "/admin/rifas", nil), body, ctype))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/admin/rifas?ok="))

	raffles, err := a.svc.Raffles.ListRaffles(context.Background())
	require.NoError(t, err)
	require.Len(t, raffles, 1)
	raf := raffles[0]
	assert.Equal(t, 2.5, raf.TicketPrice)
	assert.Equal(t, []models.PrizeTier{{Position: 1, Description: "Carro"}, {Position: 2, Description: "Moto"}}, raf.Prizes)
	require.NotNil(t, raf.EndsAt)
	assert.NotEmpty(t, raf.ImageURL)

	doc = document(t, a.do(adminRequest(http.MethodGet, "/admin/rifas/"+strconv.FormatInt(raf.ID, 10)+"/editar", nil)))
	val, _ := doc.Find(`input[name="nombre"]`).Attr("value")
	assert.Equal(t, "Rifa Carro", val)

	body, ctype = raffleForm(t, url.Values{"nombre": {"Rifa Carro"}, "precio_ticket": {"0"}, "total_tickets": {"10"}}, "")
	rec = a.do(withBody(adminRequest(http.MethodPost, "/admin/rifas", nil), body, ctype))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/admin/rifas/nueva?error=")

	doc = document(t, a.do(adminRequest(http.MethodGet, "/admin/rifas", nil)))
	assert.Equal(t, 1, doc.Find("tr.raffle").Length())

	rec = a.do(htmx(adminRequest(http.MethodPost, "/admin/rifas/"+strconv.FormatInt(raf.ID, 10)+"/finalizar", url.Values{})))
	assert.Equal(t, http.StatusOK, rec.Code)
	got, err := a.svc.Raffles.GetRaffle(context.Background(), raf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RaffleFinished, got.Status)
}

func withBody(req *http.Request, body *bytes.Buffer, contentType string) *http.Request {
	out := httptest.NewRequest(req.Method, req.URL.String(), body)
	out.Header = req.Header.Clone()
	out.Header.Set("Content-Type", contentType)
	return out
}

func TestWinnersAndUsersPages(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	raf := a.raffle(t, 3)
	tid := a.ticketID(t, raf.ID, "0")
	req := a.submit(t, tid, "Ana", "ana@mail.com")
	_, err := a.svc.Payments.Approve(ctx, req.ID)
	require.NoError(t, err)

	rec := a.do(adminRequest(http.MethodPost, "/admin/ganadores", url.Values{"ticket_id": {strconv.FormatInt(tid, 10)}, "premio": {"Moto"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, rec.Header().Get("Location"), "error=")

	doc := document(t, a.do(adminRequest(http.MethodGet, "/admin/ganadores", nil)))
	assert.Equal(t, 1, doc.Find("tr.winner").Length())

	doc = document(t, a.do(adminRequest(http.MethodGet, "/admin/jugadores", nil)))
	assert.Contains(t, doc.Find("tr.player .badge").Text(), models.LabelWinner)

	rec = a.do(adminRequest(http.MethodPost, "/admin/usuarios", url.Values{"email": {"op@rifas.com"}, "nombre": {"Op"}, "password": {"suficiente"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	rec = a.do(htmx(adminRequest(http.MethodPost, "/admin/usuarios", url.Values{"email": {"op@rifas.com"}, "nombre": {"Op"}, "password": {"suficiente"}})))
	assert.Equal(t, http.StatusConflict, rec.Code)

	doc = document(t, a.do(adminRequest(http.MethodGet, "/admin/usuarios", nil)))
	assert.Equal(t, "op@rifas.com", doc.Find("tr.user td.email").Text())
}
