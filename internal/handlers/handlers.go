package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rifas-admin/internal/listing"
	"rifas-admin/internal/middleware"
	"rifas-admin/internal/repositories"
	"rifas-admin/internal/services"
	"rifas-admin/web"
)

// Services groups everything the handlers call into.
type Services struct {
	Players  *services.PlayerService
	Raffles  *services.RaffleService
	Tickets  *services.TicketService
	Payments *services.PaymentService
	Winners  *services.WinnerService
	Users    *services.UserService
}

type Handler struct {
	svc   Services
	log   *zap.SugaredLogger
	pages map[string]*template.Template
}

var pageFiles = []string{
	"jugadores.html", "jugador_form.html", "tickets.html", "rifas.html", "rifa_form.html",
	"solicitudes.html", "ganadores.html", "usuarios.html", "login.html",
}

var funcs = template.FuncMap{
	"money":      func(v float64) string { return "$" + decimal.NewFromFloat(v).StringFixed(2) },
	"date":       formatDate,
	"dateInput":  formatDateInput,
	"add":        func(a, b int) int { return a + b },
	"sub":        func(a, b int) int { return a - b },
	"col":        func(v *view, key, label string) column { return column{View: v, Key: key, Label: label} },
	"maxTickets": func() int { return services.MaxTicketsPerRaffle },
}

// New parses every page against the shared layout.
func New(svc Services, log *zap.SugaredLogger) (*Handler, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		t, err := template.New(name).Funcs(funcs).ParseFS(web.Templates, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Handler{svc: svc, log: log, pages: pages}, nil
}

// view is the data every page template receives.
type view struct {
	Title    string
	Section  string
	Admin    middleware.Admin
	Error    string
	Flash    string
	Path     string
	Query    listing.Query
	Filters  url.Values
	Debounce int
	Page     any
	Data     any
}

type column struct {
	View  *view
	Key   string
	Label string
}

func (h *Handler) newView(r *http.Request, title, section string) *view {
	admin, _ := middleware.AdminFrom(r.Context())
	return &view{
		Title:    title,
		Section:  section,
		Admin:    admin,
		Error:    r.URL.Query().Get("error"),
		Flash:    r.URL.Query().Get("ok"),
		Path:     r.URL.Path,
		Query:    listing.Query{Page: 1},
		Filters:  url.Values{},
		Debounce: listing.SearchDebounceMillis,
	}
}

func (v *view) linkTo(path string, q listing.Query) string {
	vals := q.Values()
	for k, vs := range v.Filters {
		for _, s := range vs {
			if s != "" {
				vals.Add(k, s)
			}
		}
	}
	if len(vals) == 0 {
		return path
	}
	return path + "?" + vals.Encode()
}

func (v *view) SortURL(key string) string { return v.linkTo(v.Path, v.Query.ToggleSort(key)) }
func (v *view) PageURL(n int) string      { return v.linkTo(v.Path, v.Query.WithPage(n)) }
func (v *view) CurrentURL() string        { return v.linkTo(v.Path, v.Query) }

// ExportURL is the CSV download for the current filters and search.
func (v *view) ExportURL() string {
	return v.linkTo(v.Path+"/export.csv", v.Query.WithPage(1))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render writes the full page, or only its table partial for HTMX requests.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, v *view) {
	t, ok := h.pages[page]
	if !ok {
		h.log.Errorw("unknown template", "page", page)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}
	name := "layout"
	if isHTMX(r) && t.Lookup("rows") != nil {
		name = "table"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, v); err != nil {
		h.log.Errorw("template execute error", "page", page, "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// userMessage maps an error to a status code and a message safe to show.
func userMessage(err error) (int, string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "Registro no encontrado"
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, reason(err, services.ErrInvalidInput)
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, reason(err, services.ErrConflict)
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "Email o contraseña incorrectos"
	default:
		return http.StatusInternalServerError, "Ocurrió un error inesperado, intenta de nuevo"
	}
}

func reason(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

func (h *Handler) logFailure(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		return
	}
	h.log.Warnw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
}

// fail reports err as an HTMX notification, a redirect to back with ?error=,
// or a plain text response, in that order of preference.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	status, msg := userMessage(err)
	h.logFailure(r, status, err)
	switch {
	case isHTMX(r):
		trigger(w, map[string]any{"notify": notice{Level: "error", Message: msg}})
		w.WriteHeader(status)
	case back != "":
		http.Redirect(w, r, withParam(back, "error", msg), http.StatusSeeOther)
	default:
		http.Error(w, msg, status)
	}
}

// done acknowledges a mutation. HTMX lists listen for listChanged to refresh.
func (h *Handler) done(w http.ResponseWriter, r *http.Request, back, msg string) {
	if isHTMX(r) {
		trigger(w, map[string]any{
			"notify":      notice{Level: "success", Message: msg},
			"listChanged": true,
		})
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, withParam(back, "ok", msg), http.StatusSeeOther)
}

type notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func trigger(w http.ResponseWriter, events map[string]any) {
	b, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}

func withParam(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Del("ok")
	q.Del("error")
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := userMessage(err)
	h.logFailure(r, status, err)
	writeJSON(w, status, map[string]string{"error": msg})
}

func badInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func urlID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badInput("id inválido")
	}
	return id, nil
}

// formID parses an optional positive id; empty means zero.
func formID(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 0 {
		return 0, badInput("id inválido: %s", value)
	}
	return id, nil
}

// parseAmount accepts "12.50" and "12,50".
func parseAmount(field, value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if value == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, badInput("%s inválido", field)
	}
	return d.Round(2).InexactFloat64(), nil
}

const dateInputLayout = "2006-01-02T15:04"

func parseDateInput(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateInputLayout, value, time.Local)
	if err != nil {
		return nil, badInput("%s inválida", field)
	}
	return &t, nil
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("02/01/2006 15:04")
	case *time.Time:
		if t == nil {
			return ""
		}
		return formatDate(*t)
	}
	return ""
}

func formatDateInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(dateInputLayout)
}

// formFile returns the uploaded file for field, or nil when none was sent.
func formFile(r *http.Request, field string) (*services.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badInput("archivo %s: %v", field, err)
	}
	return &services.File{Name: hdr.Filename, Body: f}, nil
}

func closeFile(f *services.File) {
	if f == nil {
		return
	}
	if c, ok := f.Body.(io.Closer); ok {
		_ = c.Close()
	}
}

func parseMultipart(r *http.Request, maxMemory int64) error {
	err := r.ParseMultipartForm(maxMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return badInput("formulario inválido: %v", err)
	}
	return nil
}
