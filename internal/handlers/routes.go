package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	tgmiddleware "rifas-admin/internal/middleware"
	"rifas-admin/internal/storage"
)

// NewRouter wires the public endpoints, the stored files and the protected
// admin panel.
func NewRouter(h *Handler, authCfg tgmiddleware.AdminAuthConfig, storageRoot string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	FileServer(r, storage.PathPrefix, http.Dir(storageRoot))

	// Public
	r.Get("/healthz", h.Healthz)
	r.Get("/rifas", h.ActiveRaffles)
	r.Post("/solicitudes", h.SubmitRequest)

	authCfg.LoginPath = loginPath
	r.Get(loginPath, h.LoginPage)
	r.Post(loginPath, h.Login)
	r.Post("/admin/logout", h.Logout)

	// Admin
	r.Group(func(r chi.Router) {
		r.Use(tgmiddleware.AdminAuth(authCfg, h.log))
		r.Get("/admin", h.Dashboard)

		r.Get(playersPath, h.Players)
		r.Post(playersPath, h.CreatePlayer)
		r.Get(playersPath+"/{id}/editar", h.EditPlayer)
		r.Post(playersPath+"/{id}", h.UpdatePlayer)
		r.Post(playersPath+"/{id}/delete", h.DeletePlayer)

		r.Get(ticketsPath, h.Tickets)
		r.Get(ticketsPath+"/export.csv", h.ExportTickets)
		r.Get(ticketsPath+"/{id}/details", h.TicketDetails)
		r.Post(ticketsPath+"/{id}/estado", h.SetTicketState)
		r.Post(ticketsPath+"/{id}/release", h.ReleaseTicket)
		r.Post(ticketsPath+"/{id}/delete", h.DeleteTicket)

		r.Get(rafflesPath, h.Raffles)
		r.Post(rafflesPath, h.CreateRaffle)
		r.Get(rafflesPath+"/nueva", h.NewRaffle)
		r.Get(rafflesPath+"/{id}/editar", h.EditRaffle)
		r.Post(rafflesPath+"/{id}", h.UpdateRaffle)
		r.Post(rafflesPath+"/{id}/finalizar", h.FinishRaffle)
		r.Post(rafflesPath+"/{id}/delete", h.DeleteRaffle)

		r.Get(requestsPath, h.PaymentRequests)
		r.Post(requestsPath+"/{id}/aprobar", h.ApproveRequest)
		r.Post(requestsPath+"/{id}/rechazar", h.RejectRequest)

		r.Get(winnersPath, h.Winners)
		r.Post(winnersPath, h.DeclareWinner)
		r.Post(winnersPath+"/{id}/delete", h.DeleteWinner)

		r.Get(usersPath, h.Users)
		r.Post(usersPath, h.CreateUser)
		r.Post(usersPath+"/{id}/delete", h.DeleteUser)
	})

	return r
}

// FileServer conveniently sets up a http.FileServer handler at a specific path.
// Directory listings are not served.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if path[len(path)-1] != '/' {
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, r)
	})
}
