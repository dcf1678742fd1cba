package handlers

import (
	"net/http"
	"strings"

	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/services"
)

const requestsPath = "/admin/solicitudes"

// allRequests selects every estado in the filter.
const allRequests = "todas"

type option struct {
	Value string
	Label string
}

type requestsData struct {
	States []option
}

var requestStates = []option{
	{models.RequestPending, "Pendientes"},
	{models.RequestApproved, "Aprobadas"},
	{models.RequestRejected, "Rechazadas"},
	{allRequests, "Todas"},
}

// PaymentRequests lists pending requests unless another estado is chosen.
func (h *Handler) PaymentRequests(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("estado")
	switch selected {
	case "":
		selected = models.RequestPending
	case allRequests, models.RequestPending, models.RequestApproved, models.RequestRejected:
	default:
		h.fail(w, r, badInput("estado desconocido %q", selected), "")
		return
	}
	status := selected
	if status == allRequests {
		status = ""
	}

	q := listing.ParseQuery(r.URL.Query(), "")
	page, err := h.svc.Payments.ListRequests(r.Context(), status, q)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	v := h.newView(r, "Solicitudes", "solicitudes")
	v.Query = q
	v.Filters.Set("estado", selected)
	v.Page = page
	v.Data = requestsData{States: requestStates}
	h.render(w, r, "solicitudes.html", v)
}

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, requestsPath)
		return
	}
	req, err := h.svc.Payments.Approve(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, requestsPath)
		return
	}
	h.done(w, r, requestsPath, "Pago aprobado, ticket #"+req.TicketNumber+" pagado")
}

func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.fail(w, r, err, requestsPath)
		return
	}
	req, err := h.svc.Payments.Reject(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, requestsPath)
		return
	}
	h.done(w, r, requestsPath, "Solicitud rechazada, ticket #"+req.TicketNumber+" liberado")
}

// SubmitRequest is the public endpoint buyers post their proof of payment to.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r, formMemory); err != nil {
		h.failJSON(w, r, err)
		return
	}
	ticketID, err := formID(r.FormValue("ticket_id"))
	if err == nil && ticketID == 0 {
		err = badInput("falta el ticket")
	}
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	amount, err := parseAmount("monto", r.FormValue("monto"))
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	proof, err := formFile(r, "comprobante")
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	defer closeFile(proof)

	in := services.SubmitInput{
		TicketID: ticketID,
		Buyer: models.Buyer{
			FirstName:  r.FormValue("nombre"),
			LastName:   r.FormValue("apellido"),
			Email:      r.FormValue("email"),
			Phone:      strings.TrimSpace(r.FormValue("telefono")),
			NationalID: strings.TrimSpace(r.FormValue("cedula")),
		},
		Method:    r.FormValue("metodo_pago"),
		Reference: r.FormValue("referencia"),
		Amount:    amount,
	}
	req, err := h.svc.Payments.Submit(r.Context(), in, proof)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}
