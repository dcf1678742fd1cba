package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

type PaymentRequestRepository struct {
	db *sql.DB
}

func NewPaymentRequestRepository(db *sql.DB) *PaymentRequestRepository {
	return &PaymentRequestRepository{db: db}
}

const requestSelect = `
	SELECT s.id, s.ticket_id, s.metodo_pago, s.referencia, s.monto, s.comprobante_url, s.estado, s.created_at, s.fecha_resolucion,
		COALESCE(v.numero, ''), COALESCE(v.rifa_id, 0), COALESCE(v.rifa_nombre, ''),
		TRIM(COALESCE(v.jugador_nombre, '') || ' ' || COALESCE(v.jugador_apellido, ''))
	FROM solicitudes_pago s
	LEFT JOIN vista_tickets v ON v.id = s.ticket_id`

func scanRequest(row interface{ Scan(...any) error }) (models.PaymentRequest, error) {
	var pr models.PaymentRequest
	var created string
	var resolved sql.NullString
	err := row.Scan(&pr.ID, &pr.TicketID, &pr.Method, &pr.Reference, &pr.Amount, &pr.ProofURL, &pr.Status, &created, &resolved,
		&pr.TicketNumber, &pr.RaffleID, &pr.RaffleName, &pr.PlayerName)
	if err != nil {
		return pr, err
	}
	pr.CreatedAt = parseTime(created)
	pr.ResolvedAt = parseNullTime(resolved)
	return pr, nil
}

// FindAll lists requests newest first; an empty status means all of them.
func (r *PaymentRequestRepository) FindAll(ctx context.Context, status string) ([]models.PaymentRequest, error) {
	query := requestSelect
	var args []any
	if status != "" {
		query += " WHERE s.estado = ?"
		args = append(args, status)
	}
	query += " ORDER BY s.created_at DESC, s.id DESC"
	return scanPaged(ctx, r.db, query, args,
		func(rows *sql.Rows) (models.PaymentRequest, error) { return scanRequest(rows) })
}

func (r *PaymentRequestRepository) FindByTicket(ctx context.Context, ticketID int64) ([]models.PaymentRequest, error) {
	return scanPaged(ctx, r.db, requestSelect+" WHERE s.ticket_id = ? ORDER BY s.created_at DESC, s.id DESC", []any{ticketID},
		func(rows *sql.Rows) (models.PaymentRequest, error) { return scanRequest(rows) })
}

func (r *PaymentRequestRepository) FindByID(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	pr, err := scanRequest(r.db.QueryRowContext(ctx, requestSelect+" WHERE s.id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &pr, nil
}

func (r *PaymentRequestRepository) Create(ctx context.Context, pr *models.PaymentRequest) error {
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = time.Now()
	}
	if pr.Status == "" {
		pr.Status = models.RequestPending
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO solicitudes_pago (ticket_id, metodo_pago, referencia, monto, comprobante_url, estado, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pr.TicketID, pr.Method, pr.Reference, pr.Amount, pr.ProofURL, pr.Status, formatTime(pr.CreatedAt))
	if err != nil {
		return err
	}
	pr.ID, err = res.LastInsertId()
	return err
}

func (r *PaymentRequestRepository) Approve(ctx context.Context, id int64, at time.Time) error {
	return r.resolve(ctx, id, models.RequestApproved, at, func(tx *sql.Tx, ticketID int64) error {
		res, err := tx.ExecContext(ctx, "UPDATE tickets SET estado = ? WHERE id = ?", models.TicketPaid, ticketID)
		if err != nil {
			return err
		}
		return checkAffected(res)
	})
}

func (r *PaymentRequestRepository) Reject(ctx context.Context, id int64, at time.Time) error {
	return r.resolve(ctx, id, models.RequestRejected, at, func(tx *sql.Tx, ticketID int64) error {
		return releaseTicket(ctx, tx, ticketID)
	})
}

// resolve applies the ticket change and stamps the request inside one transaction.
// Only pendiente requests are touched.
func (r *PaymentRequestRepository) resolve(ctx context.Context, id int64, status string, at time.Time, ticketStep func(*sql.Tx, int64) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ticketID int64
	err = tx.QueryRowContext(ctx, "SELECT ticket_id FROM solicitudes_pago WHERE id = ? AND estado = ?", id, models.RequestPending).Scan(&ticketID)
	if err != nil {
		return notFound(err)
	}
	if err := ticketStep(tx, ticketID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("ticket %d: %w", ticketID, err)
		}
		return err
	}
	res, err := tx.ExecContext(ctx, "UPDATE solicitudes_pago SET estado = ?, fecha_resolucion = ? WHERE id = ?", status, formatTime(at), id)
	if err != nil {
		return err
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}
