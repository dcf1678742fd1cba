package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, rifa_id, jugador_id, numero, precio, estado,
	comprador_nombre, comprador_apellido, comprador_email, comprador_telefono, comprador_cedula, created_at`

const ticketViewColumns = ticketColumns + `,
	jugador_nombre, jugador_apellido, jugador_email, jugador_telefono, jugador_cedula, rifa_nombre, rifa_estado`

func ticketDest(t *models.Ticket, playerID *sql.NullInt64, created *string) []any {
	return []any{&t.ID, &t.RaffleID, playerID, &t.Number, &t.Price, &t.Status,
		&t.Buyer.FirstName, &t.Buyer.LastName, &t.Buyer.Email, &t.Buyer.Phone, &t.Buyer.NationalID, created}
}

func finishTicket(t *models.Ticket, playerID sql.NullInt64, created string) {
	if playerID.Valid {
		id := playerID.Int64
		t.PlayerID = &id
	}
	t.CreatedAt = parseTime(created)
}

func scanTicket(row interface{ Scan(...any) error }) (models.Ticket, error) {
	var t models.Ticket
	var playerID sql.NullInt64
	var created string
	if err := row.Scan(ticketDest(&t, &playerID, &created)...); err != nil {
		return t, err
	}
	finishTicket(&t, playerID, created)
	return t, nil
}

func scanTicketView(row interface{ Scan(...any) error }) (models.TicketView, error) {
	var v models.TicketView
	var playerID sql.NullInt64
	var created string
	var first, last, email, phone, cedula, raffleName, raffleStatus sql.NullString
	dest := append(ticketDest(&v.Ticket, &playerID, &created),
		&first, &last, &email, &phone, &cedula, &raffleName, &raffleStatus)
	if err := row.Scan(dest...); err != nil {
		return v, err
	}
	finishTicket(&v.Ticket, playerID, created)
	v.PlayerFirstName = first.String
	v.PlayerLastName = last.String
	v.PlayerEmail = email.String
	v.PlayerPhone = phone.String
	v.PlayerNationalID = cedula.String
	v.RaffleName = raffleName.String
	v.RaffleStatus = raffleStatus.String
	return v, nil
}

// FindViews reads vista_tickets, newest first.
func (r *TicketRepository) FindViews(ctx context.Context, f repositories.TicketFilter) ([]models.TicketView, error) {
	var where []string
	var args []any
	if f.RaffleID != 0 {
		where = append(where, "rifa_id = ?")
		args = append(args, f.RaffleID)
	}
	if f.PlayerID != 0 {
		where = append(where, "jugador_id = ?")
		args = append(args, f.PlayerID)
	}
	if f.Status != "" {
		where = append(where, "estado = ?")
		args = append(args, f.Status)
	}

	query := "SELECT " + ticketViewColumns + " FROM vista_tickets"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	return scanPaged(ctx, r.db, query, args,
		func(rows *sql.Rows) (models.TicketView, error) { return scanTicketView(rows) })
}

func (r *TicketRepository) FindViewByID(ctx context.Context, id int64) (*models.TicketView, error) {
	v, err := scanTicketView(r.db.QueryRowContext(ctx, "SELECT "+ticketViewColumns+" FROM vista_tickets WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tickets SET estado = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Reserve hands an available ticket to a buyer and marks it apartado.
// A ticket that is no longer disponible yields ErrNotFound.
func (r *TicketRepository) Reserve(ctx context.Context, id int64, playerID *int64, b models.Buyer) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET jugador_id = ?, estado = ?,
			comprador_nombre = ?, comprador_apellido = ?, comprador_email = ?, comprador_telefono = ?, comprador_cedula = ?
		WHERE id = ? AND estado = ?`,
		nullableID(playerID), models.TicketReserved, b.FirstName, b.LastName, b.Email, b.Phone, b.NationalID, id, models.TicketAvailable)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *TicketRepository) Release(ctx context.Context, id int64) error {
	return releaseTicket(ctx, r.db, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func releaseTicket(ctx context.Context, db execer, id int64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tickets SET jugador_id = NULL, estado = ?,
			comprador_nombre = '', comprador_apellido = '', comprador_email = '', comprador_telefono = '', comprador_cedula = ''
		WHERE id = ?`, models.TicketAvailable, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Delete removes the ticket along with its payment requests.
func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM solicitudes_pago WHERE ticket_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ganadores WHERE ticket_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}
