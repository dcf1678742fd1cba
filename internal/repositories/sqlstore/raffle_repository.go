package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rifas-admin/internal/models"
)

type RaffleRepository struct {
	db *sql.DB
}

func NewRaffleRepository(db *sql.DB) *RaffleRepository {
	return &RaffleRepository{db: db}
}

const raffleColumns = `id, nombre, descripcion, precio_ticket, total_tickets, fecha_inicio, fecha_fin, premios, categoria, reglas, imagen_url, estado, created_at`

func scanRaffle(row interface{ Scan(...any) error }) (models.Raffle, error) {
	var r models.Raffle
	var starts, ends sql.NullString
	var prizes, created string
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.TicketPrice, &r.TotalTickets, &starts, &ends,
		&prizes, &r.Category, &r.Rules, &r.ImageURL, &r.Status, &created)
	if err != nil {
		return r, err
	}
	r.StartsAt = parseNullTime(starts)
	r.EndsAt = parseNullTime(ends)
	r.CreatedAt = parseTime(created)
	if prizes != "" {
		if err := json.Unmarshal([]byte(prizes), &r.Prizes); err != nil {
			return r, fmt.Errorf("raffle %d premios: %w", r.ID, err)
		}
	}
	return r, nil
}

func encodePrizes(p []models.PrizeTier) (string, error) {
	if p == nil {
		p = []models.PrizeTier{}
	}
	b, err := json.Marshal(p)
	return string(b), err
}

func (r *RaffleRepository) FindAll(ctx context.Context) ([]models.Raffle, error) {
	return scanPaged(ctx, r.db, "SELECT "+raffleColumns+" FROM rifas ORDER BY created_at DESC, id DESC", nil,
		func(rows *sql.Rows) (models.Raffle, error) { return scanRaffle(rows) })
}

func (r *RaffleRepository) FindByStatus(ctx context.Context, status string) ([]models.Raffle, error) {
	return scanPaged(ctx, r.db, "SELECT "+raffleColumns+" FROM rifas WHERE estado = ? ORDER BY created_at DESC, id DESC", []any{status},
		func(rows *sql.Rows) (models.Raffle, error) { return scanRaffle(rows) })
}

func (r *RaffleRepository) FindByID(ctx context.Context, id int64) (*models.Raffle, error) {
	raf, err := scanRaffle(r.db.QueryRowContext(ctx, "SELECT "+raffleColumns+" FROM rifas WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &raf, nil
}

// Create inserts the raffle and one available ticket per number.
func (r *RaffleRepository) Create(ctx context.Context, raf *models.Raffle, numbers []string) error {
	prizes, err := encodePrizes(raf.Prizes)
	if err != nil {
		return err
	}
	if raf.CreatedAt.IsZero() {
		raf.CreatedAt = time.Now()
	}
	if raf.Status == "" {
		raf.Status = models.RaffleActive
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO rifas (nombre, descripcion, precio_ticket, total_tickets, fecha_inicio, fecha_fin, premios, categoria, reglas, imagen_url, estado, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		raf.Name, raf.Description, raf.TicketPrice, raf.TotalTickets, nullableTime(raf.StartsAt), nullableTime(raf.EndsAt),
		prizes, raf.Category, raf.Rules, raf.ImageURL, raf.Status, formatTime(raf.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert raffle: %w", err)
	}
	raffleID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO tickets (rifa_id, numero, precio, estado, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	created := formatTime(raf.CreatedAt)
	for _, num := range numbers {
		if _, err := stmt.ExecContext(ctx, raffleID, num, raf.TicketPrice, models.TicketAvailable, created); err != nil {
			return fmt.Errorf("insert ticket %s: %w", num, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	raf.ID = raffleID
	return nil
}

// Update leaves total_tickets and created_at alone.
func (r *RaffleRepository) Update(ctx context.Context, raf *models.Raffle) error {
	prizes, err := encodePrizes(raf.Prizes)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE rifas SET nombre = ?, descripcion = ?, precio_ticket = ?, fecha_inicio = ?, fecha_fin = ?,
			premios = ?, categoria = ?, reglas = ?, imagen_url = ?, estado = ?
		WHERE id = ?`,
		raf.Name, raf.Description, raf.TicketPrice, nullableTime(raf.StartsAt), nullableTime(raf.EndsAt),
		prizes, raf.Category, raf.Rules, raf.ImageURL, raf.Status, raf.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *RaffleRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE rifas SET estado = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Delete removes the raffle together with its tickets, requests and winners.
func (r *RaffleRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	steps := []string{
		"DELETE FROM ganadores WHERE rifa_id = ?",
		"DELETE FROM solicitudes_pago WHERE ticket_id IN (SELECT id FROM tickets WHERE rifa_id = ?)",
		"DELETE FROM tickets WHERE rifa_id = ?",
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM rifas WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}
