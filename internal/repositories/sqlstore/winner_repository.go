package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"rifas-admin/internal/models"
)

type WinnerRepository struct {
	db *sql.DB
}

func NewWinnerRepository(db *sql.DB) *WinnerRepository {
	return &WinnerRepository{db: db}
}

func (r *WinnerRepository) FindAll(ctx context.Context) ([]models.Winner, error) {
	query := `
		SELECT g.id, g.rifa_id, g.ticket_id, g.jugador_id, g.premio, g.created_at,
			COALESCE(v.numero, ''), COALESCE(v.rifa_nombre, ''),
			TRIM(COALESCE(v.jugador_nombre, '') || ' ' || COALESCE(v.jugador_apellido, ''))
		FROM ganadores g
		LEFT JOIN vista_tickets v ON v.id = g.ticket_id
		ORDER BY g.created_at DESC, g.id DESC`
	return scanPaged(ctx, r.db, query, nil, func(rows *sql.Rows) (models.Winner, error) {
		var w models.Winner
		var created string
		err := rows.Scan(&w.ID, &w.RaffleID, &w.TicketID, &w.PlayerID, &w.Prize, &created,
			&w.TicketNumber, &w.RaffleName, &w.PlayerName)
		w.CreatedAt = parseTime(created)
		return w, err
	})
}

func (r *WinnerRepository) Create(ctx context.Context, w *models.Winner) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ganadores (rifa_id, ticket_id, jugador_id, premio, created_at) VALUES (?, ?, ?, ?, ?)",
		w.RaffleID, w.TicketID, w.PlayerID, w.Prize, formatTime(w.CreatedAt))
	if err != nil {
		return duplicate(err)
	}
	w.ID, err = res.LastInsertId()
	return err
}

func (r *WinnerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM ganadores WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
