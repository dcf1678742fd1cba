package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"rifas-admin/internal/models"
)

type PlayerRepository struct {
	db *sql.DB
}

func NewPlayerRepository(db *sql.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, nombre, apellido, email, telefono, cedula, numeros_favoritos, created_at`

func scanPlayer(row interface{ Scan(...any) error }) (models.Player, error) {
	var p models.Player
	var created string
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.NationalID, &p.FavoriteNumbers, &created)
	p.CreatedAt = parseTime(created)
	return p, err
}

func (r *PlayerRepository) FindAll(ctx context.Context) ([]models.Player, error) {
	return scanPaged(ctx, r.db, "SELECT "+playerColumns+" FROM jugadores ORDER BY created_at DESC, id DESC", nil,
		func(rows *sql.Rows) (models.Player, error) { return scanPlayer(rows) })
}

func (r *PlayerRepository) FindByID(ctx context.Context, id int64) (*models.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM jugadores WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PlayerRepository) Create(ctx context.Context, p *models.Player) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO jugadores (nombre, apellido, email, telefono, cedula, numeros_favoritos, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.FirstName, p.LastName, p.Email, p.Phone, p.NationalID, p.FavoriteNumbers, formatTime(p.CreatedAt))
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *PlayerRepository) Update(ctx context.Context, p *models.Player) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE jugadores SET nombre = ?, apellido = ?, email = ?, telefono = ?, cedula = ?, numeros_favoritos = ? WHERE id = ?",
		p.FirstName, p.LastName, p.Email, p.Phone, p.NationalID, p.FavoriteNumbers, p.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PlayerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM jugadores WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
