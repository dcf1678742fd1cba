package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"rifas-admin/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, nombre, rol, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.AdminUser, error) {
	var u models.AdminUser
	var created string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &created)
	u.CreatedAt = parseTime(created)
	return u, err
}

func (r *UserRepository) FindAll(ctx context.Context) ([]models.AdminUser, error) {
	return scanPaged(ctx, r.db, "SELECT "+userColumns+" FROM usuarios ORDER BY nombre ASC, id ASC", nil,
		func(rows *sql.Rows) (models.AdminUser, error) { return scanUser(rows) })
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM usuarios WHERE email = ?", strings.ToLower(email)))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.AdminUser) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Email = strings.ToLower(u.Email)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO usuarios (email, nombre, rol, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.Email, u.Name, u.Role, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		return duplicate(err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM usuarios WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
