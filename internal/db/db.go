package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"rifas-admin/internal/config"
)

// Open connects to the hosted store (or a local SQLite file) and makes sure
// the tables and the ticket view exist.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	driver, dsn := "sqlite3", cfg.URL
	if cfg.IsRemote() {
		driver, dsn = "libsql", withAuthToken(cfg.URL, cfg.AuthToken)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err = CreateTables(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func withAuthToken(rawURL, token string) string {
	u, err := url.Parse(rawURL)
	if err != nil || token == "" {
		return rawURL
	}
	q := u.Query()
	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// Timestamps are stored as fixed-width RFC3339 text so both drivers scan them the same way.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS jugadores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT NOT NULL,
		apellido TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		telefono TEXT NOT NULL DEFAULT '',
		cedula TEXT NOT NULL DEFAULT '',
		numeros_favoritos TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rifas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT NOT NULL,
		descripcion TEXT NOT NULL DEFAULT '',
		precio_ticket REAL NOT NULL,
		total_tickets INTEGER NOT NULL,
		fecha_inicio TEXT,
		fecha_fin TEXT,
		premios TEXT NOT NULL DEFAULT '[]',
		categoria TEXT NOT NULL DEFAULT '',
		reglas TEXT NOT NULL DEFAULT '',
		imagen_url TEXT NOT NULL DEFAULT '',
		estado TEXT NOT NULL DEFAULT 'activa',
		created_at TEXT NOT NULL
	)`,
	// jugador_id has no foreign key: deleting a player leaves its tickets behind
	`CREATE TABLE IF NOT EXISTS tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rifa_id INTEGER NOT NULL,
		jugador_id INTEGER,
		numero TEXT NOT NULL,
		precio REAL NOT NULL,
		estado TEXT NOT NULL DEFAULT 'disponible',
		comprador_nombre TEXT NOT NULL DEFAULT '',
		comprador_apellido TEXT NOT NULL DEFAULT '',
		comprador_email TEXT NOT NULL DEFAULT '',
		comprador_telefono TEXT NOT NULL DEFAULT '',
		comprador_cedula TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY(rifa_id) REFERENCES rifas(id)
	)`,
	`CREATE TABLE IF NOT EXISTS solicitudes_pago (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id INTEGER NOT NULL,
		metodo_pago TEXT NOT NULL DEFAULT '',
		referencia TEXT NOT NULL DEFAULT '',
		monto REAL NOT NULL DEFAULT 0,
		comprobante_url TEXT NOT NULL DEFAULT '',
		estado TEXT NOT NULL DEFAULT 'pendiente',
		created_at TEXT NOT NULL,
		fecha_resolucion TEXT,
		FOREIGN KEY(ticket_id) REFERENCES tickets(id)
	)`,
	`CREATE TABLE IF NOT EXISTS ganadores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rifa_id INTEGER NOT NULL,
		ticket_id INTEGER NOT NULL,
		jugador_id INTEGER NOT NULL,
		premio TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usuarios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		nombre TEXT NOT NULL DEFAULT '',
		rol TEXT NOT NULL DEFAULT 'operador',
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_rifa ON tickets (rifa_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_jugador ON tickets (jugador_id)`,
	`CREATE INDEX IF NOT EXISTS idx_solicitudes_ticket ON solicitudes_pago (ticket_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_ganadores_ticket ON ganadores (ticket_id)`,
	`CREATE VIEW IF NOT EXISTS vista_tickets AS
		SELECT
			t.id, t.rifa_id, t.jugador_id, t.numero, t.precio, t.estado,
			t.comprador_nombre, t.comprador_apellido, t.comprador_email,
			t.comprador_telefono, t.comprador_cedula, t.created_at,
			COALESCE(j.nombre, t.comprador_nombre) AS jugador_nombre,
			COALESCE(j.apellido, t.comprador_apellido) AS jugador_apellido,
			COALESCE(j.email, t.comprador_email) AS jugador_email,
			COALESCE(j.telefono, t.comprador_telefono) AS jugador_telefono,
			COALESCE(j.cedula, t.comprador_cedula) AS jugador_cedula,
			r.nombre AS rifa_nombre,
			r.estado AS rifa_estado
		FROM tickets t
		JOIN rifas r ON r.id = t.rifa_id
		LEFT JOIN jugadores j ON j.id = t.jugador_id`,
}

// CreateTables is idempotent.
func CreateTables(conn *sql.DB) error {
	for _, query := range schema {
		if _, err := conn.Exec(query); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
