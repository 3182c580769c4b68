package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ekaa/internal/registration/models"
)

var tracer = otel.Tracer("ekaa/internal/registration/store")

// Dialect selects the DDL flavour; queries are shared because both engines
// accept $N placeholders and INSERT ... RETURNING.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS registrations (
	id                 BIGSERIAL PRIMARY KEY,
	name               VARCHAR(255),
	email              VARCHAR(255),
	phone              VARCHAR(255),
	country_city       VARCHAR(255),
	created_at         VARCHAR(255),
	connected_with     VARCHAR(255),
	selected_trainings TEXT
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS registrations (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	name               TEXT,
	email              TEXT,
	phone              TEXT,
	country_city       TEXT,
	created_at         TEXT,
	connected_with     TEXT,
	selected_trainings TEXT
)`

// SQLStore persists registrations in a relational table. It is pure I/O:
// validation and normalization belong to the service.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQL(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// EnsureSchema creates the registrations table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	ddl := postgresSchema
	if s.dialect == DialectSQLite {
		ddl = sqliteSchema
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create registrations table: %w", err)
	}
	return nil
}

func (s *SQLStore) Create(ctx context.Context, reg *models.Registration) error {
	ctx, span := tracer.Start(ctx, "registrations.insert")
	defer span.End()

	query := `
		INSERT INTO registrations (name, email, phone, country_city, created_at, connected_with, selected_trainings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		reg.Name,
		reg.Email,
		reg.Phone,
		nullable(reg.CountryCity),
		nullable(reg.CreatedAt),
		nullable(reg.ConnectedWith),
		reg.SelectedTrainings,
	).Scan(&reg.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert registration: %w", err)
	}
	span.SetAttributes(attribute.Int64("registration.id", reg.ID))
	return nil
}

func (s *SQLStore) FindAll(ctx context.Context) ([]*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registrations.select_all")
	defer span.End()

	query := `
		SELECT id, name, email, phone, country_city, created_at, connected_with, selected_trainings
		FROM registrations
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	span.SetAttributes(attribute.Int("registrations.count", len(out)))
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		reg                                   models.Registration
		name, email, phone, trainings         sql.NullString
		countryCity, createdAt, connectedWith sql.NullString
	)
	if err := row.Scan(&reg.ID, &name, &email, &phone, &countryCity, &createdAt, &connectedWith, &trainings); err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	reg.Name = name.String
	reg.Email = email.String
	reg.Phone = phone.String
	reg.SelectedTrainings = trainings.String
	reg.CountryCity = fromNull(countryCity)
	reg.CreatedAt = fromNull(createdAt)
	reg.ConnectedWith = fromNull(connectedWith)
	return &reg, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
