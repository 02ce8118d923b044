package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
)

// City is a saved city whose segments live in the store.
type City struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Name      string
	Months    int64
}

// CreateCity stores a new city with a fresh ULID.
func (s *Store) CreateCity(ctx context.Context, name string) (*City, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	city := &City{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO cities (id, name, created_at, updated_at, months)
		VALUES (?, ?, ?, ?, 0)
	`), city.ID, city.Name, city.CreatedAt, city.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create city %q: %w", name, err)
	}

	return city, nil
}

// GetCity returns the city with the given id.
func (s *Store) GetCity(ctx context.Context, id string) (*City, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCityID(id); err != nil {
		return nil, err
	}

	return s.scanCity(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, created_at, updated_at, months FROM cities WHERE id = ?
	`), id), id)
}

// FindCityByName returns the city with the given name.
func (s *Store) FindCityByName(ctx context.Context, name string) (*City, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	return s.scanCity(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, created_at, updated_at, months FROM cities WHERE name = ?
	`), name), name)
}

// OpenOrCreateCity returns the named city, creating it when missing.
func (s *Store) OpenOrCreateCity(ctx context.Context, name string) (*City, error) {
	city, err := s.FindCityByName(ctx, name)
	if err == nil {
		return city, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return s.CreateCity(ctx, name)
}

// ListCities returns all cities ordered by name.
func (s *Store) ListCities(ctx context.Context) ([]City, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at, months FROM cities ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cities []City
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.Months); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cities: %w", err)
	}

	return cities, nil
}

// AddMonths advances the city's simulated month counter.
func (s *Store) AddMonths(ctx context.Context, id string, months int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCityID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE cities SET months = months + ?, updated_at = ? WHERE id = ?
	`), months, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update city %s: %w", id, err)
	}
	return requireAffected(result, "city "+id)
}

// DeleteCity removes a city and all of its segments.
func (s *Store) DeleteCity(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCityID(id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM segments WHERE city_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete segments of city %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM cities WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete city %s: %w", id, err)
	}
	if err := requireAffected(result, "city "+id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) scanCity(row *sql.Row, what string) (*City, error) {
	var c City
	err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.Months)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: city %s", common.ErrNotFound, what)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city %s: %w", what, err)
	}
	return &c, nil
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", common.ErrNotFound, what)
	}
	return nil
}
