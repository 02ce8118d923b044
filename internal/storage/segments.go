package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// Record is a stored segment record.
type Record struct {
	UpdatedAt time.Time
	Data      []byte
	Key       model.ResourceKey
}

// ReadRecord returns the bytes stored under key for the city.
func (s *Store) ReadRecord(ctx context.Context, cityID string, key model.ResourceKey) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCityID(cityID); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT data FROM segments
		WHERE city_id = ? AND type_id = ? AND group_id = ? AND instance_id = ?
	`), cityID, int64(key.Type), int64(key.Group), int64(key.Instance)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %s of city %s", common.ErrNotFound, formatKey(key), cityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", formatKey(key), err)
	}
	return data, nil
}

// WriteRecord stores data under key for the city. With replace unset an
// existing record is left alone and ErrHostRejected is returned.
func (s *Store) WriteRecord(ctx context.Context, cityID string, key model.ResourceKey, data []byte, replace bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCityID(cityID); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	query := `
		INSERT INTO segments (city_id, type_id, group_id, instance_id, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (city_id, type_id, group_id, instance_id)
	`
	if replace {
		query += `DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	} else {
		query += `DO NOTHING`
	}

	result, err := s.db.ExecContext(ctx, s.rebind(query),
		cityID, int64(key.Type), int64(key.Group), int64(key.Instance), data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", formatKey(key), err)
	}

	if !replace {
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: record %s exists", common.ErrHostRejected, formatKey(key))
		}
	}
	return nil
}

// ListRecords returns every record of the city ordered by key.
func (s *Store) ListRecords(ctx context.Context, cityID string) ([]Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCityID(cityID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT type_id, group_id, instance_id, data, updated_at FROM segments
		WHERE city_id = ?
		ORDER BY type_id, group_id, instance_id
	`), cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var typ, group, instance int64
		if err := rows.Scan(&typ, &group, &instance, &r.Data, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Key = model.ResourceKey{Type: uint32(typ), Group: uint32(group), Instance: uint32(instance)}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// Segment returns a save segment view of the city's records.
func (s *Store) Segment(ctx context.Context, cityID string) service.DBSegment {
	return &citySegment{ctx: ctx, store: s, cityID: cityID}
}

type citySegment struct {
	ctx    context.Context
	store  *Store
	cityID string
}

func (c *citySegment) OpenIStream(key model.ResourceKey) (io.ReadCloser, error) {
	data, err := c.store.ReadRecord(c.ctx, c.cityID, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *citySegment) OpenOStream(key model.ResourceKey, replace bool) (io.WriteCloser, error) {
	if !replace {
		_, err := c.store.ReadRecord(c.ctx, c.cityID, key)
		if err == nil {
			return nil, fmt.Errorf("%w: record %s exists", common.ErrHostRejected, formatKey(key))
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}
	return &recordWriter{segment: c, key: key, replace: replace}, nil
}

// recordWriter buffers a record and stores it on Close.
type recordWriter struct {
	segment *citySegment
	buf     bytes.Buffer
	key     model.ResourceKey
	replace bool
	closed  bool
}

func (w *recordWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed record %s", formatKey(w.key))
	}
	return w.buf.Write(p)
}

func (w *recordWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.segment.store.WriteRecord(w.segment.ctx, w.segment.cityID, w.key, w.buf.Bytes(), w.replace)
}

func formatKey(key model.ResourceKey) string {
	return common.Hex(key.Type) + ":" + common.Hex(key.Group) + ":" + common.Hex(key.Instance)
}
