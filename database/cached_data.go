package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/carnetapp/carnet/internal/apierror"
	"github.com/carnetapp/carnet/model"
)

const cachedDataTTL = 24 * time.Hour

// PutCachedData overwrites the stored envelope for a collection key and
// refreshes the in-process tier. Wholesale replacement, never a merge.
func (d Datasource) PutCachedData(ctx context.Context, record *model.CachedReferenceData) error {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO cached_data (key, data, cached_at, from_server)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			data = excluded.data,
			cached_at = excluded.cached_at,
			from_server = excluded.from_server
	`, record.Key, string(record.Data), record.CachedAt, record.FromServer)
	if err != nil {
		return errStorage("Failed to store cached reference data", err)
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, record.Key, record, cachedDataTTL); err != nil {
			// read cache is an optimization; the sqlite row is the truth
			return nil
		}
	}
	return nil
}

func (d Datasource) GetCachedData(ctx context.Context, key string) (*model.CachedReferenceData, error) {
	if d.Cache != nil {
		cached := &model.CachedReferenceData{}
		if err := d.Cache.Get(ctx, key, cached); err == nil {
			return cached, nil
		}
	}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT key, data, cached_at, from_server
		FROM cached_data
		WHERE key = ?
	`, key)

	record := &model.CachedReferenceData{}
	var data string
	err := row.Scan(&record.Key, &data, &record.CachedAt, &record.FromServer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "No cached data for key '"+key+"'", err)
		}
		return nil, errStorage("Failed to retrieve cached reference data", err)
	}
	record.Data = []byte(data)

	if d.Cache != nil {
		_ = d.Cache.Set(ctx, key, record, cachedDataTTL)
	}
	return record, nil
}

func (d Datasource) ClearCachedData(ctx context.Context, key string) error {
	_, err := d.Conn.ExecContext(ctx, `
		DELETE FROM cached_data WHERE key = ?
	`, key)
	if err != nil {
		return errStorage("Failed to clear cached reference data", err)
	}
	if d.Cache != nil {
		_ = d.Cache.Delete(ctx, key)
	}
	return nil
}

// LatestCacheTimestamp returns the newest cached_at across all
// collections. Used to seed the reference sync status at process start.
func (d Datasource) LatestCacheTimestamp(ctx context.Context) (*time.Time, error) {
	var cachedAt time.Time
	err := d.Conn.QueryRowContext(ctx, `
		SELECT cached_at FROM cached_data ORDER BY cached_at DESC LIMIT 1
	`).Scan(&cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errStorage("Failed to read cache timestamps", err)
	}
	return &cachedAt, nil
}
