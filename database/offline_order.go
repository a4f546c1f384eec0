package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/carnetapp/carnet/internal/apierror"
	"github.com/carnetapp/carnet/model"
)

// errStorage tags any local store failure with the STORAGE_UNAVAILABLE
// code. Callers treat it as "still offline" and must not crash the
// submission flow.
func errStorage(message string, err error) error {
	return apierror.NewAPIError(apierror.ErrStorageUnavailable, message, errors.Wrap(err, "local store"))
}

func (d Datasource) SaveOfflineOrder(ctx context.Context, order *model.OfflineOrder) (*model.OfflineOrder, error) {
	payloadJSON, err := json.Marshal(order.Order)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal order payload", err)
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO offline_orders (id, payload, document, created_at, email_sent, email_sent_at, email_error, synced_to_server, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			payload = excluded.payload,
			document = excluded.document,
			created_at = excluded.created_at,
			email_sent = excluded.email_sent,
			email_sent_at = excluded.email_sent_at,
			email_error = excluded.email_error,
			synced_to_server = excluded.synced_to_server,
			synced_at = excluded.synced_at
	`, order.OfflineOrderID, string(payloadJSON), order.DocumentSnapshot, order.CreatedAt,
		order.EmailSent, order.EmailSentAt, order.EmailError, order.SyncedToServer, order.SyncedAt)
	if err != nil {
		return nil, errStorage("Failed to save offline order", err)
	}

	return order, nil
}

const offlineOrderColumns = `id, payload, document, created_at, email_sent, email_sent_at, email_error, synced_to_server, synced_at`

func (d Datasource) GetAllOfflineOrders(ctx context.Context) ([]*model.OfflineOrder, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+offlineOrderColumns+`
		FROM offline_orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, errStorage("Failed to retrieve offline orders", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanOfflineOrders(rows)
}

func (d Datasource) GetOfflineOrder(ctx context.Context, id string) (*model.OfflineOrder, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+offlineOrderColumns+`
		FROM offline_orders
		WHERE id = ?
	`, id)

	order, err := scanOfflineOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Offline order '"+id+"' not found", err)
		}
		return nil, errStorage("Failed to retrieve offline order", err)
	}
	return order, nil
}

// GetPendingEmailOrders returns every order still owed an email
// confirmation, oldest first so a sync pass replays them in creation
// order. Email confirmation subsumes server sync: an order cannot have
// email_sent without synced_to_server.
func (d Datasource) GetPendingEmailOrders(ctx context.Context) ([]*model.OfflineOrder, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+offlineOrderColumns+`
		FROM offline_orders
		WHERE email_sent = FALSE
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, errStorage("Failed to retrieve pending offline orders", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanOfflineOrders(rows)
}

func (d Datasource) CountPendingEmailOrders(ctx context.Context) (int, error) {
	var count int
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM offline_orders WHERE email_sent = FALSE
	`).Scan(&count)
	if err != nil {
		return 0, errStorage("Failed to count pending offline orders", err)
	}
	return count, nil
}

// MarkEmailResult records the outcome of an email attempt. On success the
// last error is cleared; on failure the message is kept for the pending
// list. An unknown id is a no-op, not an error.
func (d Datasource) MarkEmailResult(ctx context.Context, id string, success bool, errMsg string) error {
	if success {
		errMsg = ""
	}
	_, err := d.Conn.ExecContext(ctx, `
		UPDATE offline_orders
		SET email_sent = ?, email_sent_at = ?, email_error = ?
		WHERE id = ?
	`, success, time.Now(), errMsg, id)
	if err != nil {
		return errStorage("Failed to record email result", err)
	}
	return nil
}

func (d Datasource) MarkSynced(ctx context.Context, id string) error {
	_, err := d.Conn.ExecContext(ctx, `
		UPDATE offline_orders
		SET synced_to_server = TRUE, synced_at = ?
		WHERE id = ?
	`, time.Now(), id)
	if err != nil {
		return errStorage("Failed to mark offline order as synced", err)
	}
	return nil
}

func (d Datasource) DeleteOfflineOrder(ctx context.Context, id string) error {
	_, err := d.Conn.ExecContext(ctx, `
		DELETE FROM offline_orders WHERE id = ?
	`, id)
	if err != nil {
		return errStorage("Failed to delete offline order", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOfflineOrder(row rowScanner) (*model.OfflineOrder, error) {
	order := &model.OfflineOrder{}
	var payloadJSON string
	var emailSentAt, syncedAt sql.NullTime

	err := row.Scan(&order.OfflineOrderID, &payloadJSON, &order.DocumentSnapshot, &order.CreatedAt,
		&order.EmailSent, &emailSentAt, &order.EmailError, &order.SyncedToServer, &syncedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payloadJSON), &order.Order); err != nil {
		return nil, err
	}
	if emailSentAt.Valid {
		order.EmailSentAt = &emailSentAt.Time
	}
	if syncedAt.Valid {
		order.SyncedAt = &syncedAt.Time
	}
	return order, nil
}

func scanOfflineOrders(rows *sql.Rows) ([]*model.OfflineOrder, error) {
	var orders []*model.OfflineOrder
	for rows.Next() {
		order, err := scanOfflineOrder(rows)
		if err != nil {
			return nil, errStorage("Failed to scan offline order", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("Failed to iterate offline orders", err)
	}
	return orders, nil
}
