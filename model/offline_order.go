package model

import (
	"encoding/json"
	"time"
)

// OrderSyncState is the derived lifecycle tag for an offline order. The
// stored record only carries the synced/email booleans; the tag is computed
// on read so the storage schema stays additive-only.
type OrderSyncState string

const (
	StatePending             OrderSyncState = "PENDING"
	StateSyncedAwaitingEmail OrderSyncState = "SYNCED_AWAITING_EMAIL"
	StateComplete            OrderSyncState = "COMPLETE"
	StateFailed              OrderSyncState = "FAILED"
)

// OfflineOrder is one order staged locally, pending server confirmation.
type OfflineOrder struct {
	OfflineOrderID   string     `json:"id"`
	Order            Order      `json:"order"`
	DocumentSnapshot []byte     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	EmailSent        bool       `json:"email_sent"`
	EmailSentAt      *time.Time `json:"email_sent_at,omitempty"`
	EmailError       string     `json:"email_error,omitempty"`
	SyncedToServer   bool       `json:"synced_to_server"`
	SyncedAt         *time.Time `json:"synced_at,omitempty"`
}

// NewOfflineOrder stages an order for later sync. The record id is the
// order code, so a retry with the same code upserts instead of duplicating.
func NewOfflineOrder(order *Order, snapshot []byte) *OfflineOrder {
	return &OfflineOrder{
		OfflineOrderID:   order.Code,
		Order:            *order,
		DocumentSnapshot: snapshot,
		CreatedAt:        time.Now(),
	}
}

// State derives the lifecycle tag from the stored flags. A failed order
// keeps its EmailError as the failure reason.
func (o *OfflineOrder) State() OrderSyncState {
	switch {
	case o.EmailSent:
		return StateComplete
	case o.EmailError != "":
		return StateFailed
	case o.SyncedToServer:
		return StateSyncedAwaitingEmail
	default:
		return StatePending
	}
}

func (o *OfflineOrder) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}
