package model

import "time"

// SyncReport summarizes one background sync pass over pending offline
// orders. Skipped is true when a trigger found a pass already running and
// dropped out without doing any work.
type SyncReport struct {
	Success int  `json:"success"`
	Failed  int  `json:"failed"`
	Skipped bool `json:"skipped,omitempty"`
}

// OrderSyncStatus is the in-memory, per-process status broadcast by the
// sync engine. It is never persisted.
type OrderSyncStatus struct {
	Syncing      bool        `json:"syncing"`
	PendingCount int         `json:"pending_count"`
	LastResult   *SyncReport `json:"last_sync_result,omitempty"`
}

// ReferenceSyncStatus is the in-memory status of the reference-data sync.
// LastSync is seeded at startup from the newest persisted cache timestamp.
type ReferenceSyncStatus struct {
	Syncing  bool       `json:"syncing"`
	LastSync *time.Time `json:"last_sync"`
	Error    string     `json:"error,omitempty"`
}
