package model

import (
	"encoding/json"
	"time"
)

// Cache keys for the read-mostly reference collections used to prefill the
// order form. The *_list variants are the lightweight projections the form
// loads first. These are stable storage identifiers; renaming one requires
// a migration.
const (
	CacheKeyOrders          = "orders"
	CacheKeyCommercials     = "commercials"
	CacheKeyClients         = "clients"
	CacheKeySuppliers       = "suppliers"
	CacheKeyThemes          = "themes"
	CacheKeyClientsList     = "clients_list"
	CacheKeySuppliersList   = "suppliers_list"
	CacheKeyThemesList      = "themes_list"
	CacheKeyCommercialsList = "commercials_list"
)

// ReferenceCollections lists every collection a reference sync pass
// refreshes.
func ReferenceCollections() []string {
	return []string{
		CacheKeyOrders,
		CacheKeyCommercials,
		CacheKeyClients,
		CacheKeySuppliers,
		CacheKeyThemes,
		CacheKeyClientsList,
		CacheKeySuppliersList,
		CacheKeyThemesList,
		CacheKeyCommercialsList,
	}
}

// CachedReferenceData is the envelope stored per collection. It is
// overwritten wholesale on each successful refresh, never merged.
type CachedReferenceData struct {
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data"`
	CachedAt   time.Time       `json:"cached_at"`
	FromServer bool            `json:"from_server"`
}
