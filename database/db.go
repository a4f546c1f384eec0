package database

import (
	"database/sql"
	"log"
	"sync"

	"github.com/carnetapp/carnet/cache"
	"github.com/carnetapp/carnet/config"

	_ "github.com/mattn/go-sqlite3"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

// Datasource is the durable local store: a sqlite database on the device
// plus an in-process read cache for the reference collections.
type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
// Concurrent callers all receive the same live handle.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		localCache, errCache := cache.NewCache()
		if errCache != nil {
			err = errCache
			return
		}
		instance = &Datasource{Conn: con, Cache: localCache}
	})
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, errStorage("local store failed to initialize on a previous attempt", nil)
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("local store connection error ❌: %v", err)
		return nil, err
	}
	// sqlite allows one writer at a time; serialize instead of failing fast
	// when the sync engine and the orchestrator write concurrently.
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		return nil, err
	}
	err = createOfflineOrderTable(db)
	if err != nil {
		return nil, err
	}
	err = createCachedDataTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createOfflineOrderTable creates the sqlite table for staged offline orders.
// Column names are stable storage identifiers; schema changes must stay
// additive.
func createOfflineOrderTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS offline_orders (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			document BLOB,
			created_at TIMESTAMP NOT NULL,
			email_sent BOOLEAN NOT NULL DEFAULT FALSE,
			email_sent_at TIMESTAMP,
			email_error TEXT NOT NULL DEFAULT '',
			synced_to_server BOOLEAN NOT NULL DEFAULT FALSE,
			synced_at TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_offline_orders_email_sent ON offline_orders (email_sent);
		CREATE INDEX IF NOT EXISTS idx_offline_orders_synced ON offline_orders (synced_to_server);
		CREATE INDEX IF NOT EXISTS idx_offline_orders_created_at ON offline_orders (created_at);
	`)
	return err
}

// createCachedDataTable creates the sqlite table for reference-data cache
// envelopes, one row per collection key, overwritten wholesale on refresh.
func createCachedDataTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cached_data (
			key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			cached_at TIMESTAMP NOT NULL,
			from_server BOOLEAN NOT NULL DEFAULT FALSE
		);
	`)
	return err
}
