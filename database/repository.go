/*
Copyright 2024 Carnet Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"time"

	"github.com/carnetapp/carnet/model"
)

// IDataSource defines the interface for local store operations, grouping related functionalities.
type IDataSource interface {
	offlineOrder // Interface for staged offline order operations
	cachedData   // Interface for reference-data cache operations
}

// offlineOrder defines methods for handling staged offline orders. Every
// operation is atomic at the single-record level; there are no multi-record
// transactions, so callers must tolerate one record in an intermediate
// state after a crash.
type offlineOrder interface {
	SaveOfflineOrder(ctx context.Context, order *model.OfflineOrder) (*model.OfflineOrder, error) // Upserts a staged order by id
	GetAllOfflineOrders(ctx context.Context) ([]*model.OfflineOrder, error)                       // Retrieves all staged orders, newest first
	GetOfflineOrder(ctx context.Context, id string) (*model.OfflineOrder, error)                  // Retrieves a staged order by id
	GetPendingEmailOrders(ctx context.Context) ([]*model.OfflineOrder, error)                     // Retrieves orders whose email is not yet confirmed
	CountPendingEmailOrders(ctx context.Context) (int, error)                                     // Counts orders whose email is not yet confirmed
	MarkEmailResult(ctx context.Context, id string, success bool, errMsg string) error            // Records the outcome of an email attempt; no-op on unknown id
	MarkSynced(ctx context.Context, id string) error                                              // Marks the order as durably accepted by the server
	DeleteOfflineOrder(ctx context.Context, id string) error                                      // Removes a staged order
}

// cachedData defines methods for the reference-data cache rows.
type cachedData interface {
	PutCachedData(ctx context.Context, record *model.CachedReferenceData) error  // Overwrites the envelope for a collection key
	GetCachedData(ctx context.Context, key string) (*model.CachedReferenceData, error)
	ClearCachedData(ctx context.Context, key string) error
	LatestCacheTimestamp(ctx context.Context) (*time.Time, error) // Newest cached_at across all collections, nil when empty
}
