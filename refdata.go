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

package carnet

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carnetapp/carnet/database"
	"github.com/carnetapp/carnet/internal/apierror"
	"github.com/carnetapp/carnet/internal/connectivity"
	"github.com/carnetapp/carnet/model"
)

// ReferenceSync refreshes the read-mostly reference collections (clients,
// suppliers, themes, commercials and their lightweight list variants) used
// to prefill the order form. Collections are independent, so fetches run
// concurrently and every collection that succeeds is kept even when others
// fail.
type ReferenceSync struct {
	datasource database.IDataSource
	gateway    OrderGateway
	signal     *connectivity.Signal

	mu      sync.Mutex // guards syncing
	syncing bool

	statusMu       sync.Mutex
	status         model.ReferenceSyncStatus
	nextListenerID int
	listeners      []refListener
}

type refListener struct {
	id int
	fn func(model.ReferenceSyncStatus)
}

// NewReferenceSync seeds LastSync from the newest persisted cache
// timestamp so the UI can show "last refreshed" across restarts.
func NewReferenceSync(db database.IDataSource, gateway OrderGateway, signal *connectivity.Signal) *ReferenceSync {
	r := &ReferenceSync{datasource: db, gateway: gateway, signal: signal}
	if lastSync, err := db.LatestCacheTimestamp(context.Background()); err == nil {
		r.status.LastSync = lastSync
	}
	return r
}

// Status returns the current in-memory reference sync status.
func (r *ReferenceSync) Status() model.ReferenceSyncStatus {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	return r.status
}

// OnStatusChange registers a listener notified on every status change, in
// registration order. The returned function unsubscribes.
func (r *ReferenceSync) OnStatusChange(fn func(model.ReferenceSyncStatus)) func() {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.nextListenerID++
	id := r.nextListenerID
	r.listeners = append(r.listeners, refListener{id: id, fn: fn})
	return func() {
		r.statusMu.Lock()
		defer r.statusMu.Unlock()
		for i, l := range r.listeners {
			if l.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

func (r *ReferenceSync) setStatus(status model.ReferenceSyncStatus) {
	r.statusMu.Lock()
	r.status = status
	snapshot := make([]refListener, len(r.listeners))
	copy(snapshot, r.listeners)
	r.statusMu.Unlock()

	for _, l := range snapshot {
		l.fn(status)
	}
}

// SyncAll refreshes every reference collection concurrently and reports
// whether the whole pass succeeded. It is a no-op returning false when
// offline or when a pass is already running. Individual failures set the
// pass error but never discard sibling collections that did succeed. A 401
// means "not logged in": it neither fails the pass nor blocks the other
// collections.
func (r *ReferenceSync) SyncAll(ctx context.Context) bool {
	if !r.signal.IsOnline() {
		return false
	}

	r.mu.Lock()
	if r.syncing {
		r.mu.Unlock()
		return false
	}
	r.syncing = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.syncing = false
		r.mu.Unlock()
	}()

	lastSync := r.Status().LastSync
	r.setStatus(model.ReferenceSyncStatus{Syncing: true, LastSync: lastSync})

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var failures []string

	for _, key := range model.ReferenceCollections() {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := r.syncCollection(ctx, key); err != nil {
				if apierror.Is(err, apierror.ErrUnauthorized) {
					logrus.Debugf("reference sync: %s skipped, not logged in", key)
					return
				}
				errMu.Lock()
				failures = append(failures, key+": "+err.Error())
				errMu.Unlock()
			}
		}(key)
	}
	wg.Wait()

	now := time.Now()
	status := model.ReferenceSyncStatus{LastSync: &now}
	if len(failures) > 0 {
		status.Error = strings.Join(failures, "; ")
		logrus.Warnf("reference sync finished with failures: %s", status.Error)
	}
	r.setStatus(status)

	return len(failures) == 0
}

func (r *ReferenceSync) syncCollection(ctx context.Context, key string) error {
	data, err := r.gateway.FetchCollection(ctx, key)
	if err != nil {
		return err
	}
	return r.datasource.PutCachedData(ctx, &model.CachedReferenceData{
		Key:        key,
		Data:       data,
		CachedAt:   time.Now(),
		FromServer: true,
	})
}
