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
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/carnetapp/carnet/database"
	"github.com/carnetapp/carnet/internal/apierror"
	"github.com/carnetapp/carnet/internal/connectivity"
	"github.com/carnetapp/carnet/internal/notification"
	"github.com/carnetapp/carnet/model"
)

// SyncEngine walks the staged offline orders whenever connectivity comes
// back (or on explicit demand) and replays them against the server. It is
// a pure function of its three collaborators (local store, gateway,
// connectivity signal), so the same engine runs inside the app process or
// a headless background worker.
type SyncEngine struct {
	datasource database.IDataSource
	gateway    OrderGateway
	signal     *connectivity.Signal

	mu      sync.Mutex // guards syncing
	syncing bool

	statusMu       sync.Mutex
	status         model.OrderSyncStatus
	nextListenerID int
	listeners      []statusListener

	onOrdersChanged func()
}

type statusListener struct {
	id int
	fn func(model.OrderSyncStatus)
}

func NewSyncEngine(db database.IDataSource, gateway OrderGateway, signal *connectivity.Signal) *SyncEngine {
	return &SyncEngine{datasource: db, gateway: gateway, signal: signal}
}

// Start wires the engine's triggers: every transition to online fires a
// pass, and one pass fires immediately if the process starts online. The
// returned function unsubscribes from the signal.
func (e *SyncEngine) Start(ctx context.Context) func() {
	unsubscribe := e.signal.OnChange(func(online bool) {
		if online {
			go func() {
				if _, err := e.TriggerSync(ctx); err != nil {
					logrus.Errorf("sync pass after reconnect failed: %v", err)
				}
			}()
		}
	})
	if e.signal.IsOnline() {
		go func() {
			if _, err := e.TriggerSync(ctx); err != nil {
				logrus.Errorf("startup sync pass failed: %v", err)
			}
		}()
	}
	return unsubscribe
}

// Status returns the current in-memory sync status.
func (e *SyncEngine) Status() model.OrderSyncStatus {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return e.status
}

// OnStatusChange registers a listener notified on every status change, in
// registration order, synchronously with the change. The returned function
// unsubscribes.
func (e *SyncEngine) OnStatusChange(fn func(model.OrderSyncStatus)) func() {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.nextListenerID++
	id := e.nextListenerID
	e.listeners = append(e.listeners, statusListener{id: id, fn: fn})
	return func() {
		e.statusMu.Lock()
		defer e.statusMu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

func (e *SyncEngine) setStatus(status model.OrderSyncStatus) {
	e.statusMu.Lock()
	e.status = status
	snapshot := make([]statusListener, len(e.listeners))
	copy(snapshot, e.listeners)
	e.statusMu.Unlock()

	for _, l := range snapshot {
		l.fn(status)
	}
}

// TriggerSync runs one sync pass over every order still owed an email
// confirmation. Only one pass runs at a time per process; a trigger that
// finds a pass in progress is dropped and reports Skipped, since the
// running pass already covers the pending set and flapping connectivity
// must not queue up passes.
func (e *SyncEngine) TriggerSync(ctx context.Context) (*model.SyncReport, error) {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return &model.SyncReport{Skipped: true}, nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	passID := uuid.New().String()[:8]

	pending, err := e.datasource.GetPendingEmailOrders(ctx)
	if err != nil {
		return nil, err
	}

	e.setStatus(model.OrderSyncStatus{Syncing: true, PendingCount: len(pending)})
	logrus.Infof("sync pass %s: %d offline order(s) pending", passID, len(pending))

	report := &model.SyncReport{}
	for _, order := range pending {
		if err := e.syncOne(ctx, order); err != nil {
			report.Failed++
			logrus.Errorf("sync pass %s: order %s failed: %v", passID, order.OfflineOrderID, err)
			continue
		}
		report.Success++
	}

	pendingCount, err := e.datasource.CountPendingEmailOrders(ctx)
	if err != nil {
		logrus.Errorf("sync pass %s: pending recount failed: %v", passID, err)
		pendingCount = report.Failed
	}

	e.setStatus(model.OrderSyncStatus{Syncing: false, PendingCount: pendingCount, LastResult: report})

	if report.Success > 0 {
		notification.NotifySyncSummary(report.Success, report.Failed)
	}
	// failures also mutate records (email_error), so any touched order
	// refreshes the pending list
	if report.Success+report.Failed > 0 && e.onOrdersChanged != nil {
		e.onOrdersChanged()
	}

	logrus.Infof("sync pass %s: %d synced, %d failed", passID, report.Success, report.Failed)
	return report, nil
}

// syncOne replays a single staged order. A fresh order goes through the
// full sync-offline endpoint, which creates the order server-side,
// renders documents and sends emails as one idempotent unit. An order
// already accepted by the server but missing its email confirmation (the
// footprint of a crash between the two markers) only goes through the
// lighter send-emails endpoint. Every failure is recorded on the record
// and left for the next pass; it never aborts the pass.
func (e *SyncEngine) syncOne(ctx context.Context, order *model.OfflineOrder) error {
	id := order.OfflineOrderID

	if !order.SyncedToServer {
		resp, err := e.gateway.SyncOfflineOrder(ctx, order)
		if err != nil {
			_ = e.datasource.MarkEmailResult(ctx, id, false, err.Error())
			return err
		}
		if err := e.datasource.MarkSynced(ctx, id); err != nil {
			return err
		}
		if !resp.EmailsSent {
			emailErr := resp.EmailError
			if emailErr == "" {
				emailErr = "server did not confirm email dispatch"
			}
			_ = e.datasource.MarkEmailResult(ctx, id, false, emailErr)
			return apierror.NewAPIError(apierror.ErrServerBusiness, emailErr, nil)
		}
		return e.datasource.MarkEmailResult(ctx, id, true, "")
	}

	// synced on a previous pass, email confirmation still outstanding
	if err := e.gateway.SendOrderEmails(ctx, id, order.Order.ClientEmail); err != nil {
		_ = e.datasource.MarkEmailResult(ctx, id, false, err.Error())
		return err
	}
	return e.datasource.MarkEmailResult(ctx, id, true, "")
}
