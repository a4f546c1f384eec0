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
	"encoding/json"

	"github.com/carnetapp/carnet/internal/apierror"
	"github.com/carnetapp/carnet/model"
)

// OnOfflineOrdersChanged registers a callback fired whenever the set of
// staged offline orders changes (save, sync progress, delete). Listeners
// are called synchronously, in registration order. The returned function
// unsubscribes.
func (c *Carnet) OnOfflineOrdersChanged(fn func()) func() {
	c.orderListenerMu.Lock()
	defer c.orderListenerMu.Unlock()
	c.nextListenerID++
	id := c.nextListenerID
	c.orderListeners = append(c.orderListeners, orderListener{id: id, fn: fn})
	return func() {
		c.orderListenerMu.Lock()
		defer c.orderListenerMu.Unlock()
		for i, l := range c.orderListeners {
			if l.id == id {
				c.orderListeners = append(c.orderListeners[:i], c.orderListeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Carnet) notifyOrdersChanged() {
	c.orderListenerMu.Lock()
	snapshot := make([]orderListener, len(c.orderListeners))
	copy(snapshot, c.orderListeners)
	c.orderListenerMu.Unlock()

	for _, l := range snapshot {
		l.fn()
	}
}

// OfflineOrders returns every staged order, newest first.
func (c *Carnet) OfflineOrders(ctx context.Context) ([]*model.OfflineOrder, error) {
	return c.datasource.GetAllOfflineOrders(ctx)
}

// GetOfflineOrder returns one staged order by its code.
func (c *Carnet) GetOfflineOrder(ctx context.Context, id string) (*model.OfflineOrder, error) {
	return c.datasource.GetOfflineOrder(ctx, id)
}

// PendingOfflineOrders returns the orders still owed an email
// confirmation, the set behind the pending/offline list in the app.
func (c *Carnet) PendingOfflineOrders(ctx context.Context) ([]*model.OfflineOrder, error) {
	return c.datasource.GetPendingEmailOrders(ctx)
}

// DeleteOfflineOrder is the user-triggered cleanup action. It refuses to
// remove an order the server has not durably accepted yet.
func (c *Carnet) DeleteOfflineOrder(ctx context.Context, id string) error {
	order, err := c.datasource.GetOfflineOrder(ctx, id)
	if err != nil {
		return err
	}
	if !order.SyncedToServer {
		return apierror.NewAPIError(apierror.ErrConflict,
			"Offline order '"+id+"' has not reached the server yet and cannot be deleted", nil)
	}
	if err := c.datasource.DeleteOfflineOrder(ctx, id); err != nil {
		return err
	}
	c.notifyOrdersChanged()
	return nil
}

// ResendOrderEmails is the manual retry for a synced order whose emails
// never got confirmed. It hits the lighter send-emails endpoint rather
// than re-submitting the order.
func (c *Carnet) ResendOrderEmails(ctx context.Context, id string) error {
	order, err := c.datasource.GetOfflineOrder(ctx, id)
	if err != nil {
		return err
	}
	if !order.SyncedToServer {
		return apierror.NewAPIError(apierror.ErrConflict,
			"Offline order '"+id+"' has not been synced; trigger a sync instead of resending emails", nil)
	}

	if err := c.gateway.SendOrderEmails(ctx, order.OfflineOrderID, order.Order.ClientEmail); err != nil {
		_ = c.datasource.MarkEmailResult(ctx, id, false, err.Error())
		c.notifyOrdersChanged()
		return err
	}
	if err := c.datasource.MarkEmailResult(ctx, id, true, ""); err != nil {
		return err
	}
	c.notifyOrdersChanged()
	return nil
}

// CachedCollection reads a reference collection from the local cache into
// dest. The form prefill path: it never touches the network.
func (c *Carnet) CachedCollection(ctx context.Context, key string, dest interface{}) error {
	record, err := c.datasource.GetCachedData(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(record.Data, dest); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to decode cached collection '"+key+"'", err)
	}
	return nil
}
