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
	"time"

	"github.com/carnetapp/carnet/config"
	"github.com/carnetapp/carnet/database"
	"github.com/carnetapp/carnet/internal/connectivity"
)

// Carnet is the offline-capable order submission subsystem. It owns the
// durable local store handle, the connectivity signal, the submission
// orchestrator and the background sync engines. The presentation layer
// reads through it and triggers operations on it; it never mutates stored
// records directly.
type Carnet struct {
	datasource database.IDataSource
	gateway    OrderGateway
	renderer   DocumentRenderer
	signal     *connectivity.Signal
	engine     *SyncEngine
	refdata    *ReferenceSync

	orderListenerMu sync.Mutex
	nextListenerID  int
	orderListeners  []orderListener
}

type orderListener struct {
	id int
	fn func()
}

// NewCarnet initializes the subsystem with the provided local store.
// It fetches the configuration and wires the gateway, connectivity signal,
// sync engine and reference-data sync.
//
// Parameters:
// - db database.IDataSource: The durable local store.
//
// Returns:
// - *Carnet: A pointer to the newly created Carnet instance.
// - error: An error if any of the initialization steps fail.
func NewCarnet(db database.IDataSource) (*Carnet, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	signal := connectivity.New(configuration.Connectivity.AssumeOnlineAtStart)
	gateway := NewHTTPGateway(configuration)

	newCarnet := &Carnet{datasource: db, gateway: gateway, signal: signal}
	newCarnet.engine = NewSyncEngine(db, gateway, signal)
	newCarnet.engine.onOrdersChanged = newCarnet.notifyOrdersChanged
	newCarnet.refdata = NewReferenceSync(db, gateway, signal)
	return newCarnet, nil
}

// UseRenderer installs the local document renderer used for offline
// receipt snapshots. Without one, offline orders are staged snapshot-less.
func (c *Carnet) UseRenderer(renderer DocumentRenderer) {
	c.renderer = renderer
}

// Signal exposes the connectivity signal to the presentation layer.
func (c *Carnet) Signal() *connectivity.Signal {
	return c.signal
}

// SyncEngine exposes the background order sync engine.
func (c *Carnet) SyncEngine() *SyncEngine {
	return c.engine
}

// ReferenceSync exposes the reference-data sync.
func (c *Carnet) ReferenceSync() *ReferenceSync {
	return c.refdata
}

// Start brings up the background machinery: the connectivity prober, the
// sync engine's reconnect trigger, and a reference-data refresh on every
// reconnect. It returns once everything is subscribed; the work itself
// runs until the context is canceled.
func (c *Carnet) Start(ctx context.Context) error {
	configuration, err := config.Fetch()
	if err != nil {
		return err
	}

	c.signal.OnChange(func(online bool) {
		if online {
			go c.refdata.SyncAll(ctx)
		}
	})
	c.engine.Start(ctx)

	interval := time.Duration(configuration.Connectivity.ProbeIntervalSec) * time.Second
	c.signal.StartProbing(ctx, configuration.Connectivity.ProbeUrl, interval)
	return nil
}
