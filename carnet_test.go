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
	"fmt"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/carnetapp/carnet/cache"
	"github.com/carnetapp/carnet/config"
	"github.com/carnetapp/carnet/database"
	"github.com/carnetapp/carnet/internal/connectivity"
	"github.com/carnetapp/carnet/model"
)

// newTestCarnet builds a Carnet over a real sqlite file in a temp dir with
// a mock gateway, so the full store-and-sync path runs without a server.
func newTestCarnet(t *testing.T, online bool) (*Carnet, *MockGateway) {
	t.Helper()
	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{BaseUrl: "http://localhost:5001", TimeoutSeconds: 5},
	})

	conn, err := database.ConnectDB(filepath.Join(t.TempDir(), "carnet.db"))
	if err != nil {
		t.Fatalf("Error opening test local store: %s", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	localCache, err := cache.NewCache()
	if err != nil {
		t.Fatalf("Error creating test cache: %s", err)
	}

	ds := &database.Datasource{Conn: conn, Cache: localCache}
	gateway := &MockGateway{}
	signal := connectivity.New(online)

	c := &Carnet{datasource: ds, gateway: gateway, signal: signal}
	c.engine = NewSyncEngine(ds, gateway, signal)
	c.engine.onOrdersChanged = c.notifyOrdersChanged
	c.refdata = NewReferenceSync(ds, gateway, signal)
	return c, gateway
}

// newTestDataSource stubs the local store with sqlmock for failure-path
// tests where sqlite would be too well-behaved.
func newTestDataSource() (database.IDataSource, sqlmock.Sqlmock, error) {
	config.MockConfig(&config.Configuration{})
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Printf("an error '%s' was not expected when opening a stub database Connection", err)
	}
	newCache, err := cache.NewCache()
	if err != nil {
		log.Printf("an error '%s' was not expected", err)
	}
	return &database.Datasource{Conn: db, Cache: newCache}, mock, nil
}

func getOrderMock() *model.Order {
	return &model.Order{
		ClientName:  gofakeit.Name(),
		ClientEmail: gofakeit.Email(),
		Commercial:  gofakeit.Name(),
		Supplier:    gofakeit.Company(),
		Theme:       gofakeit.Word(),
		Lines: []model.OrderLine{
			{
				Reference: gofakeit.Word(),
				Quantity:  int64(gofakeit.Number(1, 10)),
				UnitPrice: decimal.NewFromFloat(gofakeit.Price(10, 500)),
			},
		},
		Signature: "data:image/png;base64," + gofakeit.LetterN(24),
	}
}

// stageOrder persists an offline order directly, bypassing SubmitOrder, so
// tests control the code and creation time of each staged record.
func stageOrder(t *testing.T, c *Carnet, n int, createdAt time.Time) *model.OfflineOrder {
	t.Helper()
	order := getOrderMock()
	order.Code = fmt.Sprintf("%sstaged%d", model.OfflineCodePrefix, n)
	record := model.NewOfflineOrder(order, nil)
	record.CreatedAt = createdAt
	saved, err := c.datasource.SaveOfflineOrder(context.Background(), record)
	if err != nil {
		t.Fatalf("Error staging offline order: %s", err)
	}
	return saved
}
