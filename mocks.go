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

	"github.com/carnetapp/carnet/model"
)

// MockGateway implements OrderGateway with overridable behavior per call.
// Unset functions default to a successful server.
type MockGateway struct {
	GenerateOrderFunc    func(ctx context.Context, order *model.Order) (*GenerateOrderResponse, error)
	SyncOfflineOrderFunc func(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error)
	SendOrderEmailsFunc  func(ctx context.Context, orderCode, clientEmail string) error
	FetchCollectionFunc  func(ctx context.Context, key string) (json.RawMessage, error)
}

func (m *MockGateway) GenerateOrder(ctx context.Context, order *model.Order) (*GenerateOrderResponse, error) {
	if m.GenerateOrderFunc != nil {
		return m.GenerateOrderFunc(ctx, order)
	}
	return &GenerateOrderResponse{OrderCode: "CMD-0001", EmailsSent: true}, nil
}

func (m *MockGateway) SyncOfflineOrder(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error) {
	if m.SyncOfflineOrderFunc != nil {
		return m.SyncOfflineOrderFunc(ctx, order)
	}
	return &SyncOfflineResponse{EmailsSent: true}, nil
}

func (m *MockGateway) SendOrderEmails(ctx context.Context, orderCode, clientEmail string) error {
	if m.SendOrderEmailsFunc != nil {
		return m.SendOrderEmailsFunc(ctx, orderCode, clientEmail)
	}
	return nil
}

func (m *MockGateway) FetchCollection(ctx context.Context, key string) (json.RawMessage, error) {
	if m.FetchCollectionFunc != nil {
		return m.FetchCollectionFunc(ctx, key)
	}
	return json.RawMessage(`[]`), nil
}

// MockRenderer implements DocumentRenderer with overridable behavior.
type MockRenderer struct {
	RenderPDFFunc func(ctx context.Context, order *model.Order) ([]byte, error)
}

func (m *MockRenderer) RenderPDF(ctx context.Context, order *model.Order) ([]byte, error) {
	if m.RenderPDFFunc != nil {
		return m.RenderPDFFunc(ctx, order)
	}
	return []byte("%PDF-1.4 mock receipt"), nil
}
