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
	"net/http"
	"time"

	"github.com/carnetapp/carnet/config"
	"github.com/carnetapp/carnet/internal/apierror"
	"github.com/carnetapp/carnet/internal/request"
	"github.com/carnetapp/carnet/model"
)

// GenerateOrderResponse is the server's answer to an online submission:
// the order was created, documents rendered and emails dispatched
// server-side as one unit.
type GenerateOrderResponse struct {
	OrderCode    string   `json:"order_code"`
	DocumentUrls []string `json:"document_urls"`
	EmailsSent   bool     `json:"emails_sent"`
	EmailError   string   `json:"email_error,omitempty"`
}

// SyncOfflineResponse reports the email outcome of replaying a staged
// order. The endpoint is idempotent keyed by the order's embedded code.
type SyncOfflineResponse struct {
	EmailsSent bool   `json:"emails_sent"`
	EmailError string `json:"email_error,omitempty"`
}

// OrderGateway is the outbound contract with the order server. The sync
// engine and the orchestrator never talk HTTP directly.
type OrderGateway interface {
	GenerateOrder(ctx context.Context, order *model.Order) (*GenerateOrderResponse, error)
	SyncOfflineOrder(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error)
	SendOrderEmails(ctx context.Context, orderCode, clientEmail string) error
	FetchCollection(ctx context.Context, key string) (json.RawMessage, error)
}

// HTTPGateway implements OrderGateway against the configured order server.
type HTTPGateway struct {
	baseURL   string
	authToken string
	timeout   time.Duration
}

func NewHTTPGateway(conf *config.Configuration) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   conf.Server.BaseUrl,
		authToken: conf.Server.AuthToken,
		timeout:   time.Duration(conf.Server.TimeoutSeconds) * time.Second,
	}
}

func (g *HTTPGateway) GenerateOrder(ctx context.Context, order *model.Order) (*GenerateOrderResponse, error) {
	out := &GenerateOrderResponse{}
	if err := g.post(ctx, "/orders/generate", order, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) SyncOfflineOrder(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error) {
	body := map[string]interface{}{"order": order}
	out := &SyncOfflineResponse{}
	if err := g.post(ctx, "/orders/sync-offline", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) SendOrderEmails(ctx context.Context, orderCode, clientEmail string) error {
	body := map[string]string{"order_code": orderCode, "client_email": clientEmail}
	return g.post(ctx, "/orders/send-emails", body, nil)
}

func (g *HTTPGateway) FetchCollection(ctx context.Context, key string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reference/"+key, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to build reference request", err)
	}
	g.authorize(req)

	var raw json.RawMessage
	resp, err := request.CallWithTimeout(req, &raw, g.timeout)
	if err := g.classify(resp, err, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := request.ToJsonReq(body)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to encode request payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, payload)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to build request", err)
	}
	g.authorize(req)

	var raw json.RawMessage
	resp, err := request.CallWithTimeout(req, &raw, g.timeout)
	if err := g.classify(resp, err, &raw); err != nil {
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to decode server response", err)
		}
	}
	return nil
}

func (g *HTTPGateway) authorize(req *http.Request) {
	if g.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.authToken)
	}
}

// classify maps the raw exchange outcome onto the error taxonomy. No HTTP
// response at all is network-class; an HTTP response is routed by status,
// even when its body failed to decode (proxies answer 502 with HTML pages).
// Upstream gateway statuses (502/503/504) count as network-class too: the
// server was not actually reached and a retry is the right move.
func (g *HTTPGateway) classify(resp *http.Response, err error, raw *json.RawMessage) error {
	if resp == nil {
		if err != nil {
			return apierror.NewAPIError(apierror.ErrNetwork, "order server unreachable", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "no server response to classify", nil)
	}
	if resp.StatusCode < http.StatusBadRequest {
		if err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read server response", err)
		}
		return nil
	}

	message := http.StatusText(resp.StatusCode)
	var serverErr struct {
		Error string `json:"error"`
	}
	if raw != nil && json.Unmarshal(*raw, &serverErr) == nil && serverErr.Error != "" {
		message = serverErr.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apierror.NewAPIError(apierror.ErrUnauthorized, message, nil)
	case http.StatusBadRequest:
		return apierror.NewAPIError(apierror.ErrValidation, message, nil)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apierror.NewAPIError(apierror.ErrNetwork, message, nil)
	default:
		return apierror.NewAPIError(apierror.ErrServerBusiness, message, nil)
	}
}
