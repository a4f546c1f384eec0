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

	"github.com/sirupsen/logrus"

	"github.com/carnetapp/carnet/internal/apierror"
	"github.com/carnetapp/carnet/model"
)

// SubmissionResult is the caller-visible outcome of a submission. Online
// and offline paths converge on this shape so the presentation layer only
// branches for labeling. Durable is false in exactly one degraded case:
// the device was offline AND the local store was unavailable, so the order
// only lives in memory and the warning must be shown to the user.
type SubmissionResult struct {
	OrderCode    string   `json:"order_code"`
	Offline      bool     `json:"offline"`
	EmailsSent   bool     `json:"emails_sent"`
	EmailError   string   `json:"email_error,omitempty"`
	DocumentUrls []string `json:"document_urls,omitempty"`
	Durable      bool     `json:"durable"`
	Warning      string   `json:"warning,omitempty"`
}

// SubmitOrder drives one order from the signed form to either the server
// (online path) or the local store (offline path).
//
// The decision tree:
//  1. An invalid payload fails immediately and is never persisted;
//     retrying cannot help.
//  2. If the signal reports online, try the server's generate endpoint.
//     Validation and business rejections surface unchanged. A
//     network-class failure falls through to the offline path, because the
//     signal can be stale or lying (captive portal, flaky link).
//  3. Offline: generate a local OFF- code, render a best-effort receipt
//     snapshot, stage the order for the sync engine and return
//     immediately. The caller is never blocked waiting for network.
func (c *Carnet) SubmitOrder(ctx context.Context, order *model.Order) (*SubmissionResult, error) {
	if err := order.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrValidation, "order payload failed validation", err)
	}

	if c.signal.IsOnline() {
		resp, err := c.gateway.GenerateOrder(ctx, order)
		if err == nil {
			return &SubmissionResult{
				OrderCode:    resp.OrderCode,
				EmailsSent:   resp.EmailsSent,
				EmailError:   resp.EmailError,
				DocumentUrls: resp.DocumentUrls,
				Durable:      true,
			}, nil
		}
		if !apierror.IsNetwork(err) {
			return nil, err
		}
		logrus.Warnf("online submission failed with a network-class error, staging offline: %v", err)
	}

	return c.submitOffline(ctx, order)
}

func (c *Carnet) submitOffline(ctx context.Context, order *model.Order) (*SubmissionResult, error) {
	order.Code = model.GenerateOfflineCode()

	var snapshot []byte
	if c.renderer != nil {
		rendered, err := c.renderer.RenderPDF(ctx, order)
		if err != nil {
			logrus.Warnf("receipt snapshot for %s failed, staging without one: %v", order.Code, err)
		} else {
			snapshot = rendered
		}
	}

	record := model.NewOfflineOrder(order, snapshot)
	saved, err := c.datasource.SaveOfflineOrder(ctx, record)
	if err != nil {
		if apierror.IsStorage(err) {
			// Degraded mode: the user still gets a code and can hand over
			// the receipt, but the order will not survive a restart. Say
			// so instead of swallowing it.
			logrus.Errorf("local store unavailable while staging %s: %v", order.Code, err)
			return &SubmissionResult{
				OrderCode: order.Code,
				Offline:   true,
				Durable:   false,
				Warning:   "local storage is unavailable; this order is not guaranteed to survive an app restart",
			}, nil
		}
		return nil, err
	}

	c.notifyOrdersChanged()
	return &SubmissionResult{OrderCode: saved.OfflineOrderID, Offline: true, Durable: true}, nil
}
