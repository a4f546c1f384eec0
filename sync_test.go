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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnetapp/carnet/model"
)

func TestTriggerSyncReplaysPendingOrders(t *testing.T) {
	c, _ := newTestCarnet(t, true)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		stageOrder(t, c, i, base.Add(time.Duration(i)*time.Minute))
	}

	report, err := c.SyncEngine().TriggerSync(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 3, report.Success)
	assert.Equal(t, 0, report.Failed)

	orders, err := c.OfflineOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for _, order := range orders {
		assert.Equal(t, model.StateComplete, order.State())
		assert.True(t, order.SyncedToServer)
		assert.NotNil(t, order.SyncedAt)
		assert.NotNil(t, order.EmailSentAt)
	}
	assert.Equal(t, 0, c.SyncEngine().Status().PendingCount)
}

func TestTriggerSyncIsolatesFailures(t *testing.T) {
	c, gateway := newTestCarnet(t, true)
	base := time.Now().Add(-time.Hour)
	bad := stageOrder(t, c, 0, base)
	stageOrder(t, c, 1, base.Add(time.Minute))
	stageOrder(t, c, 2, base.Add(2*time.Minute))

	gateway.SyncOfflineOrderFunc = func(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error) {
		if order.OfflineOrderID == bad.OfflineOrderID {
			return nil, assert.AnError
		}
		return &SyncOfflineResponse{EmailsSent: true}, nil
	}

	report, err := c.SyncEngine().TriggerSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)

	// the failed order keeps its error and stays in the pending set
	failed, err := c.GetOfflineOrder(context.Background(), bad.OfflineOrderID)
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, failed.State())
	assert.NotEmpty(t, failed.EmailError)

	pending, err := c.PendingOfflineOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bad.OfflineOrderID, pending[0].OfflineOrderID)
	assert.Equal(t, 1, c.SyncEngine().Status().PendingCount)
}

func TestTriggerSyncResumesEmailOnlyAfterSyncedOrder(t *testing.T) {
	c, gateway := newTestCarnet(t, true)
	staged := stageOrder(t, c, 0, time.Now().Add(-time.Hour))
	err := c.datasource.MarkSynced(context.Background(), staged.OfflineOrderID)
	assert.NoError(t, err)

	fullSyncCalled := false
	gateway.SyncOfflineOrderFunc = func(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error) {
		fullSyncCalled = true
		return &SyncOfflineResponse{EmailsSent: true}, nil
	}
	emailsSentFor := ""
	gateway.SendOrderEmailsFunc = func(ctx context.Context, orderCode, clientEmail string) error {
		emailsSentFor = orderCode
		return nil
	}

	report, err := c.SyncEngine().TriggerSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Success)

	// the order already reached the server, only the emails are replayed
	assert.False(t, fullSyncCalled)
	assert.Equal(t, staged.OfflineOrderID, emailsSentFor)

	order, err := c.GetOfflineOrder(context.Background(), staged.OfflineOrderID)
	require.NoError(t, err)
	assert.Equal(t, model.StateComplete, order.State())
}

func TestTriggerSyncEmailUnconfirmedCountsAsFailed(t *testing.T) {
	c, gateway := newTestCarnet(t, true)
	staged := stageOrder(t, c, 0, time.Now().Add(-time.Hour))

	gateway.SyncOfflineOrderFunc = func(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error) {
		return &SyncOfflineResponse{EmailsSent: false, EmailError: "smtp relay down"}, nil
	}

	report, err := c.SyncEngine().TriggerSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Success)
	assert.Equal(t, 1, report.Failed)

	// synced but not complete: the server has the order, the client is
	// still owed their email, so the record stays pending
	order, err := c.GetOfflineOrder(context.Background(), staged.OfflineOrderID)
	require.NoError(t, err)
	assert.True(t, order.SyncedToServer)
	assert.Equal(t, model.StateFailed, order.State())
	assert.Equal(t, "smtp relay down", order.EmailError)

	pending, err := c.PendingOfflineOrders(context.Background())
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestTriggerSyncNotifiesWhenPassOnlyRecordedFailures(t *testing.T) {
	c, gateway := newTestCarnet(t, true)
	stageOrder(t, c, 0, time.Now().Add(-time.Hour))

	gateway.SyncOfflineOrderFunc = func(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error) {
		return nil, assert.AnError
	}

	notified := false
	c.OnOfflineOrdersChanged(func() { notified = true })

	report, err := c.SyncEngine().TriggerSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Success)
	assert.Equal(t, 1, report.Failed)

	// the failed order's email_error changed, the pending list must refresh
	assert.True(t, notified)
}

func TestTriggerSyncOnePassAtATime(t *testing.T) {
	c, gateway := newTestCarnet(t, true)
	stageOrder(t, c, 0, time.Now().Add(-time.Hour))

	entered := make(chan struct{})
	release := make(chan struct{})
	gateway.SyncOfflineOrderFunc = func(ctx context.Context, order *model.OfflineOrder) (*SyncOfflineResponse, error) {
		close(entered)
		<-release
		return &SyncOfflineResponse{EmailsSent: true}, nil
	}

	firstDone := make(chan *model.SyncReport)
	go func() {
		report, err := c.SyncEngine().TriggerSync(context.Background())
		assert.NoError(t, err)
		firstDone <- report
	}()

	<-entered
	second, err := c.SyncEngine().TriggerSync(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	close(release)
	first := <-firstDone
	require.NotNil(t, first)
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, first.Success)
}

func TestSyncStatusListeners(t *testing.T) {
	c, _ := newTestCarnet(t, true)
	base := time.Now().Add(-time.Hour)
	stageOrder(t, c, 0, base)
	stageOrder(t, c, 1, base.Add(time.Minute))

	var statuses []model.OrderSyncStatus
	unsubscribe := c.SyncEngine().OnStatusChange(func(status model.OrderSyncStatus) {
		statuses = append(statuses, status)
	})

	_, err := c.SyncEngine().TriggerSync(context.Background())
	assert.NoError(t, err)

	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Syncing)
	assert.Equal(t, 2, statuses[0].PendingCount)
	assert.False(t, statuses[1].Syncing)
	assert.Equal(t, 0, statuses[1].PendingCount)
	require.NotNil(t, statuses[1].LastResult)
	assert.Equal(t, 2, statuses[1].LastResult.Success)

	unsubscribe()
	stageOrder(t, c, 2, base.Add(2*time.Minute))
	_, err = c.SyncEngine().TriggerSync(context.Background())
	assert.NoError(t, err)
	assert.Len(t, statuses, 2)
}

func TestStartSyncsOnReconnect(t *testing.T) {
	c, _ := newTestCarnet(t, false)
	staged := stageOrder(t, c, 0, time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	unsubscribe := c.SyncEngine().Start(ctx)
	defer unsubscribe()

	// offline: nothing moves
	pending, err := c.PendingOfflineOrders(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)

	c.Signal().SetOnline(true)

	assert.Eventually(t, func() bool {
		order, err := c.GetOfflineOrder(ctx, staged.OfflineOrderID)
		return err == nil && order.State() == model.StateComplete
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartSyncsImmediatelyWhenOnline(t *testing.T) {
	c, _ := newTestCarnet(t, true)
	staged := stageOrder(t, c, 0, time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	unsubscribe := c.SyncEngine().Start(ctx)
	defer unsubscribe()

	assert.Eventually(t, func() bool {
		order, err := c.GetOfflineOrder(ctx, staged.OfflineOrderID)
		return err == nil && order.State() == model.StateComplete
	}, 2*time.Second, 10*time.Millisecond)
}
