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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/carnetapp/carnet/model"
)

// workerCommands runs the headless background worker: the same sync engine
// the app embeds, driven purely by the connectivity prober, so staged
// orders keep flowing to the server even with no UI open.
func workerCommands(b *carnetInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "run the background sync worker",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			b.carnet.SyncEngine().OnStatusChange(func(status model.OrderSyncStatus) {
				if status.Syncing {
					logrus.Infof("sync pass running, %d order(s) pending", status.PendingCount)
					return
				}
				if status.LastResult != nil {
					logrus.Infof("sync pass done: %d synced, %d failed, %d still pending",
						status.LastResult.Success, status.LastResult.Failed, status.PendingCount)
				}
			})

			if err := b.carnet.Start(ctx); err != nil {
				logrus.Fatalf("worker failed to start: %v", err)
			}
			logrus.Infof("carnet worker started, probing %s", b.cnf.Connectivity.ProbeUrl)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			logrus.Info("carnet worker shutting down")
		},
	}
	return cmd
}
