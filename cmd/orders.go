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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// syncCommands exposes one-shot sync operations for operators: push staged
// orders now, or refresh the reference collections now, without running
// the long-lived worker.
func syncCommands(b *carnetInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "run a sync pass now",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "orders",
		Short: "push staged offline orders to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := b.carnet.SyncEngine().TriggerSync(cmd.Context())
			if err != nil {
				return err
			}
			if report.Skipped {
				fmt.Println("a sync pass is already running, nothing to do")
				return nil
			}
			fmt.Printf("synced %d order(s), %d failed\n", report.Success, report.Failed)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refdata",
		Short: "refresh cached reference collections from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok := b.carnet.ReferenceSync().SyncAll(cmd.Context()); !ok {
				status := b.carnet.ReferenceSync().Status()
				if status.Error != "" {
					return fmt.Errorf("reference sync incomplete: %s", status.Error)
				}
				logrus.Warn("reference sync did not run (offline or already running)")
			}
			return nil
		},
	})

	return cmd
}

// ordersCommands lists what the local store holds, mainly for support and
// debugging in the field.
func ordersCommands(b *carnetInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "inspect locally staged orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "list offline orders still awaiting sync or email confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := b.carnet.PendingOfflineOrders(cmd.Context())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("no pending offline orders")
				return nil
			}
			for _, order := range pending {
				fmt.Printf("%s\t%s\t%s\t%s\n",
					order.OfflineOrderID, order.Order.ClientName,
					order.CreatedAt.Format("2006-01-02 15:04"), order.State())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list every offline order in the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := b.carnet.OfflineOrders(cmd.Context())
			if err != nil {
				return err
			}
			for _, order := range orders {
				fmt.Printf("%s\t%s\t%s\t%s\n",
					order.OfflineOrderID, order.Order.ClientName,
					order.CreatedAt.Format("2006-01-02 15:04"), order.State())
			}
			return nil
		},
	})

	return cmd
}
