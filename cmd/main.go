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
	"log"
	"os"

	"github.com/carnetapp/carnet"
	"github.com/carnetapp/carnet/config"
	"github.com/carnetapp/carnet/database"
	"github.com/carnetapp/carnet/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CLI represents the command-line application, encapsulating the root Cobra command.
type CLI struct {
	cmd *cobra.Command // Root command for the CLI application
}

// carnetInstance holds the Carnet instance and its configuration.
// This is used to store the runtime instance and configuration globally within the application.
type carnetInstance struct {
	carnet *carnet.Carnet        // Carnet object initialized from configuration
	cnf    *config.Configuration // Configuration object holding runtime settings
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec) // Log the recovered panic
		os.Exit(1)        // Exit the program with an error status
	}
}

// preRun sets up the configuration and initializes the Carnet instance before running any command.
// It ensures that the configuration is loaded, and the Carnet instance is initialized properly.
func preRun(app *carnetInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		// Initialize configuration from the specified configuration file.
		err := config.InitConfig("carnet.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		// Fetch the configuration settings.
		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		// Initialize the Carnet instance using the fetched configuration.
		newCarnet, err := setupCarnet(cnf)
		if err != nil {
			notification.NotifyError(err) // Notify via the internal notification system
			log.Fatal(err)                // Log the fatal error
		}

		// Assign the new Carnet instance and configuration to the app struct.
		app.carnet = newCarnet
		app.cnf = cnf

		return nil
	}
}

// setupCarnet creates and initializes a new Carnet instance based on the provided configuration.
// It opens the durable local store using the configuration settings.
func setupCarnet(cfg *config.Configuration) (*carnet.Carnet, error) {
	// Initialize the local store from the configuration.
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting local store: %v", err)
	}

	// Create a new Carnet instance using the initialized local store.
	newCarnet, err := carnet.NewCarnet(db)
	if err != nil {
		return nil, fmt.Errorf("error creating carnet: %v", err)
	}
	return newCarnet, nil
}

// NewCLI creates the command-line interface (CLI) for the Carnet application.
func NewCLI() *CLI {
	var app carnetInstance

	var rootCmd = &cobra.Command{
		Use:               "carnet",
		Short:             "offline-capable order submission for field sales teams",
		PersistentPreRunE: preRun(&app),
	}

	rootCmd.AddCommand(workerCommands(&app))
	rootCmd.AddCommand(syncCommands(&app))
	rootCmd.AddCommand(ordersCommands(&app))

	return &CLI{cmd: rootCmd}
}

// executeCLI runs the root command and exits on failure.
func (c *CLI) executeCLI() {
	if err := c.cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
