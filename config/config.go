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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_DATA_SOURCE    = "carnet.db"
	DEFAULT_TIMEOUT_SEC    = 30
	DEFAULT_PROBE_INTERVAL = 3
)

var ConfigStore atomic.Value

// ServerConfig points at the remote order server consumed by the gateway.
type ServerConfig struct {
	BaseUrl        string `json:"base_url" envconfig:"CARNET_SERVER_BASE_URL"`
	AuthToken      string `json:"auth_token" envconfig:"CARNET_SERVER_AUTH_TOKEN"`
	TimeoutSeconds int    `json:"timeout_seconds" envconfig:"CARNET_SERVER_TIMEOUT_SECONDS"`
}

// DataSourceConfig is the durable local store location. A file path for the
// sqlite database; ":memory:" is accepted for tests.
type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"CARNET_DATA_SOURCE_DNS"`
}

type ConnectivityConfig struct {
	ProbeUrl            string `json:"probe_url" envconfig:"CARNET_CONNECTIVITY_PROBE_URL"`
	ProbeIntervalSec    int    `json:"probe_interval_sec" envconfig:"CARNET_CONNECTIVITY_PROBE_INTERVAL_SEC"`
	AssumeOnlineAtStart bool   `json:"assume_online_at_start" envconfig:"CARNET_CONNECTIVITY_ASSUME_ONLINE"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName  string             `json:"project_name" envconfig:"CARNET_PROJECT_NAME"`
	Server       ServerConfig       `json:"server"`
	DataSource   DataSourceConfig   `json:"data_source"`
	Connectivity ConnectivityConfig `json:"connectivity"`
	Notification Notification       `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("carnet", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called carnet.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Carnet"
	}

	if cnf.Server.BaseUrl == "" {
		log.Println("Error: Server base URL is empty. It's a required field.")
		return errors.New("server base URL is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.BaseUrl = strings.TrimSuffix(strings.TrimSpace(cnf.Server.BaseUrl), "/")
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)

	if cnf.DataSource.Dns == "" {
		cnf.DataSource.Dns = DEFAULT_DATA_SOURCE
		log.Printf("Warning: Data source not specified in config. Setting default local store: %s", DEFAULT_DATA_SOURCE)
	}

	if cnf.Server.TimeoutSeconds <= 0 {
		cnf.Server.TimeoutSeconds = DEFAULT_TIMEOUT_SEC
	}

	if cnf.Connectivity.ProbeUrl == "" {
		cnf.Connectivity.ProbeUrl = cnf.Server.BaseUrl + "/health"
	}
	if cnf.Connectivity.ProbeIntervalSec <= 0 {
		cnf.Connectivity.ProbeIntervalSec = DEFAULT_PROBE_INTERVAL
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
