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

package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/carnetapp/carnet/config"
	"github.com/carnetapp/carnet/internal/request"
	"github.com/sirupsen/logrus"
)

// SlackNotification sends a message to the configured Slack webhook.
// It formats the title and body into a Slack blocks payload.
//
// Parameters:
// - title: The header line of the Slack message.
// - body: The message detail.
//
// The function retrieves configuration for the Slack webhook URL, formats
// the message, and sends it as a JSON payload to the Slack webhook.
func SlackNotification(title, body string) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "%s",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "%s"
					},
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%v"
					}
				]
			}
		]
	}`, title, body, time.Now().Format(time.RFC822)))

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	payload, err := request.ToJsonReq(&data)
	if err != nil {
		log.Println(err)
		return
	}

	req, err := http.NewRequest("POST", conf.Notification.Slack.WebhookUrl, payload)
	if err != nil {
		log.Println(err)
		return
	}

	var response map[string]interface{}
	_, err = request.Call(req, &response)
	if err != nil {
		log.Println(err)
	}
}

// WebhookNotification posts an event payload to the generic notification
// webhook with the configured headers.
func WebhookNotification(event string, payload interface{}) {
	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	body, err := request.ToJsonReq(map[string]interface{}{"event": event, "data": payload})
	if err != nil {
		log.Println(err)
		return
	}

	req, err := http.NewRequest("POST", conf.Notification.Webhook.Url, body)
	if err != nil {
		log.Println(err)
		return
	}
	for key, value := range conf.Notification.Webhook.Headers {
		req.Header.Set(key, value)
	}

	var response map[string]interface{}
	_, err = request.Call(req, &response)
	if err != nil {
		log.Println(err)
	}
}

// NotifyError sends an error notification through the configured channels.
// It logs the error locally and sends a notification via Slack (if configured).
//
// This function runs the notification process asynchronously using a goroutine to avoid blocking.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification("Error From Carnet 🐞", fmt.Sprintf("*Error:*\n%v", systemError))
		}
		if conf.Notification.Webhook.Url != "" {
			WebhookNotification("error", map[string]string{"error": systemError.Error()})
		}
	}(systemError)
}

// NotifySyncSummary emits the user-facing summary after a sync pass moved
// at least one order. Fire-and-forget: a delivery failure is logged and
// never affects sync state.
func NotifySyncSummary(success, failed int) {
	go func() {
		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		summary := fmt.Sprintf("*Offline orders synced:*\n%d sent, %d still pending", success, failed)
		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification("Carnet sync complete ✅", summary)
		}
		if conf.Notification.Webhook.Url != "" {
			WebhookNotification("orders.synced", map[string]int{"success": success, "failed": failed})
		}
	}()
}
