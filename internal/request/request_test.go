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

package request

import (
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

func TestToJsonReq(t *testing.T) {
	buf, err := ToJsonReq(map[string]string{"order_code": "OFF-abc"})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"order_code":"OFF-abc"}`, buf.String())
}

func TestCallDecodesResponse(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://server.local/orders",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			return httpmock.NewStringResponse(http.StatusOK, `{"order_code":"CMD-1"}`), nil
		})

	payload, err := ToJsonReq(map[string]string{"client": "Acme"})
	assert.NoError(t, err)
	req, err := http.NewRequest("POST", "http://server.local/orders", payload)
	assert.NoError(t, err)

	var response map[string]string
	resp, err := Call(req, &response)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CMD-1", response["order_code"])
}

func TestCallWithNilResponseSkipsDecoding(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://server.local/emails",
		httpmock.NewStringResponder(http.StatusAccepted, `not json at all`))

	req, err := http.NewRequest("POST", "http://server.local/emails", nil)
	assert.NoError(t, err)

	resp, err := Call(req, nil)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestCallToleratesEmptyBody(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://server.local/emails",
		httpmock.NewStringResponder(http.StatusOK, ""))

	req, err := http.NewRequest("POST", "http://server.local/emails", nil)
	assert.NoError(t, err)

	var response map[string]string
	resp, err := Call(req, &response)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, response)
}
