// Copyright 2025 The upstreamkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mgmtapi_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"

	api "github.com/upstreamkit/upstreamkit/private/mgmtapi"
	apitest "github.com/upstreamkit/upstreamkit/private/mgmtapi/mgmtapitest"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg api.Config
	cfg.Sample(&sample, nil, nil)
	apitest.InitConfig(&cfg)
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().Decode(&cfg)
	assert.NoError(t, err)
	apitest.CheckConfig(t, &cfg)
}

func TestErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	api.ErrorResponse(rr, api.Problem{
		Detail: api.StringRef("boom"),
		Status: http.StatusNotFound,
		Title:  "not here",
		Type:   api.StringRef(api.NotFound),
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"detail":"boom","status":404,"title":"not here","type":"/problems/not-found"}`,
		rr.Body.String(),
	)
}

func TestJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	api.JSONResponse(rr, http.StatusCreated, map[string]int{"a": 1})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"a":1}`, rr.Body.String())

	rr = httptest.NewRecorder()
	api.JSONResponse(rr, http.StatusOK, map[string]any{"f": func() {}})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
