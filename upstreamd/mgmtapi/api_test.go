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

package mgmtapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/log/testlog"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/pkg/private/util"
	"github.com/upstreamkit/upstreamkit/pkg/private/xtest"
	"github.com/upstreamkit/upstreamkit/pkg/upstream"
	"github.com/upstreamkit/upstreamkit/private/storage/db"
	"github.com/upstreamkit/upstreamkit/upstreamd/mgmtapi/mock_mgmtapi"
)

var update = xtest.UpdateGoldenFiles()

var (
	upA = upstream.Upstream{
		ID:       "a",
		Type:     "http",
		Host:     "a.example.com",
		Path:     "/v1",
		Headers:  map[string]string{"X-Key": "1"},
		Interval: 0.5,
		Weight:   1,
	}
	upB = upstream.Upstream{
		ID:       "b",
		Type:     "http",
		Host:     "b.example.com",
		Interval: upstream.DefaultInterval,
		Weight:   2,
	}
)

// newRegistry creates a registry that serves the given upstreams for type
// http and fails loading type broken.
func newRegistry(t *testing.T, upstreams ...upstream.Upstream) *upstream.Registry {
	load := func(_ context.Context, group string) ([]upstream.Upstream, error) {
		switch group {
		case "http":
			return upstreams, nil
		case "broken":
			return nil, serrors.New("backend down")
		default:
			return nil, nil
		}
	}
	return upstream.NewRegistry(upstream.LoaderFunc(load),
		upstream.WithRegistryLogger(testlog.NewLogger(t)))
}

// sampled creates a registry in which the http pool already exists.
func sampled(t *testing.T, upstreams ...upstream.Upstream) *upstream.Registry {
	r := newRegistry(t, upstreams...)
	_, err := r.Sample(context.Background(), "http", nil)
	require.NoError(t, err)
	return r
}

// TestAPI tests the API response generation of the endpoints implemented in
// the mgmtapi package.
func TestAPI(t *testing.T) {
	testCases := map[string]struct {
		Handler            func(t *testing.T, ctrl *gomock.Controller) http.Handler
		Method             string
		RequestURL         string
		Body               string
		ResponseFile       string
		Status             int
		IgnoreResponseBody bool
	}{
		"upstreams": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().ListUpstreams(gomock.Any(), "http").Return(
					[]upstream.Upstream{upA, upB}, nil,
				)
				return Handler(&Server{Upstreams: store})
			},
			RequestURL:   "/api/v1/upstreams?type=http",
			ResponseFile: "upstreams.json",
			Status:       http.StatusOK,
		},
		"upstreams empty": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().ListUpstreams(gomock.Any(), "").Return(nil, nil)
				return Handler(&Server{Upstreams: store})
			},
			RequestURL:   "/api/v1/upstreams",
			ResponseFile: "upstreams-empty.json",
			Status:       http.StatusOK,
		},
		"upstreams error": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().ListUpstreams(gomock.Any(), "").Return(
					nil, db.NewReadError("listing", serrors.New("internal")),
				)
				return Handler(&Server{Upstreams: store})
			},
			RequestURL:         "/api/v1/upstreams",
			Status:             http.StatusInternalServerError,
			IgnoreResponseBody: true,
		},
		"upstreams repeated type": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				return Handler(&Server{Upstreams: store})
			},
			RequestURL:         "/api/v1/upstreams?type=http&type=ws",
			Status:             http.StatusBadRequest,
			IgnoreResponseBody: true,
		},
		"upstream": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().GetUpstream(gomock.Any(), upstream.ID("a")).Return(upA, nil)
				return Handler(&Server{Upstreams: store})
			},
			RequestURL:   "/api/v1/upstreams/a",
			ResponseFile: "upstream-a.json",
			Status:       http.StatusOK,
		},
		"upstream not found": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().GetUpstream(gomock.Any(), upstream.ID("x")).Return(
					upstream.Upstream{}, db.NewNotFoundError("getting upstream", "id", "x"),
				)
				return Handler(&Server{Upstreams: store})
			},
			RequestURL:         "/api/v1/upstreams/x",
			Status:             http.StatusNotFound,
			IgnoreResponseBody: true,
		},
		"post upstream": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				posted := upstream.Upstream{
					ID:     "c",
					Type:   "ws",
					Host:   "c.example.com",
					Query:  map[string]string{"token": "t"},
					Weight: 3,
				}
				stored := posted
				stored.Interval = upstream.DefaultInterval
				gomock.InOrder(
					store.EXPECT().InsertUpstream(gomock.Any(), posted).Return(nil),
					store.EXPECT().GetUpstream(gomock.Any(), upstream.ID("c")).Return(
						stored, nil,
					),
				)
				return Handler(&Server{Upstreams: store})
			},
			Method:       http.MethodPost,
			RequestURL:   "/api/v1/upstreams",
			Body:         `{"id":"c","type":"ws","host":"c.example.com","query":{"token":"t"},"weight":3}`,
			ResponseFile: "upstream-posted.json",
			Status:       http.StatusCreated,
		},
		"post upstream malformed": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				return Handler(&Server{Upstreams: store})
			},
			Method:             http.MethodPost,
			RequestURL:         "/api/v1/upstreams",
			Body:               `{"id":"c","unknown":1}`,
			Status:             http.StatusBadRequest,
			IgnoreResponseBody: true,
		},
		"post upstream invalid": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().InsertUpstream(gomock.Any(), gomock.Any()).Return(
					db.NewInputDataError("missing host", nil, "id", "c"),
				)
				return Handler(&Server{Upstreams: store})
			},
			Method:             http.MethodPost,
			RequestURL:         "/api/v1/upstreams",
			Body:               `{"id":"c","type":"ws"}`,
			Status:             http.StatusBadRequest,
			IgnoreResponseBody: true,
		},
		"delete upstream": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().DeleteUpstream(gomock.Any(), upstream.ID("a")).Return(nil)
				return Handler(&Server{Upstreams: store})
			},
			Method:             http.MethodDelete,
			RequestURL:         "/api/v1/upstreams/a",
			Status:             http.StatusNoContent,
			IgnoreResponseBody: true,
		},
		"delete upstream not found": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				store := mock_mgmtapi.NewMockUpstreamStore(ctrl)
				store.EXPECT().DeleteUpstream(gomock.Any(), upstream.ID("x")).Return(
					db.NewNotFoundError("deleting upstream", "id", "x"),
				)
				return Handler(&Server{Upstreams: store})
			},
			Method:             http.MethodDelete,
			RequestURL:         "/api/v1/upstreams/x",
			Status:             http.StatusNotFound,
			IgnoreResponseBody: true,
		},
		"sample": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t, upA)})
			},
			RequestURL:   "/api/v1/groups/http/sample",
			ResponseFile: "upstream-a.json",
			Status:       http.StatusOK,
		},
		"sample with hint": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t, upB, upA)})
			},
			RequestURL:   "/api/v1/groups/http/sample?hint=same&upstream=a",
			ResponseFile: "upstream-a.json",
			Status:       http.StatusOK,
		},
		"sample no upstream": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t)})
			},
			RequestURL:         "/api/v1/groups/ws/sample",
			Status:             http.StatusNotFound,
			IgnoreResponseBody: true,
		},
		"sample load error": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t)})
			},
			RequestURL:         "/api/v1/groups/broken/sample",
			Status:             http.StatusInternalServerError,
			IgnoreResponseBody: true,
		},
		"sample malformed hint": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t, upA)})
			},
			RequestURL:         "/api/v1/groups/http/sample?hint=near&upstream=a",
			Status:             http.StatusBadRequest,
			IgnoreResponseBody: true,
		},
		"sample hint without upstream": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t, upA)})
			},
			RequestURL:         "/api/v1/groups/http/sample?hint=diff",
			Status:             http.StatusBadRequest,
			IgnoreResponseBody: true,
		},
		"success": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: sampled(t, upA)})
			},
			Method:             http.MethodPost,
			RequestURL:         "/api/v1/groups/http/upstreams/a/success",
			Status:             http.StatusNoContent,
			IgnoreResponseBody: true,
		},
		"failure": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: sampled(t, upA)})
			},
			Method:             http.MethodPost,
			RequestURL:         "/api/v1/groups/http/upstreams/a/failure",
			Status:             http.StatusNoContent,
			IgnoreResponseBody: true,
		},
		"failure unknown upstream": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: sampled(t, upA)})
			},
			Method:             http.MethodPost,
			RequestURL:         "/api/v1/groups/http/upstreams/zz/failure",
			Status:             http.StatusNotFound,
			IgnoreResponseBody: true,
		},
		"success unknown type": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t, upA)})
			},
			Method:             http.MethodPost,
			RequestURL:         "/api/v1/groups/http/upstreams/a/success",
			Status:             http.StatusNotFound,
			IgnoreResponseBody: true,
		},
		"group unknown type": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return Handler(&Server{Registry: newRegistry(t, upA)})
			},
			RequestURL:         "/api/v1/groups/http",
			Status:             http.StatusNotFound,
			IgnoreResponseBody: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			method := tc.Method
			if method == "" {
				method = http.MethodGet
			}
			var body io.Reader
			if tc.Body != "" {
				body = strings.NewReader(tc.Body)
			}
			req, err := http.NewRequest(method, tc.RequestURL, body)
			require.NoError(t, err)
			rr := httptest.NewRecorder()
			tc.Handler(t, ctrl).ServeHTTP(rr, req)

			assert.Equal(t, tc.Status, rr.Code)
			if tc.IgnoreResponseBody {
				return
			}
			golden := xtest.MustReadGolden(t, tc.ResponseFile, rr.Body.Bytes(), *update)
			assert.JSONEq(t, string(golden), rr.Body.String())
		})
	}
}

func TestProblemResponse(t *testing.T) {
	r := newRegistry(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/ws/sample", nil)
	rr := httptest.NewRecorder()
	Handler(&Server{Registry: r}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var p struct {
		Status int    `json:"status"`
		Title  string `json:"title"`
		Type   string `json:"type"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, "no upstream available", p.Title)
	assert.Equal(t, "/problems/not-found", p.Type)
	assert.Contains(t, p.Detail, upstream.ErrNoUpstream.Error())
}

func TestGroups(t *testing.T) {
	r := sampled(t, upA, upB)
	h := Handler(&Server{Registry: r})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/http/upstreams/b/failure", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	t.Run("all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var groups []GroupState
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &groups))
		require.Len(t, groups, 1)
		assert.Equal(t, "http", groups[0].Type)
	})
	t.Run("single", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/http", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var group GroupState
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &group))
		want := GroupState{
			Type: "http",
			Config: PoolConfig{
				TTL:         util.FmtDuration(upstream.DefaultTTL),
				MinFailures: upstream.DefaultMinFailures,
				MinWeight:   upstream.DefaultMinWeight,
				Decay:       upstream.DefaultDecay,
			},
			Upstreams: []upstream.UpstreamState{
				{Upstream: upA, EffectiveWeight: 1},
				{Upstream: upB, Failures: 1, EffectiveWeight: 2 * upstream.DefaultDecay},
			},
		}
		diff := cmp.Diff(want, group,
			cmpopts.IgnoreFields(upstream.UpstreamState{}, "LastSampled"),
			cmpopts.EquateApprox(0, 1e-9),
		)
		assert.Empty(t, diff)
		// Exactly one of the two was sampled.
		a, b := group.Upstreams[0], group.Upstreams[1]
		assert.NotEqual(t, a.LastSampled.IsZero(), b.LastSampled.IsZero())
	})
}

func TestConfigHandler(t *testing.T) {
	cfg := struct {
		Pool upstream.PoolConfig `toml:"pool"`
	}{Pool: upstream.DefaultPoolConfig()}
	h := Handler(&Server{Config: NewConfigHandler(&cfg)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "[pool]")
	assert.Regexp(t, `ttl = ['"]1m['"]`, rr.Body.String())
}

func TestLogLevelHandler(t *testing.T) {
	prev := log.ConsoleLevel()
	defer log.SetLevel(prev)

	h := Handler(&Server{LogLevel: log.LevelHandler().ServeHTTP})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/log/level",
		strings.NewReader(`{"level":"debug"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, log.DebugLevel, log.ConsoleLevel())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/log/level", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"level":"debug"}`, rr.Body.String())
}

func TestSampleCanceled(t *testing.T) {
	slow := upA
	slow.Interval = 60
	r := sampled(t, slow)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/http/sample", nil).
		WithContext(ctx)
	rr := httptest.NewRecorder()
	Handler(&Server{Registry: r}).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSpec(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	var routes []string
	h := Handler(&Server{
		Config:   NewConfigHandler(struct{}{}),
		LogLevel: log.LevelHandler().ServeHTTP,
	})
	err = chi.Walk(h.(chi.Routes), func(method, route string, _ http.Handler,
		_ ...func(http.Handler) http.Handler) error {

		routes = append(routes, method+" "+route)
		return nil
	})
	require.NoError(t, err)

	var documented []string
	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			documented = append(documented, method+" /api/v1"+path)
		}
	}
	assert.ElementsMatch(t, documented, routes)
}

func TestSpecHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/spec", nil)
	rr := httptest.NewRecorder()
	Handler(&Server{}).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	doc, err := openapi3.NewLoader().LoadFromData(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "upstreamd management API", doc.Info.Title)
}

func TestUpstreamSchema(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	schema := doc.Components.Schemas["Upstream"].Value

	for _, file := range []string{"upstream-a.json", "upstream-posted.json"} {
		t.Run(file, func(t *testing.T) {
			var v any
			require.NoError(t, json.Unmarshal(xtest.MustReadGolden(t, file, nil, false), &v))
			assert.NoError(t, schema.VisitJSON(v))
		})
	}
	assert.Error(t, schema.VisitJSON(map[string]any{"id": "c", "unknown": 1.0}))
}
