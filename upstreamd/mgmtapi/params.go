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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	api "github.com/upstreamkit/upstreamkit/private/mgmtapi"
)

// GetUpstreamsParams defines the query parameters of GetUpstreams.
type GetUpstreamsParams struct {
	// Type restricts the listing to upstreams of this type.
	Type *string
}

// SampleUpstreamParams defines the query parameters of SampleUpstream.
type SampleUpstreamParams struct {
	// Hint is the hint kind, same or different.
	Hint *string
	// Upstream is the ID the hint refers to.
	Upstream *string
}

func bindPathParam(r *http.Request, name string, dest *string) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return serrors.Wrap("invalid format for parameter", err, "parameter", name)
	}
	return nil
}

func bindQueryParam(r *http.Request, name string, dest **string) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return serrors.Wrap("invalid format for parameter", err, "parameter", name)
	}
	return nil
}

func bindGetUpstreamsParams(r *http.Request) (GetUpstreamsParams, error) {
	var params GetUpstreamsParams
	err := bindQueryParam(r, "type", &params.Type)
	return params, err
}

func bindSampleUpstreamParams(r *http.Request) (SampleUpstreamParams, error) {
	var params SampleUpstreamParams
	if err := bindQueryParam(r, "hint", &params.Hint); err != nil {
		return params, err
	}
	err := bindQueryParam(r, "upstream", &params.Upstream)
	return params, err
}

func paramError(w http.ResponseWriter, err error) {
	api.ErrorResponse(w, api.Problem{
		Detail: api.StringRef(err.Error()),
		Status: http.StatusBadRequest,
		Title:  "invalid parameter",
		Type:   api.StringRef(api.BadRequest),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
