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
	_ "embed"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	api "github.com/upstreamkit/upstreamkit/private/mgmtapi"
)

//go:embed spec.yml
var rawSpec []byte

var loadSwagger = sync.OnceValues(func() (*openapi3.T, error) {
	return openapi3.NewLoader().LoadFromData(rawSpec)
})

// GetSwagger returns the OpenAPI description of the management API.
func GetSwagger() (*openapi3.T, error) {
	return loadSwagger()
}

// GetSpec serves the OpenAPI description of the management API as JSON.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	doc, err := GetSwagger()
	if err != nil {
		api.ErrorResponse(w, api.Problem{
			Detail: api.StringRef(err.Error()),
			Status: http.StatusInternalServerError,
			Title:  "error loading API description",
			Type:   api.StringRef(api.InternalError),
		})
		return
	}
	api.JSONResponse(w, http.StatusOK, doc)
}
