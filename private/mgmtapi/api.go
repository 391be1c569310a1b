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

// Package mgmtapi contains the building blocks shared by the HTTP management
// APIs of the services.
package mgmtapi

import (
	"encoding/json"
	"net/http"
)

// Problem types.
const (
	BadRequest    = "/problems/bad-request"
	NotFound      = "/problems/not-found"
	InternalError = "/problems/internal-error"
	Unavailable   = "/problems/unavailable"
)

// Problem is an RFC 7807 error description.
type Problem struct {
	// Detail is a human readable explanation of this occurrence.
	Detail *string `json:"detail,omitempty"`
	// Instance identifies the specific occurrence of the problem.
	Instance *string `json:"instance,omitempty"`
	// Status is the HTTP status code of the response.
	Status int `json:"status"`
	// Title is a short summary of the problem type.
	Title string `json:"title"`
	// Type identifies the problem type.
	Type *string `json:"type,omitempty"`
}

// StringRef returns a pointer to s.
func StringRef(s string) *string {
	return &s
}

// ErrorResponse writes p as problem+json response.
func ErrorResponse(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	// no point in catching error here, there is nothing we can do about it anymore.
	_ = enc.Encode(p)
}

// JSONResponse writes v as indented JSON with the given status code.
func JSONResponse(w http.ResponseWriter, status int, v any) {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		ErrorResponse(w, Problem{
			Detail: StringRef(err.Error()),
			Status: http.StatusInternalServerError,
			Title:  "unable to marshal response",
			Type:   StringRef(InternalError),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(raw, '\n'))
}
