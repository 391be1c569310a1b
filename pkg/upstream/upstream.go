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

// Package upstream selects backend endpoints for outgoing requests.
//
// A Pool holds the upstreams of one type. It reloads them from a LoadFunc once
// the cache TTL expired, draws one at random proportionally to its effective
// weight, and delays the caller so that an upstream is not selected more often
// than its interval allows. Callers report the outcome of the request with
// Succeed or Fail. Failures decay the effective weight, a success restores the
// configured weight.
//
// A Registry creates one Pool per type on first use and routes feedback by the
// type of the upstream.
//
// Usage:
//
//	reg := upstream.NewRegistry(loader)
//	u, err := reg.Sample(ctx, "search", nil)
//	if err != nil {
//		return err
//	}
//	if err := call(ctx, u); err != nil {
//		reg.Fail(u)
//		return err
//	}
//	reg.Succeed(u)
package upstream

import (
	"time"
)

// DefaultInterval is the minimum time between two selections of an upstream
// that does not configure an interval, in seconds.
const DefaultInterval = 0.001

// ID identifies an upstream. Two upstreams are the same if their IDs are equal.
type ID string

func (id ID) String() string {
	return string(id)
}

// Upstream is a snapshot of a registered backend endpoint.
type Upstream struct {
	ID   ID     `json:"id"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path,omitempty"`

	Headers map[string]string `json:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Auth    map[string]string `json:"auth,omitempty"`

	// Interval is the minimum number of seconds between two selections.
	Interval float64 `json:"interval"`
	// Weight is the configured selection weight. Upstreams with weight 0 are
	// usually not returned by loaders.
	Weight float64 `json:"weight"`
}

// MinInterval returns the interval as a duration. An unset interval yields
// DefaultInterval.
func (u Upstream) MinInterval() time.Duration {
	interval := u.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	return time.Duration(interval * float64(time.Second))
}
