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

package upstream

import (
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
)

// ErrNoUpstream is returned by Sample if no upstream can be selected.
var ErrNoUpstream = serrors.New("no upstream available")

// ErrUnknownUpstream is returned by Pool.Report if the upstream is not in the
// current snapshot.
var ErrUnknownUpstream = serrors.New("feedback for unknown upstream")
