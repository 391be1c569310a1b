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
	"fmt"

	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
)

// HintKind is the kind of selection bias of a Hint.
type HintKind int

const (
	// HintSame prefers the hinted upstream.
	HintSame HintKind = iota
	// HintDiff prefers any upstream but the hinted one.
	HintDiff
)

func (k HintKind) String() string {
	switch k {
	case HintSame:
		return "same"
	case HintDiff:
		return "diff"
	default:
		return fmt.Sprintf("HintKind(%d)", int(k))
	}
}

// ParseHintKind parses "same" or "diff".
func ParseHintKind(s string) (HintKind, error) {
	switch s {
	case "same":
		return HintSame, nil
	case "diff":
		return HintDiff, nil
	default:
		return 0, serrors.New("unknown hint kind", "kind", s)
	}
}

// Hint biases the selection of Sample towards or away from a previously used
// upstream. A hint is advisory: if no cached upstream satisfies it, Sample
// draws from all cached upstreams.
type Hint struct {
	Kind HintKind
	ID   ID
}

// SameAs returns a hint that selects the upstream with the given ID.
func SameAs(id ID) *Hint {
	return &Hint{Kind: HintSame, ID: id}
}

// DifferentFrom returns a hint that selects any upstream except the one with
// the given ID.
func DifferentFrom(id ID) *Hint {
	return &Hint{Kind: HintDiff, ID: id}
}

func (h *Hint) String() string {
	if h == nil {
		return "none"
	}
	return h.Kind.String() + ":" + h.ID.String()
}

// matches reports whether u passes the filter of h.
func (h *Hint) matches(u Upstream) bool {
	if h.Kind == HintSame {
		return u.ID == h.ID
	}
	return u.ID != h.ID
}
