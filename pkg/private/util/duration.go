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

package util

import (
	"encoding"
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
)

const day = 24 * time.Hour

// ParseDuration parses a duration. In addition to the formats understood by
// time.ParseDuration, an integer followed by "d" is accepted as a number of
// days.
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, serrors.Wrap("invalid duration", err, "value", s)
		}
		return time.Duration(n) * day, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, serrors.Wrap("invalid duration", err, "value", s)
	}
	return d, nil
}

// FmtDuration formats d in a short form that ParseDuration accepts.
func FmtDuration(d time.Duration) string {
	if d != 0 && d%day == 0 {
		return strconv.FormatInt(int64(d/day), 10) + "d"
	}
	// time.Duration renders whole minutes as "1m0s" and whole hours as "1h0m0s".
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

var (
	_ encoding.TextUnmarshaler = (*DurWrap)(nil)
	_ encoding.TextMarshaler   = DurWrap{}
	_ flag.Value               = (*DurWrap)(nil)
)

// DurWrap wraps a time.Duration so that it can be used in TOML files and as a
// flag value.
type DurWrap struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DurWrap) UnmarshalText(text []byte) error {
	return d.Set(string(text))
}

// Set implements flag.Value.
func (d *DurWrap) Set(text string) error {
	var err error
	d.Duration, err = ParseDuration(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d DurWrap) MarshalText() ([]byte, error) {
	return []byte(FmtDuration(d.Duration)), nil
}

func (d DurWrap) String() string {
	return FmtDuration(d.Duration)
}
