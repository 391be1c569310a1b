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

// Package config defines how configuration blocks are initialized, validated
// and rendered as a commented TOML sample.
//
// Every block implements Config. InitDefaults fills in unset fields, Validate
// rejects inconsistent values, and Sample writes a sample that decodes back
// into the defaults. Each block has a test that checks this round trip.
//
// Sample is allowed to panic if writing fails.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
)

// ID is the sample context key for the instance identifier.
const ID = "id"

// Config is implemented by every configuration block.
type Config interface {
	Sampler
	Validator
	Defaulter
}

// Validator defines the validation part of Config.
type Validator interface {
	// Validate recursively checks that all fields contain valid values.
	Validate() error
}

// Defaulter defines the initialization part of Config.
type Defaulter interface {
	// InitDefaults recursively initializes the default values of all
	// uninitialized fields.
	InitDefaults()
}

// Sampler defines the sample generation part of Config.
type Sampler interface {
	// Sample writes a sample config to dst.
	Sample(dst io.Writer, path Path, ctx CtxMap)
}

// TableSampler is a Sampler that is rendered as its own TOML table.
type TableSampler interface {
	Sampler
	// ConfigName returns the table name.
	ConfigName() string
}

// Path is the header of a config table, one element per nesting level.
type Path []string

// Extend returns a copy of p with s appended.
func (p Path) Extend(s string) Path {
	c := append(Path(nil), p...)
	return append(c, s)
}

// NoValidator can be embedded in blocks without validation rules.
type NoValidator struct{}

// Validate always returns nil.
func (NoValidator) Validate() error {
	return nil
}

// NoDefaulter can be embedded in blocks without defaults.
type NoDefaulter struct{}

// InitDefaults is a no-op.
func (NoDefaulter) InitDefaults() {}

// StringSampler writes Text as the sample of a table called Name.
type StringSampler struct {
	Text string
	Name string
}

// Sample writes the text to dst.
func (s StringSampler) Sample(dst io.Writer, _ Path, _ CtxMap) {
	WriteString(dst, s.Text)
}

// ConfigName returns the name.
func (s StringSampler) ConfigName() string {
	return s.Name
}

// ValidateAll validates all validators and returns the first error.
func ValidateAll(validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return serrors.Wrap("validating config", err, "type", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

// InitAll initializes all defaulters.
func InitAll(defaulters ...Defaulter) {
	for _, d := range defaulters {
		d.InitDefaults()
	}
}

// Decode decodes raw TOML into cfg. Unknown keys are an error.
func Decode(raw []byte, cfg any) error {
	return toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(cfg)
}

// LoadFile decodes the TOML file into cfg.
func LoadFile(file string, cfg any) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return serrors.Wrap("reading config file", err, "file", file)
	}
	if err := Decode(raw, cfg); err != nil {
		return serrors.Wrap("decoding config file", err, "file", file)
	}
	return nil
}
