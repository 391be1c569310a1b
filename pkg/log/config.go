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

package log

import (
	"io"

	"go.uber.org/zap/zapcore"

	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/private/config"
)

const (
	// DefaultConsoleLevel is the default log level for the console.
	DefaultConsoleLevel = "info"
	// DefaultStacktraceLevel is the default log level from which on stack
	// traces are attached.
	DefaultStacktraceLevel = "none"
)

// Config is the configuration for the logger.
type Config struct {
	Console ConsoleConfig `toml:"console,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values.
func (c *Config) InitDefaults() {
	c.Console.InitDefaults()
}

// Validate checks the logging configuration.
func (c *Config) Validate() error {
	return c.Console.Validate()
}

// Sample writes the sample config to dst.
func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Console)
}

// ConfigName returns the name of the config block.
func (c *Config) ConfigName() string {
	return "log"
}

// ConsoleConfig is the config for the console logger.
type ConsoleConfig struct {
	// Level of console logging (debug|info|error).
	Level string `toml:"level,omitempty"`
	// Format of the console logging (human|json).
	Format string `toml:"format,omitempty"`
	// StacktraceLevel sets from which level stacktraces are printed
	// (debug|info|error|none).
	StacktraceLevel string `toml:"stacktrace_level,omitempty"`
	// DisableCaller stops annotating logs with the calling function's file
	// name and line number.
	DisableCaller bool `toml:"disable_caller,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values.
func (c *ConsoleConfig) InitDefaults() {
	if c.Level == "" {
		c.Level = DefaultConsoleLevel
	}
	if c.Format == "" {
		c.Format = "human"
	}
	if c.StacktraceLevel == "" {
		c.StacktraceLevel = DefaultStacktraceLevel
	}
	// zap has no "none" level; anything above fatal never triggers.
	if c.StacktraceLevel == "none" {
		c.StacktraceLevel = zapcore.FatalLevel.String()
	}
}

// Validate checks the console logging configuration.
func (c *ConsoleConfig) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return serrors.Wrap("invalid console level", err, "level", c.Level)
	}
	switch c.Format {
	case "human", "json":
	default:
		return serrors.New("unsupported console format", "format", c.Format)
	}
	return nil
}

// Sample writes the sample config to dst.
func (c *ConsoleConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, consoleSample)
}

// ConfigName returns the name of the config block.
func (c *ConsoleConfig) ConfigName() string {
	return "console"
}

const consoleSample = `
# Console logging level (debug|info|error). (default info)
level = "info"

# Console logging format (human|json). (default human)
format = "human"

# Level from which on stack traces are attached (debug|info|error|none).
# (default none)
stacktrace_level = "none"

# Disable the caller annotation. (default false)
disable_caller = false
`
