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

// Package launcher runs the service binaries. It sets up the command line,
// loads the TOML configuration, initializes logging and passes control to the
// application specific main function.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/upstreamkit/upstreamkit/pkg/log"
	"github.com/upstreamkit/upstreamkit/pkg/metrics"
	"github.com/upstreamkit/upstreamkit/pkg/private/prom"
	"github.com/upstreamkit/upstreamkit/pkg/private/serrors"
	"github.com/upstreamkit/upstreamkit/private/app/command"
	libconfig "github.com/upstreamkit/upstreamkit/private/config"
	"github.com/upstreamkit/upstreamkit/private/env"
)

// Configuration keys used by the launcher.
const (
	cfgConfigFile                = "config"
	cfgLogConsoleLevel           = "log.console.level"
	cfgLogConsoleFormat          = "log.console.format"
	cfgLogConsoleStacktraceLevel = "log.console.stacktrace_level"
	cfgGeneralID                 = "general.id"
)

// Application models a server application.
type Application struct {
	// TOMLConfig holds the Go data structure for the application-specific
	// TOML configuration.
	TOMLConfig libconfig.Config

	// ShortName is the short name of the application. If empty, the
	// executable name is used.
	ShortName string

	// Main is the custom logic of the application. If nil, no custom logic is
	// executed (and only the setup/teardown harness runs). If Main returns an
	// error, the Run method will return a non-zero exit code.
	Main func(ctx context.Context) error

	// ErrorWriter specifies where error output should be printed. If nil,
	// os.Stderr is used.
	ErrorWriter io.Writer

	cmd    *cobra.Command
	config *viper.Viper
}

// Run sets up the common server harness, and then passes control to the Main
// function (if one exists). The application is stopped on SIGINT and SIGTERM.
//
// Run will exit the application if it encounters a fatal error.
func (a *Application) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		// If the main goroutine shuts down everything in time, this won't get
		// a chance to run.
		time.AfterFunc(env.ShutdownGraceInterval, func() {
			defer log.HandlePanic()
			panic("Main goroutine did not shut down in time. " +
				"It's probably stuck. Forcing shutdown.")
		})
	}()
	if err := a.run(ctx, os.Args[0], os.Args[1:]); err != nil {
		fmt.Fprintf(a.getErrorWriter(), "fatal error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func (a *Application) run(ctx context.Context, arg0 string, args []string) error {
	executable := filepath.Base(arg0)
	shortName := a.getShortName(executable)

	a.cmd = newCommandTemplate(executable, shortName, a.TOMLConfig)
	a.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.executeCommand(cmd.Context(), shortName)
	}
	a.cmd.SetArgs(args)
	a.config = viper.New()
	a.config.SetDefault(cfgLogConsoleLevel, log.DefaultConsoleLevel)
	a.config.SetDefault(cfgLogConsoleFormat, "human")
	a.config.SetDefault(cfgLogConsoleStacktraceLevel, log.DefaultStacktraceLevel)
	a.config.SetDefault(cfgGeneralID, executable)
	if err := bindFlags(a.config, a.cmd.Flags()); err != nil {
		return err
	}
	return a.cmd.ExecuteContext(ctx)
}

// bindFlags registers the launcher flags of fs with v. The configuration file
// location is specified through command-line flags. Once the command-line
// flags are parsed, viper reads its location from the bound flag.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	return v.BindPFlag(cfgConfigFile, fs.Lookup(cfgConfigFile))
}

func (a *Application) getShortName(executable string) string {
	if a.ShortName != "" {
		return a.ShortName
	}
	return executable
}

func (a *Application) executeCommand(ctx context.Context, shortName string) error {
	os.Setenv("TZ", "UTC")

	// Load launcher configurations from the same config file as the custom
	// application configuration.
	file := a.config.GetString(cfgConfigFile)
	a.config.SetConfigType("toml")
	a.config.SetConfigFile(file)
	if err := a.config.ReadInConfig(); err != nil {
		return serrors.Wrap("loading generic server config from file", err, "file", file)
	}
	if err := libconfig.LoadFile(file, a.TOMLConfig); err != nil {
		return serrors.Wrap("loading config from file", err, "file", file)
	}
	a.TOMLConfig.InitDefaults()

	logEntriesTotal := prom.SafeRegister(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lib_log_emitted_entries_total",
			Help: "Total number of log entries emitted.",
		},
		[]string{"level"},
	)).(*prometheus.CounterVec)
	opt := log.WithEntriesCounter(newEntriesCounter(logEntriesTotal))
	if err := log.Setup(a.getLogging(), opt); err != nil {
		return serrors.Wrap("initialize logging", err)
	}
	defer log.Flush()

	id := a.config.GetString(cfgGeneralID)
	env.LogAppStarted(shortName, id)
	defer env.LogAppStopped(shortName, id)
	defer log.HandlePanic()

	prom.ExportElementID(id)
	if err := a.TOMLConfig.Validate(); err != nil {
		return serrors.Wrap("validate config", err)
	}
	if a.Main == nil {
		return nil
	}
	return a.Main(ctx)
}

func newEntriesCounter(cv *prometheus.CounterVec) log.EntriesCounter {
	c := metrics.NewPromCounter(cv)
	return log.EntriesCounter{
		Debug: c.With("level", "debug"),
		Info:  c.With("level", "info"),
		Error: c.With("level", "error"),
	}
}

func (a *Application) getLogging() log.Config {
	return log.Config{
		Console: log.ConsoleConfig{
			Level:           a.config.GetString(cfgLogConsoleLevel),
			Format:          a.config.GetString(cfgLogConsoleFormat),
			StacktraceLevel: a.config.GetString(cfgLogConsoleStacktraceLevel),
		},
	}
}

func (a *Application) getErrorWriter() io.Writer {
	if a.ErrorWriter != nil {
		return a.ErrorWriter
	}
	return os.Stderr
}

func newCommandTemplate(executable, shortName string, cfg libconfig.Sampler) *cobra.Command {
	cmd := &cobra.Command{
		Use:           executable,
		Short:         shortName,
		Example:       fmt.Sprintf("  %s --config %s", executable, "upstreamd.toml"),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
	}
	cmd.AddCommand(
		command.NewCompletion(cmd),
		command.NewSample(cmd, command.NewSampleConfig(cfg)),
	)
	cmd.Flags().String(cfgConfigFile, "", "Configuration file (required)")
	_ = cmd.MarkFlagRequired(cfgConfigFile)
	return cmd
}
