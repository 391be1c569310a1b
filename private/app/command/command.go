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

// Package command contains subcommands shared by the binaries.
package command

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/upstreamkit/upstreamkit/private/config"
)

// Pather returns the path of a command.
type Pather interface {
	CommandPath() string
}

// NewCompletion creates a command that outputs shell completion scripts.
func NewCompletion(pather Pather) *cobra.Command {
	var flags struct {
		shell string
	}
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates shell completion scripts",
		Long: fmt.Sprintf(`Outputs the autocomplete configuration for some shells.

For example, you can add autocompletion for your current bash session using:

    . <( %[1]s completion )

To permanently add bash autocompletion, run:

    %[1]s completion > /etc/bash_completion.d/%[1]s
`, pather.CommandPath()),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			out := cmd.OutOrStdout()
			switch flags.shell {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unknown shell: %s", flags.shell)
			}
		},
	}
	cmd.Flags().StringVar(&flags.shell, "shell", "bash", "Shell type (bash|zsh|fish)")
	return cmd
}

// NewSample creates a command that groups the given sample subcommands.
func NewSample(pather Pather, cmds ...func(Pather) *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display sample files",
		Args:  cobra.NoArgs,
	}
	for _, f := range cmds {
		cmd.AddCommand(f(cmd))
	}
	return cmd
}

// NewSampleConfig returns a constructor for a subcommand that writes the
// sample of cfg to stdout.
func NewSampleConfig(cfg config.Sampler) func(Pather) *cobra.Command {
	return func(pather Pather) *cobra.Command {
		return &cobra.Command{
			Use:     "config",
			Short:   "Display sample configuration file",
			Example: fmt.Sprintf("  %s config > upstreamd.toml", pather.CommandPath()),
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cmd.SilenceUsage = true
				return WriteSample(cmd.OutOrStdout(), cfg)
			},
		}
	}
}

// WriteSample writes the sample of cfg to w. If w is nil, os.Stdout is used.
func WriteSample(w io.Writer, cfg config.Sampler) error {
	if w == nil {
		w = os.Stdout
	}
	var ctx config.CtxMap
	if s, ok := cfg.(interface{ SampleCtx() config.CtxMap }); ok {
		ctx = s.SampleCtx()
	}
	cfg.Sample(w, nil, ctx)
	return nil
}
