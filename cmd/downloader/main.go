// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prigio/jira-comments-downloader/internal/config"
	"github.com/prigio/jira-comments-downloader/internal/pipeline"
	"github.com/prigio/jira-comments-downloader/pkg/version"
)

func main() {
	rootCmd := newRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

// newRootCommand builds the command line surface. The tool is single
// purpose, so everything hangs off the root command.
func newRootCommand() *cobra.Command {
	var (
		configFile     string
		section        string
		outputFile     string
		onConvertError string
		debug          bool
	)

	cmd := &cobra.Command{
		Use:   "downloader -c <config.ini>",
		Short: "Download Jira issue comments as NDJSON",
		Long: `Download the comments of every Jira issue matching a JQL query and emit
them as NDJSON: one JSON object per comment per line, written to stdout.

Comment bodies are converted from Jira wiki markup to Markdown, [~username]
mentions are resolved to email addresses, and every record carries the issue
it belongs to. All diagnostics go to stderr; stdout carries nothing but
records, so the output can be piped straight into jq, an indexer or a bulk
importer.

The Jira server, the access token and the query are read from an INI
configuration file:

  [source]
  endpoint = https://jira.example.com
  token    = ${JIRA_TOKEN}
  query    = project = DEMO ORDER BY created ASC

Option values may reference environment variables with ${VAR}.`,
		Args:          cobra.NoArgs,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := pipeline.ParsePolicy(onConvertError)
			if err != nil {
				return err
			}

			setupLogging(debug)
			return runDownload(cmd.Context(), configFile, section, outputFile, policy)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the INI configuration file (required)")
	cmd.Flags().StringVarP(&section, "section", "s", config.DefaultSection, "Section of the configuration file to use")
	cmd.Flags().StringVar(&outputFile, "output", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&onConvertError, "on-convert-error", "abort", "Handling of comments that cannot be converted: abort or skip")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging on stderr")

	// The flag is registered right above; MarkFlagRequired only fails for
	// unknown names.
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
