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
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/prigio/jira-comments-downloader/internal/config"
	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
	"github.com/prigio/jira-comments-downloader/internal/jira"
	"github.com/prigio/jira-comments-downloader/internal/output"
	"github.com/prigio/jira-comments-downloader/internal/pipeline"
)

// runDownload loads the configuration, builds the writer and the client, and
// hands off to download.
func runDownload(ctx context.Context, configFile, section, outputFile string, policy pipeline.Policy) error {
	settings, err := config.Load(configFile, section)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	// Create output writer
	var writer output.RecordWriter
	if outputFile == "" {
		writer = output.NewWriter(os.Stdout)
	} else {
		fileWriter, fErr := output.NewFileWriter(outputFile)
		if fErr != nil {
			return fErr
		}
		writer = fileWriter
	}
	defer writer.Close()

	client, err := jira.NewRESTClient(jira.ClientConfig{
		BaseURL:    settings.Endpoint,
		Token:      settings.Token,
		ClientCert: settings.ClientCert,
		ClientKey:  settings.ClientKey,
	})
	if err != nil {
		return err
	}

	return download(ctx, client, writer, settings, policy)
}

// download verifies the credentials and runs the pipeline. It is separate
// from runDownload so tests can drive it with a mock client.
func download(ctx context.Context, client jira.Client, writer output.RecordWriter, settings *config.Settings, policy pipeline.Policy) error {
	// Fail before the first record is written when the token is bad.
	me, err := client.Myself(ctx)
	if err != nil {
		return err
	}
	slog.Info("connected to jira", "server", settings.Endpoint, "user", me.Name)

	p := pipeline.New(client, writer, pipeline.Options{
		Query:          settings.Query,
		BatchSize:      settings.BatchSize,
		OnConvertError: policy,
	})

	count, err := p.Run(ctx)
	if err != nil {
		return err
	}

	stats := p.Stats()
	slog.Info("download complete",
		"issues", stats.Issues,
		"comments", count,
		"skipped", stats.SkippedComments,
		"elapsed", stats.Elapsed.Round(time.Millisecond))
	return nil
}

// setupLogging installs the default logger. Diagnostics go to stderr so
// stdout stays pure NDJSON.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	// Check for specific error types
	if errors.Is(err, dlerrors.ErrInvalidToken) ||
		errors.Is(err, dlerrors.ErrBadQuery) ||
		errors.Is(err, dlerrors.ErrIssueNotFound) {
		return 2 // Access errors: bad token, rejected query, missing issue
	}

	if errors.Is(err, dlerrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error
}
