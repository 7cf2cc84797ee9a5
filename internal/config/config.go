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

// Package config reads Jira connection settings from an INI configuration
// file. One file can describe several trackers or queries, one per section;
// the section to use is selected on the command line. Values may reference
// environment variables, which keeps tokens out of the file itself:
//
//	[source]
//	endpoint = https://jira.example.com
//	token    = $JIRA_TOKEN
//	query    = project = ABC AND created >= -30d ORDER BY created ASC
//
// Optional per-section settings: client_cert and client_key (paths to a PEM
// pair for mutual TLS) and batch_size (page size for paginated requests,
// default 100).
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
)

// Load reads the configuration file at path and returns the settings of the
// named section. Environment variable references in values ($VAR or ${VAR})
// are expanded at read time. The returned settings are not yet validated;
// callers should invoke Validate before using them.
func Load(path, section string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %v: %w", path, err, dlerrors.ErrInvalidConfig)
	}
	cfg.ValueMapper = os.ExpandEnv

	sec, err := cfg.GetSection(section)
	if err != nil {
		return nil, fmt.Errorf("section [%s] not found in %s (available: %s): %w",
			section, path, strings.Join(sectionNames(cfg), ", "), dlerrors.ErrInvalidConfig)
	}

	s := &Settings{BatchSize: DefaultBatchSize}

	if s.Endpoint, err = requiredKey(sec, "endpoint"); err != nil {
		return nil, err
	}
	s.Endpoint = strings.TrimRight(s.Endpoint, "/")

	if s.Token, err = requiredKey(sec, "token"); err != nil {
		return nil, err
	}
	if s.Query, err = requiredKey(sec, "query"); err != nil {
		return nil, err
	}

	s.ClientCert = strings.TrimSpace(sec.Key("client_cert").String())
	s.ClientKey = strings.TrimSpace(sec.Key("client_key").String())

	if sec.HasKey("batch_size") {
		size, err := sec.Key("batch_size").Int()
		if err != nil {
			return nil, fmt.Errorf("batch_size in section [%s] is not a number: %w", section, dlerrors.ErrInvalidConfig)
		}
		s.BatchSize = size
	}

	return s, nil
}

// requiredKey returns the trimmed value of a key the section must define.
func requiredKey(sec *ini.Section, name string) (string, error) {
	if !sec.HasKey(name) {
		return "", fmt.Errorf("missing option %q in section [%s]: %w", name, sec.Name(), dlerrors.ErrInvalidConfig)
	}
	return strings.TrimSpace(sec.Key(name).String()), nil
}

// sectionNames lists the sections a user could select, hiding the implicit
// default section ini files always carry.
func sectionNames(cfg *ini.File) []string {
	names := make([]string, 0, len(cfg.SectionStrings()))
	for _, name := range cfg.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		names = append(names, name)
	}
	return names
}
