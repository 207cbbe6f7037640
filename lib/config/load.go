// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads the file named by KANBAN_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv("KANBAN_CONFIG")
	if path == "" {
		return nil, errors.New("KANBAN_CONFIG environment variable not set; " +
			"point it at a kanban.yaml or pass --config")
	}
	return LoadFile(path)
}

// LoadFile decodes path over Default, applies the section of the
// selected environment, and expands variables in path fields.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".json" || ext == ".jsonc" {
		if data, err = jsoncToYAML(data); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg := Default()
	if document.Kind == 0 {
		return cfg, nil
	}
	if err := document.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.applySection(&document); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.expandPaths()
	return cfg, nil
}

// jsoncToYAML lets JSON configs share the YAML decoder and tags.
func jsoncToYAML(data []byte) ([]byte, error) {
	var document any
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return nil, fmt.Errorf("parsing JSONC: %w", err)
	}
	return yaml.Marshal(document)
}

// applySection decodes the top-level key named after the environment
// over the base values. A section cannot change the environment.
// Production always requires signed deliveries.
func (c *Config) applySection(document *yaml.Node) error {
	if c.Environment == Production {
		defer func() { c.Webhook.RequireSignature = true }()
	}
	section := lookup(document, string(c.Environment))
	if section == nil {
		return nil
	}
	overlay := struct {
		Paths    *PathsConfig    `yaml:"paths"`
		Webhook  *WebhookConfig  `yaml:"webhook"`
		Realtime *RealtimeConfig `yaml:"realtime"`
		Store    *StoreConfig    `yaml:"store"`
		Tracker  *TrackerConfig  `yaml:"tracker"`
		Session  *SessionConfig  `yaml:"session"`
		Chat     *ChatConfig     `yaml:"chat"`
	}{&c.Paths, &c.Webhook, &c.Realtime, &c.Store, &c.Tracker, &c.Session, &c.Chat}
	if err := section.Decode(&overlay); err != nil {
		return fmt.Errorf("%s section: %w", c.Environment, err)
	}
	return nil
}

// lookup returns the value of a top-level mapping key, or nil.
func lookup(document *yaml.Node, key string) *yaml.Node {
	root := document
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1]
		}
	}
	return nil
}

// expandPaths expands ${VAR} and ${VAR:-default} in file locations.
// KANBAN_ROOT refers to the expanded paths.root.
func (c *Config) expandPaths() {
	known := map[string]string{"HOME": os.Getenv("HOME")}
	c.Paths.Root = expand(c.Paths.Root, known)
	known["KANBAN_ROOT"] = c.Paths.Root
	for _, field := range []*string{&c.Paths.State, &c.Paths.Database, &c.Webhook.SecretFile} {
		*field = expand(*field, known)
	}
}

func expand(value string, known map[string]string) string {
	return os.Expand(value, func(reference string) string {
		name, fallback, _ := strings.Cut(reference, ":-")
		if resolved := known[name]; resolved != "" {
			return resolved
		}
		if resolved := os.Getenv(name); resolved != "" {
			return resolved
		}
		return fallback
	})
}
