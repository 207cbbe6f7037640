// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the kanban configuration file.
//
// The file is named by --config or, through [Load], the KANBAN_CONFIG
// environment variable. There is no search path. Names ending in .json
// or .jsonc are read as JSON with comments, anything else as YAML, and
// both are decoded over [Default].
//
// A top-level development, staging or production key holds overrides
// applied when [Config].Environment matches. Production always
// requires signed webhook deliveries.
//
// Path fields expand ${HOME}, ${KANBAN_ROOT} and ${VAR:-default}.
// Environment variables never override values directly.
package config
