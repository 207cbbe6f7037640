// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package markdown renders issue bodies to HTML for the board.
//
// Bodies use GitHub-flavored markdown because most of them arrive from
// GitHub. Raw HTML in the source is not passed through: goldmark omits
// it unless the unsafe renderer option is set, and it is not.
package markdown

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// The configured goldmark instance never changes and is safe to share.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
			// GitHub treats single newlines in issue bodies as breaks.
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return markdownInstance
}

// Renderer converts markdown to HTML.
type Renderer struct{}

// New returns a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render returns the HTML for source. An empty source renders to an
// empty string.
func (r *Renderer) Render(source string) (string, error) {
	if source == "" {
		return "", nil
	}
	var output bytes.Buffer
	if err := getMarkdown().Convert([]byte(source), &output); err != nil {
		return "", fmt.Errorf("markdown: rendering: %w", err)
	}
	return output.String(), nil
}
