// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kanban

import (
	"slices"
	"strings"
)

// ValidColor reports whether color is six hex digits without '#'.
func ValidColor(color string) bool {
	if len(color) != 6 {
		return false
	}
	for _, character := range color {
		if !strings.ContainsRune("0123456789abcdefABCDEF", character) {
			return false
		}
	}
	return true
}

// AddLabel defines a new label.
func (p *Project) AddLabel(label Label) error {
	if label.Name == "" {
		return UserErrorf("label name is required")
	}
	if !ValidColor(label.Color) {
		return UserErrorf("invalid label color: %q", label.Color)
	}
	if p.FindLabel(label.Name) != nil {
		return UserErrorf("label already exists: %s", label.Name)
	}
	p.Labels = append(p.Labels, label)
	return nil
}

// LabelMatches reports whether the project defines a label with the
// same name and color (case-insensitive) as remote.
func (p *Project) LabelMatches(remote Label) bool {
	local := p.FindLabel(remote.Name)
	return local != nil && strings.EqualFold(local.Color, remote.Color)
}

// ReplaceLabels overwrites the label definitions in the given order.
// Issue attachments to labels that no longer exist are dropped.
func (p *Project) ReplaceLabels(labels []Label) {
	p.Labels = slices.Clone(labels)
	for index := range p.Issues {
		issue := &p.Issues[index]
		issue.Labels = slices.DeleteFunc(issue.Labels, func(name string) bool {
			return p.FindLabel(name) == nil
		})
	}
}

// SetIssueLabelsByNumber overwrites the labels of the issue linked to
// number, keeping only defined labels. It reports whether the issue
// exists.
func (p *Project) SetIssueLabelsByNumber(number int, names []string) bool {
	issue := p.FindIssueByNumber(number)
	if issue == nil {
		return false
	}
	issue.Labels = []string{}
	for _, name := range names {
		if p.FindLabel(name) != nil && !issue.HasLabel(name) {
			issue.Labels = append(issue.Labels, name)
		}
	}
	return true
}

// AttachLabel attaches a defined label to an issue. changed is false
// when the label was already attached.
func (p *Project) AttachLabel(issueID, name string) (issue Issue, label Label, changed bool, err error) {
	target := p.FindIssue(issueID)
	if target == nil {
		return Issue{}, Label{}, false, issueNotFound(issueID)
	}
	definition := p.FindLabel(name)
	if definition == nil {
		return Issue{}, Label{}, false, labelNotFound(name)
	}
	if target.HasLabel(name) {
		return target.clone(), *definition, false, nil
	}
	target.Labels = append(target.Labels, name)
	return target.clone(), *definition, true, nil
}

// DetachLabel removes a label from an issue. changed is false when the
// label was not attached.
func (p *Project) DetachLabel(issueID, name string) (issue Issue, label Label, changed bool, err error) {
	target := p.FindIssue(issueID)
	if target == nil {
		return Issue{}, Label{}, false, issueNotFound(issueID)
	}
	definition := p.FindLabel(name)
	if definition == nil {
		return Issue{}, Label{}, false, labelNotFound(name)
	}
	index := slices.Index(target.Labels, name)
	if index < 0 {
		return target.clone(), *definition, false, nil
	}
	target.Labels = slices.Delete(target.Labels, index, index+1)
	return target.clone(), *definition, true, nil
}
