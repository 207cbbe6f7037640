// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kanban

// Stage is a point in an issue's lifecycle.
type Stage string

const (
	StageBacklog Stage = "backlog"
	StageTodo    Stage = "todo"
	StageIssue   Stage = "issue"
	StageDone    Stage = "done"
	StageArchive Stage = "archive"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{StageBacklog, StageTodo, StageIssue, StageDone, StageArchive}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	return s.rank() >= 0
}

// Closed reports whether the stage corresponds to a closed tracker
// issue.
func (s Stage) Closed() bool {
	return s == StageDone || s == StageArchive
}

// Assignable reports whether an issue at this stage may carry an
// assignee.
func (s Stage) Assignable() bool {
	return s.rank() >= StageTodo.rank()
}

// Before reports whether s comes strictly earlier in the lifecycle than
// other. Unknown stages sort before every known stage.
func (s Stage) Before(other Stage) bool {
	return s.rank() < other.rank()
}

func (s Stage) rank() int {
	for index, stage := range Stages {
		if stage == s {
			return index
		}
	}
	return -1
}
