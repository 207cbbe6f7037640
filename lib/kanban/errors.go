// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kanban

import (
	"errors"
	"fmt"
)

// ErrIssueExists is returned by AddIssue when an issue with the same
// tracker number is already part of the project. The message is the
// acknowledgement text clients and the webhook sender see.
var ErrIssueExists = errors.New("issue already exists.")

// UserError is a condition the caller can correct: a missing entity, an
// invalid stage, an undefined label. It is reported to the caller with
// status "error" and is never logged as a server fault.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// UserErrorf formats a new *UserError.
func UserErrorf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err wraps a *UserError.
func IsUserError(err error) bool {
	var userError *UserError
	return errors.As(err, &userError)
}

func issueNotFound(issueID string) error {
	return UserErrorf("issue not found: %s", issueID)
}

func memberNotFound(userName string) error {
	return UserErrorf("member not found: %s", userName)
}

func labelNotFound(name string) error {
	return UserErrorf("label not found: %s", name)
}
