// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import "github.com/bureau-foundation/kanban/lib/kanban"

// AddMember adds a user to the board, creating the global user when
// needed. The avatar is fetched from GitHub when the project has a
// repository; a failed fetch leaves the stored avatar in place.
func (t *Txn) AddMember(userName string) (Ack, error) {
	if userName == "" {
		return Ack{}, kanban.UserErrorf("member name is required")
	}
	if t.project.FindMember(userName) != nil {
		return Ack{}, kanban.UserErrorf("member already exists: %s", userName)
	}

	var avatarURL string
	if remote, err := t.Tracker(); err == nil {
		avatarURL, err = remote.AvatarURL(t.ctx, userName)
		if err != nil {
			t.service.logger.Warn("fetching avatar failed",
				"project_id", t.project.ID,
				"user_name", userName,
				"error", err,
			)
		}
	}
	user, err := t.service.store.FindOrCreateUser(t.ctx, userName, avatarURL)
	if err != nil {
		return Ack{}, err
	}
	member, err := t.project.AddMember(user)
	if err != nil {
		return Ack{}, err
	}

	t.broadcast("add-member", map[string]any{"member": member})
	t.notify(`added member: "`+userName+`"`)
	return Success("added member", map[string]any{"member": member}), nil
}

func (t *Txn) RemoveMember(userName string) (Ack, error) {
	member, err := t.project.RemoveMember(userName)
	if err != nil {
		return Ack{}, err
	}
	t.broadcast("remove-member", map[string]any{"member": member})
	t.notify(`removed member: "`+userName+`"`)
	return Success("removed member", nil), nil
}

func (t *Txn) UpdateMember(userName string, update kanban.MemberUpdate) (Ack, error) {
	member, err := t.project.UpdateMember(userName, update)
	if err != nil {
		return Ack{}, err
	}
	t.broadcast("update-member", map[string]any{"member": member})
	t.notify(`updated member: "`+userName+`" , `+jsonText(update))
	return Success("updated member", map[string]any{"member": member}), nil
}

// UpdateMemberOrder moves a member ahead of another. The broadcast
// carries the whole project so clients can redraw the column order.
func (t *Txn) UpdateMemberOrder(userName, insertBeforeUserName string) (Ack, error) {
	member, next, err := t.project.UpdateMemberOrder(userName, insertBeforeUserName)
	if err != nil {
		return Ack{}, err
	}
	t.broadcast("update-member-order", map[string]any{
		"member":                 member,
		"userName":               userName,
		"insertBeforeOfMember":   next,
		"insertBeforeOfUserName": insertBeforeUserName,
		"project":                t.project,
	})
	t.notify(`updated member order: insert "`+userName+`" before "`+insertBeforeUserName+`"`)
	return Success("updated member order", map[string]any{
		"issue":                member,
		"insertBeforeOfMember": next,
	}), nil
}
