// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kanban

import "slices"

// AddMember appends a user to the board. New members are visible with
// no WIP limit.
func (p *Project) AddMember(user User) (Member, error) {
	if user.UserName == "" {
		return Member{}, UserErrorf("member name is required")
	}
	if p.FindMember(user.UserName) != nil {
		return Member{}, UserErrorf("member already exists: %s", user.UserName)
	}
	member := Member{
		UserID:    user.ID,
		UserName:  user.UserName,
		AvatarURL: user.AvatarURL,
		Visible:   true,
	}
	p.Members = append(p.Members, member)
	return member, nil
}

// RemoveMember removes a member and clears their assignments. Issues
// they were assigned to keep their stage.
func (p *Project) RemoveMember(userName string) (Member, error) {
	index := p.memberIndex(userName)
	if index < 0 {
		return Member{}, memberNotFound(userName)
	}
	removed := p.Members[index]
	p.Members = slices.Delete(p.Members, index, index+1)
	for issueIndex := range p.Issues {
		if p.Issues[issueIndex].AssigneeID == removed.UserID {
			p.Issues[issueIndex].AssigneeID = ""
		}
	}
	return removed, nil
}

// MemberUpdate selects the member fields to change. Nil fields are left
// alone.
type MemberUpdate struct {
	WIPLimit *int  `json:"wipLimit,omitempty"`
	Visible  *bool `json:"visible,omitempty"`
}

// UpdateMember applies update to the named member.
func (p *Project) UpdateMember(userName string, update MemberUpdate) (Member, error) {
	member := p.FindMember(userName)
	if member == nil {
		return Member{}, memberNotFound(userName)
	}
	if update.WIPLimit != nil {
		if *update.WIPLimit < 0 {
			return Member{}, UserErrorf("wip limit must not be negative: %d", *update.WIPLimit)
		}
		member.WIPLimit = *update.WIPLimit
	}
	if update.Visible != nil {
		member.Visible = *update.Visible
	}
	return *member, nil
}

// UpdateMemberOrder moves the named member ahead of
// insertBeforeUserName, or to the end when it is empty. The second
// result is the member now following the moved one, nil at the end.
func (p *Project) UpdateMemberOrder(userName, insertBeforeUserName string) (Member, *Member, error) {
	index := p.memberIndex(userName)
	if index < 0 {
		return Member{}, nil, memberNotFound(userName)
	}
	if insertBeforeUserName != "" && p.memberIndex(insertBeforeUserName) < 0 {
		return Member{}, nil, memberNotFound(insertBeforeUserName)
	}
	if insertBeforeUserName == userName {
		return p.Members[index], nil, nil
	}

	moved := p.Members[index]
	p.Members = slices.Delete(p.Members, index, index+1)
	position := len(p.Members)
	if insertBeforeUserName != "" {
		position = p.memberIndex(insertBeforeUserName)
	}
	p.Members = slices.Insert(p.Members, position, moved)

	var next *Member
	if position+1 < len(p.Members) {
		following := p.Members[position+1]
		next = &following
	}
	return moved, next, nil
}
