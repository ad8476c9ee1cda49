// Package service implements the application operations on top of the
// store, the access resolver and the search engine. Services receive an
// already-authenticated Identity from the transport layer and enforce
// every permission rule themselves.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/storage"
)

// GroupService manages collaboration groups, their membership and their
// per-signal collaborator grants.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group and makes the caller its first admin.
// Visitors may not create groups.
func (s *GroupService) CreateGroup(ctx context.Context, user models.Identity, name string) (*models.Group, error) {
	slog.Info("CreateGroup request received", "name", name, "user", user.Email)

	if user.Role == models.RoleVisitor {
		return nil, apperr.Forbiddenf("visitors may not create groups")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("group name required")
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: user.Email,
		AdminIDs:  []int64{user.UserID},
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID)
	return group, nil
}

// GetGroup retrieves a group. Only members, admins of the group and
// global admins may read it.
func (s *GroupService) GetGroup(ctx context.Context, user models.Identity, id int64) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", id, "error", err)
		return nil, err
	}
	if !user.IsAdmin() && !group.HasMember(user.UserID) {
		return nil, apperr.Forbiddenf("user %d is not in group %d", user.UserID, id)
	}
	return group, nil
}

// ListGroups lists every group for admins, and the caller's own groups
// (member or admin) for everyone else.
func (s *GroupService) ListGroups(ctx context.Context, user models.Identity) ([]*models.Group, error) {
	slog.Info("ListGroups request received", "user", user.Email)

	if user.IsAdmin() {
		return s.store.ListGroups(ctx)
	}
	return s.store.ListGroupsForUser(ctx, user.UserID)
}

// Members returns the accounts behind the group's member and admin sets,
// keyed by user ID. Same read access as GetGroup.
func (s *GroupService) Members(ctx context.Context, user models.Identity, groupID int64) (map[int64]*models.User, error) {
	group, err := s.GetGroup(ctx, user, groupID)
	if err != nil {
		return nil, err
	}
	ids := append(append([]int64{}, group.MemberIDs...), group.AdminIDs...)
	return s.store.GetUsersByIDs(ctx, ids)
}

// DeleteGroup removes a group with its membership, shared signals and
// collaborator grants. Requires group admin or global admin.
func (s *GroupService) DeleteGroup(ctx context.Context, user models.Identity, id int64) error {
	if _, err := s.requireGroupAdmin(ctx, user, id); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, id); err != nil {
		slog.Error("DeleteGroup failed", "group_id", id, "error", err)
		return err
	}
	slog.Info("Group deleted", "group_id", id, "actor", user.Email)
	return nil
}

// AddMember adds a user to the group. Adding an existing member is a
// no-op. Requires group admin or global admin.
func (s *GroupService) AddMember(ctx context.Context, user models.Identity, groupID, userID int64) error {
	if _, err := s.requireGroupAdmin(ctx, user, groupID); err != nil {
		return err
	}
	return s.store.AddMember(ctx, groupID, userID, user.Email)
}

// RemoveMember removes a user from the group's member set. Requires
// group admin or global admin.
func (s *GroupService) RemoveMember(ctx context.Context, user models.Identity, groupID, userID int64) error {
	if _, err := s.requireGroupAdmin(ctx, user, groupID); err != nil {
		return err
	}
	return s.store.RemoveMember(ctx, groupID, userID, user.Email)
}

// AddAdmin grants a user admin rights on the group. Requires group
// admin or global admin.
func (s *GroupService) AddAdmin(ctx context.Context, user models.Identity, groupID, userID int64) error {
	if _, err := s.requireGroupAdmin(ctx, user, groupID); err != nil {
		return err
	}
	return s.store.AddAdmin(ctx, groupID, userID, user.Email)
}

// RemoveAdmin revokes a user's admin rights on the group. The last
// admin cannot be removed. Requires group admin or global admin.
func (s *GroupService) RemoveAdmin(ctx context.Context, user models.Identity, groupID, userID int64) error {
	group, err := s.requireGroupAdmin(ctx, user, groupID)
	if err != nil {
		return err
	}
	if len(group.AdminIDs) == 1 && group.AdminIDs[0] == userID {
		return apperr.Validationf("group %d must keep at least one admin", groupID)
	}
	return s.store.RemoveAdmin(ctx, groupID, userID, user.Email)
}

// AddSignal shares a signal with the group, making it visible to every
// member and admin. Requires group admin or global admin.
func (s *GroupService) AddSignal(ctx context.Context, user models.Identity, groupID, signalID int64) error {
	if _, err := s.requireGroupAdmin(ctx, user, groupID); err != nil {
		return err
	}
	return s.store.AddSignal(ctx, groupID, signalID, user.Email)
}

// RemoveSignal withdraws a signal from the group. Collaborator grants
// on that signal through this group are removed with it. Requires group
// admin or global admin.
func (s *GroupService) RemoveSignal(ctx context.Context, user models.Identity, groupID, signalID int64) error {
	if _, err := s.requireGroupAdmin(ctx, user, groupID); err != nil {
		return err
	}
	return s.store.RemoveSignal(ctx, groupID, signalID, user.Email)
}

// SetCollaborators replaces the collaborator set for one signal in the
// group. The signal must already be shared with the group. Requires
// group admin or global admin.
func (s *GroupService) SetCollaborators(ctx context.Context, user models.Identity, groupID, signalID int64, userIDs []int64) error {
	if _, err := s.requireGroupAdmin(ctx, user, groupID); err != nil {
		return err
	}
	if err := s.store.SetCollaborators(ctx, groupID, signalID, userIDs, user.Email); err != nil {
		slog.Error("SetCollaborators failed", "group_id", groupID, "signal_id", signalID, "error", err)
		return err
	}
	slog.Info("Collaborators set",
		"group_id", groupID,
		"signal_id", signalID,
		"count", len(userIDs),
		"actor", user.Email,
	)
	return nil
}

// AuditTrail returns the group's mutation history, newest first.
// Requires group admin or global admin.
func (s *GroupService) AuditTrail(ctx context.Context, user models.Identity, groupID int64) ([]models.AuditEntry, error) {
	if _, err := s.requireGroupAdmin(ctx, user, groupID); err != nil {
		return nil, err
	}
	return s.store.AuditTrail(ctx, groupID)
}

func (s *GroupService) requireGroupAdmin(ctx context.Context, user models.Identity, groupID int64) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && !group.HasAdmin(user.UserID) {
		return nil, apperr.Forbiddenf("user %d does not administer group %d", user.UserID, groupID)
	}
	return group, nil
}
