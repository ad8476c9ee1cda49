package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
)

// CreateGroup inserts a group, makes its creator the first admin and
// records the creation in the audit trail, all in one transaction.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin create group", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_groups (name, created_by, created_at) VALUES (?, ?, ?)
		RETURNING id`,
		group.Name, group.CreatedBy, group.CreatedAt,
	).Scan(&group.ID)
	if err != nil {
		return wrap("insert group", err)
	}

	for _, userID := range group.AdminIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO group_admins (group_id, user_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING`,
			group.ID, userID,
		); err != nil {
			return wrap("insert group admin", err)
		}
	}

	if err := audit(ctx, tx, group.ID, group.CreatedBy, "create", group.Name); err != nil {
		return err
	}
	return wrap("commit create group", tx.Commit())
}

// GetGroup retrieves a group with its members, admins, signals and
// collaborator sets.
func (s *Store) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_by, created_at FROM user_groups WHERE id = ?`, id,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("group %d", id)
	}
	if err != nil {
		return nil, wrap("get group", err)
	}
	if err := s.loadGroupRelations(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups retrieves all groups ordered by name.
func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.listGroups(ctx, `
		SELECT id, name, created_by, created_at FROM user_groups ORDER BY name`)
}

// ListGroupsForUser retrieves every group the user is a member OR an
// admin of, in one combined query. Membership and administration are
// deliberately not fetched separately: two reads against changing state
// can miss groups.
func (s *Store) ListGroupsForUser(ctx context.Context, userID int64) ([]*models.Group, error) {
	return s.listGroups(ctx, `
		SELECT id, name, created_by, created_at
		FROM user_groups
		WHERE id IN (
			SELECT group_id FROM group_members WHERE user_id = ?
			UNION
			SELECT group_id FROM group_admins WHERE user_id = ?
		)
		ORDER BY name`,
		userID, userID)
}

func (s *Store) listGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list groups", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, wrap("scan group", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate groups", err)
	}

	for _, group := range groups {
		if err := s.loadGroupRelations(ctx, group); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *Store) loadGroupRelations(ctx context.Context, group *models.Group) error {
	var err error
	if group.MemberIDs, err = s.relationIDs(ctx, "group_members", "user_id", group.ID); err != nil {
		return err
	}
	if group.AdminIDs, err = s.relationIDs(ctx, "group_admins", "user_id", group.ID); err != nil {
		return err
	}
	if group.SignalIDs, err = s.relationIDs(ctx, "group_signals", "signal_id", group.ID); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_id, user_id FROM group_collaborators
		WHERE group_id = ? ORDER BY signal_id, user_id`,
		group.ID)
	if err != nil {
		return wrap("load collaborators", err)
	}
	defer rows.Close()

	group.Collaborators = make(map[int64][]int64)
	for rows.Next() {
		var signalID, userID int64
		if err := rows.Scan(&signalID, &userID); err != nil {
			return wrap("scan collaborator", err)
		}
		group.Collaborators[signalID] = append(group.Collaborators[signalID], userID)
	}
	return wrap("iterate collaborators", rows.Err())
}

func (s *Store) relationIDs(ctx context.Context, table, col string, groupID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+col+` FROM `+table+` WHERE group_id = ? ORDER BY `+col, groupID)
	if err != nil {
		return nil, wrap("load "+table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan "+table, err)
		}
		ids = append(ids, id)
	}
	return ids, wrap("iterate "+table, rows.Err())
}

// DeleteGroup removes a group; membership, admin, signal share,
// collaborator and audit rows cascade away with it.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_groups WHERE id = ?`, id)
	if err != nil {
		return wrap("delete group", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("group %d", id)
	}
	return nil
}

// AddMember adds a user to the group's member set. Adding an existing
// member is a no-op.
func (s *Store) AddMember(ctx context.Context, groupID, userID int64, actor string) error {
	return s.groupRelationAdd(ctx, "group_members", "user_id", groupID, userID, actor, "add_member", s.userExists)
}

// RemoveMember removes a user from the member set.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID int64, actor string) error {
	return s.groupRelationRemove(ctx, "group_members", "user_id", groupID, userID, actor, "remove_member")
}

// AddAdmin adds a user to the group's admin set. Admins get
// member-equivalent visibility without being duplicated into the member
// set. Adding an existing admin is a no-op.
func (s *Store) AddAdmin(ctx context.Context, groupID, userID int64, actor string) error {
	return s.groupRelationAdd(ctx, "group_admins", "user_id", groupID, userID, actor, "add_admin", s.userExists)
}

// RemoveAdmin removes a user from the admin set.
func (s *Store) RemoveAdmin(ctx context.Context, groupID, userID int64, actor string) error {
	return s.groupRelationRemove(ctx, "group_admins", "user_id", groupID, userID, actor, "remove_admin")
}

// AddSignal shares a signal with the group. Adding a shared signal is a
// no-op.
func (s *Store) AddSignal(ctx context.Context, groupID, signalID int64, actor string) error {
	return s.groupRelationAdd(ctx, "group_signals", "signal_id", groupID, signalID, actor, "add_signal", s.signalExists)
}

// RemoveSignal unshares a signal; its collaborator entries in this group
// cascade away with the share.
func (s *Store) RemoveSignal(ctx context.Context, groupID, signalID int64, actor string) error {
	return s.groupRelationRemove(ctx, "group_signals", "signal_id", groupID, signalID, actor, "remove_signal")
}

// SetCollaborators replaces the set of users collaborating on one signal
// through this group. The signal must already be shared with the group
// and every user must exist.
func (s *Store) SetCollaborators(ctx context.Context, groupID, signalID int64, userIDs []int64, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin set collaborators", err)
	}
	defer tx.Rollback()

	if err := existsInTx(ctx, tx, `SELECT 1 FROM user_groups WHERE id = ?`, groupID, "group %d", groupID); err != nil {
		return err
	}
	var shared int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_signals WHERE group_id = ? AND signal_id = ?`,
		groupID, signalID,
	).Scan(&shared)
	if err != nil {
		return wrap("check signal share", err)
	}
	if shared == 0 {
		return apperr.Validationf("signal %d is not shared with group %d", signalID, groupID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_collaborators WHERE group_id = ? AND signal_id = ?`,
		groupID, signalID,
	); err != nil {
		return wrap("clear collaborators", err)
	}
	for _, userID := range userIDs {
		if err := existsInTx(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, userID, "user %d", userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO group_collaborators (group_id, signal_id, user_id) VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING`,
			groupID, signalID, userID,
		); err != nil {
			return wrap("insert collaborator", err)
		}
	}

	detail := fmt.Sprintf("signal=%d users=%v", signalID, userIDs)
	if err := audit(ctx, tx, groupID, actor, "set_collaborators", detail); err != nil {
		return err
	}
	return wrap("commit set collaborators", tx.Commit())
}

// AuditTrail returns the group's audit entries, newest first.
func (s *Store) AuditTrail(ctx context.Context, groupID int64) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, actor, action, detail, created_at
		FROM group_audit WHERE group_id = ?
		ORDER BY created_at DESC, id`,
		groupID)
	if err != nil {
		return nil, wrap("audit trail", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Actor, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, wrap("scan audit entry", err)
		}
		entries = append(entries, e)
	}
	return entries, wrap("iterate audit trail", rows.Err())
}

func (s *Store) groupRelationAdd(ctx context.Context, table, col string, groupID, id int64, actor, action string, check func(context.Context, *sql.Tx, int64) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin "+action, err)
	}
	defer tx.Rollback()

	if err := existsInTx(ctx, tx, `SELECT 1 FROM user_groups WHERE id = ?`, groupID, "group %d", groupID); err != nil {
		return err
	}
	if err := check(ctx, tx, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO `+table+` (group_id, `+col+`) VALUES (?, ?)
		ON CONFLICT DO NOTHING`,
		groupID, id,
	); err != nil {
		return wrap(action, err)
	}
	if err := audit(ctx, tx, groupID, actor, action, fmt.Sprintf("%s=%d", col, id)); err != nil {
		return err
	}
	return wrap("commit "+action, tx.Commit())
}

func (s *Store) groupRelationRemove(ctx context.Context, table, col string, groupID, id int64, actor, action string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin "+action, err)
	}
	defer tx.Rollback()

	if err := existsInTx(ctx, tx, `SELECT 1 FROM user_groups WHERE id = ?`, groupID, "group %d", groupID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE group_id = ? AND `+col+` = ?`,
		groupID, id,
	); err != nil {
		return wrap(action, err)
	}
	if err := audit(ctx, tx, groupID, actor, action, fmt.Sprintf("%s=%d", col, id)); err != nil {
		return err
	}
	return wrap("commit "+action, tx.Commit())
}

func (s *Store) userExists(ctx context.Context, tx *sql.Tx, id int64) error {
	return existsInTx(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, id, "user %d", id)
}

func (s *Store) signalExists(ctx context.Context, tx *sql.Tx, id int64) error {
	return existsInTx(ctx, tx, `SELECT 1 FROM signals WHERE id = ?`, id, "signal %d", id)
}

func existsInTx(ctx context.Context, tx *sql.Tx, query string, arg any, format string, args ...any) error {
	var one int
	err := tx.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return apperr.NotFoundf(format, args...)
	}
	return wrap("existence check", err)
}

func audit(ctx context.Context, tx *sql.Tx, groupID int64, actor, action, detail string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO group_audit (id, group_id, actor, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), groupID, actor, action, detail, time.Now().Unix(),
	)
	return wrap("audit entry", err)
}
