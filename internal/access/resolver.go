// Package access centralizes every visibility and edit decision.
//
// The Resolver answers "which signals/trends can this user see" and "may
// this user edit this item". All call sites go through it; role bypass
// and ownership checks are never re-implemented at endpoints.
//
// Visibility is computed in a single SQL statement per call. Membership,
// administration and collaborator state are deliberately never read in
// separate queries: sequential reads against independently-committed
// snapshots have been observed to under-count groups.
package access

import (
	"context"
	"database/sql"
	"errors"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/storage"
)

// Resolver computes visibility sets and edit permissions against the
// backing store. It is safe for concurrent use.
type Resolver struct {
	q storage.Querier
}

// NewResolver creates a Resolver reading through the given querier.
func NewResolver(q storage.Querier) *Resolver {
	return &Resolver{q: q}
}

// memberOrAdminGroups selects the groups a user belongs to through
// membership or administration, in one subquery.
const memberOrAdminGroups = `
	SELECT group_id FROM group_members WHERE user_id = ?
	UNION
	SELECT group_id FROM group_admins WHERE user_id = ?`

// VisibilityClause returns a WHERE fragment over table alias "e" that
// holds exactly when the user may see the row, plus its arguments.
//
// A signal is visible when the user created it, when it is approved and
// neither draft nor private, when the user is a member or admin of a
// group the signal is shared with, or when the user collaborates on it
// through any group. Admins see everything. Groups hold signals only,
// so for trends the group clauses are vacuous.
func (r *Resolver) VisibilityClause(user models.Identity, kind models.EntityKind) (string, []any) {
	if user.IsAdmin() {
		return "1 = 1", nil
	}

	clause := `(e.created_by = ?
		OR (e.status = 'Approved' AND e.is_draft = 0 AND e.private = 0)`
	args := []any{user.Email}

	if kind == models.KindSignal {
		clause += `
		OR EXISTS (
			SELECT 1 FROM group_signals gs
			WHERE gs.signal_id = e.id AND gs.group_id IN (` + memberOrAdminGroups + `)
		)
		OR EXISTS (
			SELECT 1 FROM group_collaborators gc
			WHERE gc.signal_id = e.id AND gc.user_id = ?
		)`
		args = append(args, user.UserID, user.UserID, user.UserID)
	}
	return clause + ")", args
}

// EditClause returns a SELECT expression over table alias "e" that
// evaluates to 1 when the user may edit the row. It is attached as a
// column to every search and read query so the edit flag is always
// populated on returned items.
func (r *Resolver) EditClause(user models.Identity, kind models.EntityKind) (string, []any) {
	if user.IsAdmin() {
		return "1", nil
	}

	clause := `(e.created_by = ?`
	args := []any{user.Email}

	if kind == models.KindSignal {
		clause += `
		OR EXISTS (
			SELECT 1 FROM group_signals gs
			JOIN group_admins ga ON ga.group_id = gs.group_id
			WHERE gs.signal_id = e.id AND ga.user_id = ?
		)
		OR EXISTS (
			SELECT 1 FROM group_collaborators gc
			WHERE gc.signal_id = e.id AND gc.user_id = ?
		)`
		args = append(args, user.UserID, user.UserID)
	}
	return clause + ")", args
}

// VisibleIDs computes the set of entity IDs of the given kind visible to
// the user. The whole set is derived from one statement, so the answer
// reflects a single consistent snapshot and is stable across repeated
// calls absent intervening mutations.
func (r *Resolver) VisibleIDs(ctx context.Context, user models.Identity, kind models.EntityKind) (map[int64]struct{}, error) {
	clause, args := r.VisibilityClause(user, kind)
	rows, err := r.q.QueryContext(ctx,
		`SELECT e.id FROM `+tableFor(kind)+` e WHERE `+clause, args...)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.FromStore(err)
		}
		ids[id] = struct{}{}
	}
	return ids, apperr.FromStore(rows.Err())
}

// CanView reports whether the user may see the given entity, evaluating
// the full visibility predicate against the one row in one statement.
// The entity must exist; unknown ids fail with NotFound.
func (r *Resolver) CanView(ctx context.Context, user models.Identity, kind models.EntityKind, id int64) (bool, error) {
	visClause, visArgs := r.VisibilityClause(user, kind)
	args := append(visArgs, id)
	var visible bool
	err := r.q.QueryRowContext(ctx,
		`SELECT `+visClause+` FROM `+tableFor(kind)+` e WHERE e.id = ?`, args...,
	).Scan(&visible)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.NotFoundf("%s %d", kind, id)
	}
	if err != nil {
		return false, apperr.FromStore(err)
	}
	return visible, nil
}

// CanEdit reports whether the user may modify the given entity. The
// entity must exist; unknown ids fail with NotFound.
func (r *Resolver) CanEdit(ctx context.Context, user models.Identity, kind models.EntityKind, id int64) (bool, error) {
	editClause, editArgs := r.EditClause(user, kind)
	args := append(editArgs, id)
	var canEdit bool
	err := r.q.QueryRowContext(ctx,
		`SELECT `+editClause+` FROM `+tableFor(kind)+` e WHERE e.id = ?`, args...,
	).Scan(&canEdit)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.NotFoundf("%s %d", kind, id)
	}
	if err != nil {
		return false, apperr.FromStore(err)
	}
	return canEdit, nil
}

// MemberGroupIDs returns the IDs of every group the user reaches through
// membership or administration, via one combined query.
func (r *Resolver) MemberGroupIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT DISTINCT id FROM user_groups WHERE id IN (`+memberOrAdminGroups+`) ORDER BY id`,
		userID, userID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.FromStore(err)
		}
		ids = append(ids, id)
	}
	return ids, apperr.FromStore(rows.Err())
}

func tableFor(kind models.EntityKind) string {
	if kind == models.KindTrend {
		return "trends"
	}
	return "signals"
}
