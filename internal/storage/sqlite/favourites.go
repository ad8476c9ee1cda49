package sqlite

import (
	"context"
	"time"
)

// ToggleFavourite bookmarks the signal for the user, or removes the
// bookmark when one already exists. Returns true when the favourite was
// created.
func (s *Store) ToggleFavourite(ctx context.Context, userID, signalID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrap("begin toggle favourite", err)
	}
	defer tx.Rollback()

	if err := existsInTx(ctx, tx, `SELECT 1 FROM signals WHERE id = ?`, signalID, "signal %d", signalID); err != nil {
		return false, err
	}
	if err := existsInTx(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, userID, "user %d", userID); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM favourites WHERE user_id = ? AND signal_id = ?`,
		userID, signalID,
	)
	if err != nil {
		return false, wrap("remove favourite", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, wrap("commit toggle favourite", tx.Commit())
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO favourites (user_id, signal_id, created_at) VALUES (?, ?, ?)`,
		userID, signalID, time.Now().Unix(),
	); err != nil {
		return false, wrap("create favourite", err)
	}
	return true, wrap("commit toggle favourite", tx.Commit())
}

// FavouriteSignalIDs returns the user's bookmarked signal ids, most
// recently favourited first.
func (s *Store) FavouriteSignalIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_id FROM favourites
		WHERE user_id = ?
		ORDER BY created_at DESC, signal_id DESC`,
		userID)
	if err != nil {
		return nil, wrap("list favourites", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan favourite", err)
		}
		ids = append(ids, id)
	}
	return ids, wrap("iterate favourites", rows.Err())
}
