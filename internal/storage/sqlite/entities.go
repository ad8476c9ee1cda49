package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/storage"
)

// entityColumns is the shared column list of the signals and trends
// tables, in scan order.
const entityColumns = `id, status, is_draft, private, created_by, created_for, created_unit,
	headline, description, url, relevance, location, score, steep_primary, signature_primary,
	created_at, modified_at, modified_by`

// CreateSignal inserts a signal with its tags and trend connections in
// one transaction and populates its ID. Status defaults to Draft for
// drafts and New otherwise.
func (s *Store) CreateSignal(ctx context.Context, signal *models.Signal) error {
	stampEntity(&signal.Entity)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin create signal", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO signals (status, is_draft, private, created_by, created_for, created_unit,
			headline, description, url, relevance, location, score, steep_primary, signature_primary,
			created_at, modified_at, modified_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		entityArgs(&signal.Entity)...,
	).Scan(&signal.ID)
	if err != nil {
		return wrap("insert signal", err)
	}

	if err := replaceTags(ctx, tx, "signal_tags", "signal_id", signal.ID, &signal.Entity); err != nil {
		return err
	}
	if err := replaceConnections(ctx, tx, "signal_id", "trend_id", signal.ID, signal.ConnectedTrends, signal.CreatedBy); err != nil {
		return err
	}

	return wrap("commit create signal", tx.Commit())
}

// GetSignal retrieves a signal by ID, including tags and connections.
func (s *Store) GetSignal(ctx context.Context, id int64) (*models.Signal, error) {
	signal := &models.Signal{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM signals WHERE id = ?`, id,
	).Scan(entityDest(&signal.Entity)...)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("signal %d", id)
	}
	if err != nil {
		return nil, wrap("get signal", err)
	}

	if err := loadTags(ctx, s.db, "signal_tags", "signal_id", id, &signal.Entity); err != nil {
		return nil, err
	}
	signal.ConnectedTrends, err = loadConnections(ctx, s.db, "signal_id", "trend_id", id)
	if err != nil {
		return nil, err
	}
	return signal, nil
}

// UpdateSignal overwrites a signal row, its tags and its connections.
// Last writer wins; modified_at/modified_by are refreshed from the given
// struct's ModifiedBy.
func (s *Store) UpdateSignal(ctx context.Context, signal *models.Signal) error {
	signal.ModifiedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin update signal", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE signals SET status = ?, is_draft = ?, private = ?, created_for = ?, created_unit = ?,
			headline = ?, description = ?, url = ?, relevance = ?, location = ?, score = ?,
			steep_primary = ?, signature_primary = ?, modified_at = ?, modified_by = ?
		WHERE id = ?`,
		string(signal.Status), signal.IsDraft, signal.Private, signal.CreatedFor, signal.CreatedUnit,
		signal.Headline, signal.Description, signal.URL, signal.Relevance, signal.Location, signal.Score,
		signal.SteepPrimary, signal.SignaturePrimary, signal.ModifiedAt, signal.ModifiedBy,
		signal.ID,
	)
	if err != nil {
		return wrap("update signal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("signal %d", signal.ID)
	}

	if err := replaceTags(ctx, tx, "signal_tags", "signal_id", signal.ID, &signal.Entity); err != nil {
		return err
	}
	if err := replaceConnections(ctx, tx, "signal_id", "trend_id", signal.ID, signal.ConnectedTrends, signal.ModifiedBy); err != nil {
		return err
	}

	return wrap("commit update signal", tx.Commit())
}

// DeleteSignal removes a signal; tags, connections, group shares and
// collaborator rows cascade away with it.
func (s *Store) DeleteSignal(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM signals WHERE id = ?`, id)
	if err != nil {
		return wrap("delete signal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("signal %d", id)
	}
	return nil
}

// CreateTrend inserts a trend with its tags and signal connections in
// one transaction and populates its ID.
func (s *Store) CreateTrend(ctx context.Context, trend *models.Trend) error {
	stampEntity(&trend.Entity)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin create trend", err)
	}
	defer tx.Rollback()

	args := append(entityArgs(&trend.Entity),
		trend.AssignedTo, string(trend.TimeHorizon), string(trend.ImpactRating), trend.ImpactDescription)
	err = tx.QueryRowContext(ctx, `
		INSERT INTO trends (status, is_draft, private, created_by, created_for, created_unit,
			headline, description, url, relevance, location, score, steep_primary, signature_primary,
			created_at, modified_at, modified_by,
			assigned_to, time_horizon, impact_rating, impact_description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		args...,
	).Scan(&trend.ID)
	if err != nil {
		return wrap("insert trend", err)
	}

	if err := replaceTags(ctx, tx, "trend_tags", "trend_id", trend.ID, &trend.Entity); err != nil {
		return err
	}
	if err := replaceConnections(ctx, tx, "trend_id", "signal_id", trend.ID, trend.ConnectedSignals, trend.CreatedBy); err != nil {
		return err
	}

	return wrap("commit create trend", tx.Commit())
}

// GetTrend retrieves a trend by ID, including tags and connections.
func (s *Store) GetTrend(ctx context.Context, id int64) (*models.Trend, error) {
	trend := &models.Trend{}
	dest := append(entityDest(&trend.Entity),
		&trend.AssignedTo, &trend.TimeHorizon, &trend.ImpactRating, &trend.ImpactDescription)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+entityColumns+`, assigned_to, time_horizon, impact_rating, impact_description
		 FROM trends WHERE id = ?`, id,
	).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("trend %d", id)
	}
	if err != nil {
		return nil, wrap("get trend", err)
	}

	if err := loadTags(ctx, s.db, "trend_tags", "trend_id", id, &trend.Entity); err != nil {
		return nil, err
	}
	trend.ConnectedSignals, err = loadConnections(ctx, s.db, "trend_id", "signal_id", id)
	if err != nil {
		return nil, err
	}
	return trend, nil
}

// UpdateTrend overwrites a trend row, its tags and its connections.
func (s *Store) UpdateTrend(ctx context.Context, trend *models.Trend) error {
	trend.ModifiedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin update trend", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE trends SET status = ?, is_draft = ?, private = ?, created_for = ?, created_unit = ?,
			headline = ?, description = ?, url = ?, relevance = ?, location = ?, score = ?,
			steep_primary = ?, signature_primary = ?, modified_at = ?, modified_by = ?,
			assigned_to = ?, time_horizon = ?, impact_rating = ?, impact_description = ?
		WHERE id = ?`,
		string(trend.Status), trend.IsDraft, trend.Private, trend.CreatedFor, trend.CreatedUnit,
		trend.Headline, trend.Description, trend.URL, trend.Relevance, trend.Location, trend.Score,
		trend.SteepPrimary, trend.SignaturePrimary, trend.ModifiedAt, trend.ModifiedBy,
		trend.AssignedTo, string(trend.TimeHorizon), string(trend.ImpactRating), trend.ImpactDescription,
		trend.ID,
	)
	if err != nil {
		return wrap("update trend", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("trend %d", trend.ID)
	}

	if err := replaceTags(ctx, tx, "trend_tags", "trend_id", trend.ID, &trend.Entity); err != nil {
		return err
	}
	if err := replaceConnections(ctx, tx, "trend_id", "signal_id", trend.ID, trend.ConnectedSignals, trend.ModifiedBy); err != nil {
		return err
	}

	return wrap("commit update trend", tx.Commit())
}

// DeleteTrend removes a trend; tags and connections cascade.
func (s *Store) DeleteTrend(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trends WHERE id = ?`, id)
	if err != nil {
		return wrap("delete trend", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("trend %d", id)
	}
	return nil
}

// stampEntity fills audit timestamps and the status default.
func stampEntity(e *models.Entity) {
	now := time.Now().Unix()
	if e.CreatedAt == 0 {
		e.CreatedAt = now
	}
	e.ModifiedAt = now
	if e.ModifiedBy == "" {
		e.ModifiedBy = e.CreatedBy
	}
	if e.Status == "" {
		if e.IsDraft {
			e.Status = models.StatusDraft
		} else {
			e.Status = models.StatusNew
		}
	}
}

// entityArgs returns the insert arguments matching entityColumns minus id.
func entityArgs(e *models.Entity) []any {
	return []any{
		string(e.Status), e.IsDraft, e.Private, e.CreatedBy, e.CreatedFor, e.CreatedUnit,
		e.Headline, e.Description, e.URL, e.Relevance, e.Location, e.Score,
		e.SteepPrimary, e.SignaturePrimary,
		e.CreatedAt, e.ModifiedAt, e.ModifiedBy,
	}
}

// entityDest returns the scan destinations matching entityColumns.
func entityDest(e *models.Entity) []any {
	return []any{
		&e.ID, &e.Status, &e.IsDraft, &e.Private, &e.CreatedBy, &e.CreatedFor, &e.CreatedUnit,
		&e.Headline, &e.Description, &e.URL, &e.Relevance, &e.Location, &e.Score,
		&e.SteepPrimary, &e.SignaturePrimary,
		&e.CreatedAt, &e.ModifiedAt, &e.ModifiedBy,
	}
}

// replaceTags rewrites the multi-valued facet rows for one entity.
func replaceTags(ctx context.Context, q storage.Querier, table, idCol string, id int64, e *models.Entity) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+idCol+` = ?`, id); err != nil {
		return wrap("clear tags", err)
	}
	for kind, values := range map[string][]string{
		storage.TagSteepSecondary:     e.SteepSecondary,
		storage.TagSignatureSecondary: e.SignatureSecondary,
		storage.TagSDG:                e.SDGs,
		storage.TagKeyword:            e.Keywords,
	} {
		for _, value := range values {
			_, err := q.ExecContext(ctx, `
				INSERT INTO `+table+` (`+idCol+`, kind, value) VALUES (?, ?, ?)
				ON CONFLICT DO NOTHING`,
				id, kind, value,
			)
			if err != nil {
				return wrap("insert tag", err)
			}
		}
	}
	return nil
}

// loadTags populates the multi-valued facet slices of one entity.
func loadTags(ctx context.Context, q storage.Querier, table, idCol string, id int64, e *models.Entity) error {
	rows, err := q.QueryContext(ctx,
		`SELECT kind, value FROM `+table+` WHERE `+idCol+` = ? ORDER BY kind, value`, id)
	if err != nil {
		return wrap("load tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return wrap("scan tag", err)
		}
		switch kind {
		case storage.TagSteepSecondary:
			e.SteepSecondary = append(e.SteepSecondary, value)
		case storage.TagSignatureSecondary:
			e.SignatureSecondary = append(e.SignatureSecondary, value)
		case storage.TagSDG:
			e.SDGs = append(e.SDGs, value)
		case storage.TagKeyword:
			e.Keywords = append(e.Keywords, value)
		}
	}
	return wrap("iterate tags", rows.Err())
}

// replaceConnections rewrites the signal-trend links for one side.
func replaceConnections(ctx context.Context, q storage.Querier, ownCol, otherCol string, id int64, others []int64, actor string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM connections WHERE `+ownCol+` = ?`, id); err != nil {
		return wrap("clear connections", err)
	}
	for _, other := range others {
		_, err := q.ExecContext(ctx, `
			INSERT INTO connections (`+ownCol+`, `+otherCol+`, created_by) VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING`,
			id, other, actor,
		)
		if err != nil {
			return wrap("insert connection", err)
		}
	}
	return nil
}

// loadConnections returns the linked entity IDs for one side.
func loadConnections(ctx context.Context, q storage.Querier, ownCol, otherCol string, id int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+otherCol+` FROM connections WHERE `+ownCol+` = ? ORDER BY `+otherCol, id)
	if err != nil {
		return nil, wrap("load connections", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var other int64
		if err := rows.Scan(&other); err != nil {
			return nil, wrap("scan connection", err)
		}
		ids = append(ids, other)
	}
	return ids, wrap("iterate connections", rows.Err())
}
