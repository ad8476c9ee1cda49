package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Membership, administration, shared signals and per-signal collaborators
// are plain relation tables with composite primary keys: duplicate adds
// are no-ops and referenced ids are enforced by foreign keys. The
// collaborator rows reference group_signals, so removing a signal from a
// group cascades away its collaborator entries.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL DEFAULT 'Visitor',
    name TEXT NOT NULL DEFAULT '',
    unit TEXT NOT NULL DEFAULT '',
    acclab INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
    name TEXT PRIMARY KEY,
    region TEXT NOT NULL DEFAULT '',
    bureau TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS units (
    name TEXT PRIMARY KEY,
    region TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS signals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    status TEXT NOT NULL DEFAULT 'New',
    is_draft INTEGER NOT NULL DEFAULT 0,
    private INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL,
    created_for TEXT NOT NULL DEFAULT '',
    created_unit TEXT NOT NULL DEFAULT '',
    headline TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    relevance TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    score INTEGER,
    steep_primary TEXT NOT NULL DEFAULT '',
    signature_primary TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    modified_at INTEGER NOT NULL,
    modified_by TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS trends (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    status TEXT NOT NULL DEFAULT 'New',
    is_draft INTEGER NOT NULL DEFAULT 0,
    private INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL,
    created_for TEXT NOT NULL DEFAULT '',
    created_unit TEXT NOT NULL DEFAULT '',
    headline TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    relevance TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    score INTEGER,
    steep_primary TEXT NOT NULL DEFAULT '',
    signature_primary TEXT NOT NULL DEFAULT '',
    assigned_to TEXT NOT NULL DEFAULT '',
    time_horizon TEXT NOT NULL DEFAULT '',
    impact_rating TEXT NOT NULL DEFAULT '',
    impact_description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    modified_at INTEGER NOT NULL,
    modified_by TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS signal_tags (
    signal_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (signal_id, kind, value),
    FOREIGN KEY (signal_id) REFERENCES signals(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS trend_tags (
    trend_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (trend_id, kind, value),
    FOREIGN KEY (trend_id) REFERENCES trends(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS connections (
    signal_id INTEGER NOT NULL,
    trend_id INTEGER NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (signal_id, trend_id),
    FOREIGN KEY (signal_id) REFERENCES signals(id) ON DELETE CASCADE,
    FOREIGN KEY (trend_id) REFERENCES trends(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS user_groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    PRIMARY KEY (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_admins (
    group_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    PRIMARY KEY (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_signals (
    group_id INTEGER NOT NULL,
    signal_id INTEGER NOT NULL,
    PRIMARY KEY (group_id, signal_id),
    FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE,
    FOREIGN KEY (signal_id) REFERENCES signals(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_collaborators (
    group_id INTEGER NOT NULL,
    signal_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    PRIMARY KEY (group_id, signal_id, user_id),
    FOREIGN KEY (group_id, signal_id) REFERENCES group_signals(group_id, signal_id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS favourites (
    user_id INTEGER NOT NULL,
    signal_id INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (user_id, signal_id),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (signal_id) REFERENCES signals(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_audit (
    id TEXT PRIMARY KEY,
    group_id INTEGER NOT NULL,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_signals_status ON signals(status, is_draft, private);
CREATE INDEX IF NOT EXISTS idx_signals_created_by ON signals(created_by);
CREATE INDEX IF NOT EXISTS idx_signals_modified_at ON signals(modified_at);
CREATE INDEX IF NOT EXISTS idx_trends_status ON trends(status, is_draft, private);
CREATE INDEX IF NOT EXISTS idx_trends_created_by ON trends(created_by);
CREATE INDEX IF NOT EXISTS idx_trends_modified_at ON trends(modified_at);
CREATE INDEX IF NOT EXISTS idx_signal_tags_value ON signal_tags(kind, value);
CREATE INDEX IF NOT EXISTS idx_trend_tags_value ON trend_tags(kind, value);
CREATE INDEX IF NOT EXISTS idx_connections_trend ON connections(trend_id);
CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
CREATE INDEX IF NOT EXISTS idx_group_admins_user ON group_admins(user_id);
CREATE INDEX IF NOT EXISTS idx_group_signals_signal ON group_signals(signal_id);
CREATE INDEX IF NOT EXISTS idx_group_collaborators_user ON group_collaborators(user_id);
CREATE INDEX IF NOT EXISTS idx_group_audit_group ON group_audit(group_id, created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS signals_fts USING fts5(
    headline, description,
    content='signals',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS signals_ai AFTER INSERT ON signals BEGIN
    INSERT INTO signals_fts(rowid, headline, description)
    VALUES (new.id, new.headline, new.description);
END;

CREATE TRIGGER IF NOT EXISTS signals_ad AFTER DELETE ON signals BEGIN
    INSERT INTO signals_fts(signals_fts, rowid, headline, description)
    VALUES ('delete', old.id, old.headline, old.description);
END;

CREATE TRIGGER IF NOT EXISTS signals_au AFTER UPDATE ON signals BEGIN
    INSERT INTO signals_fts(signals_fts, rowid, headline, description)
    VALUES ('delete', old.id, old.headline, old.description);
    INSERT INTO signals_fts(rowid, headline, description)
    VALUES (new.id, new.headline, new.description);
END;

CREATE VIRTUAL TABLE IF NOT EXISTS trends_fts USING fts5(
    headline, description,
    content='trends',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS trends_ai AFTER INSERT ON trends BEGIN
    INSERT INTO trends_fts(rowid, headline, description)
    VALUES (new.id, new.headline, new.description);
END;

CREATE TRIGGER IF NOT EXISTS trends_ad AFTER DELETE ON trends BEGIN
    INSERT INTO trends_fts(trends_fts, rowid, headline, description)
    VALUES ('delete', old.id, old.headline, old.description);
END;

CREATE TRIGGER IF NOT EXISTS trends_au AFTER UPDATE ON trends BEGIN
    INSERT INTO trends_fts(trends_fts, rowid, headline, description)
    VALUES ('delete', old.id, old.headline, old.description);
    INSERT INTO trends_fts(rowid, headline, description)
    VALUES (new.id, new.headline, new.description);
END;
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
