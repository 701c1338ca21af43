package catalogue

// Schema is applied on every Store open, matching the teacher's
// apply-schema-then-best-effort-migrate pattern in
// internal/timeline/service.go. CREATE TABLE/INDEX statements are all
// IF NOT EXISTS so re-opening an existing store is a no-op.
const Schema = `
CREATE TABLE IF NOT EXISTS groups (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id    TEXT UNIQUE NOT NULL,
	guild_id       TEXT NOT NULL,
	name           TEXT NOT NULL,
	position       INTEGER NOT NULL DEFAULT 0,
	village_index  INTEGER NOT NULL,
	center_x       INTEGER NOT NULL,
	center_z       INTEGER NOT NULL,
	is_archived    BOOLEAN NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(center_x, center_z)
);

CREATE INDEX IF NOT EXISTS idx_groups_archived ON groups(is_archived);

CREATE TABLE IF NOT EXISTS channels (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id    TEXT UNIQUE NOT NULL,
	group_id       INTEGER NOT NULL REFERENCES groups(id),
	name           TEXT NOT NULL,
	topic          TEXT,
	member_count   INTEGER NOT NULL DEFAULT 0,
	position       INTEGER NOT NULL DEFAULT 0,
	building_index INTEGER NOT NULL,
	building_x     INTEGER,
	building_z     INTEGER,
	is_archived    BOOLEAN NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_channels_group ON channels(group_id);
CREATE INDEX IF NOT EXISTS idx_channels_archived ON channels(is_archived);

CREATE TABLE IF NOT EXISTS generation_jobs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	job_type     TEXT NOT NULL,
	payload      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'Pending',
	attempts     INTEGER NOT NULL DEFAULT 0,
	last_error   TEXT,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON generation_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_type ON generation_jobs(job_type);

CREATE TABLE IF NOT EXISTS link_codes (
	code             TEXT PRIMARY KEY,
	external_user_id TEXT NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at       DATETIME NOT NULL
);
`
