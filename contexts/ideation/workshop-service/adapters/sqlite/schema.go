package sqliteadapter

// schema mirrors the Postgres migration. Timestamps are stored as fixed-width
// UTC text so lexical order equals chronological order.
const schema = `
CREATE TABLE IF NOT EXISTS workshop_sessions (
	session_id   TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	moderator_id TEXT NOT NULL,
	state        TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workshop_topics (
	topic_id   TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES workshop_sessions(session_id) ON DELETE CASCADE,
	domain     TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	sort_order INTEGER NOT NULL,
	locked     INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	locked_at  TEXT
);
CREATE INDEX IF NOT EXISTS workshop_topics_session_idx ON workshop_topics(session_id, sort_order);

CREATE TABLE IF NOT EXISTS workshop_participants (
	session_id     TEXT NOT NULL REFERENCES workshop_sessions(session_id) ON DELETE CASCADE,
	participant_id TEXT NOT NULL,
	display_name   TEXT NOT NULL,
	contact        TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	joined_at      TEXT NOT NULL,
	submitted_at   TEXT,
	PRIMARY KEY (session_id, participant_id)
);

CREATE TABLE IF NOT EXISTS workshop_contributions (
	contribution_id TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL REFERENCES workshop_sessions(session_id) ON DELETE CASCADE,
	topic_id        TEXT NOT NULL REFERENCES workshop_topics(topic_id) ON DELETE CASCADE,
	participant_id  TEXT NOT NULL,
	current_status  TEXT NOT NULL DEFAULT '',
	minor_impact    TEXT NOT NULL DEFAULT '',
	disruption      TEXT NOT NULL DEFAULT '',
	reimagination   TEXT NOT NULL DEFAULT '',
	submitted_at    TEXT NOT NULL,
	CONSTRAINT workshop_contributions_unique_author UNIQUE (session_id, topic_id, participant_id)
);

CREATE TABLE IF NOT EXISTS workshop_votes (
	vote_id         TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL REFERENCES workshop_sessions(session_id) ON DELETE CASCADE,
	contribution_id TEXT NOT NULL REFERENCES workshop_contributions(contribution_id) ON DELETE CASCADE,
	voter_id        TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	CONSTRAINT workshop_votes_unique_voter UNIQUE (contribution_id, voter_id)
);

CREATE TABLE IF NOT EXISTS workshop_outbox (
	outbox_id     TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	partition_key TEXT NOT NULL DEFAULT '',
	payload       BLOB NOT NULL,
	status        TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	published_at  TEXT
);
CREATE INDEX IF NOT EXISTS workshop_outbox_pending_idx ON workshop_outbox(status, created_at);
`
