package repository

// schema is applied on every open; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    handle TEXT NOT NULL UNIQUE,
    password_hash BLOB NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS live_scores (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    contest TEXT NOT NULL,
    callsign TEXT NOT NULL,
    ops TEXT NOT NULL DEFAULT '',
    qsos INTEGER NOT NULL DEFAULT 0 CHECK (qsos >= 0),
    points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
    mults INTEGER NOT NULL DEFAULT 0 CHECK (mults >= 0),
    score INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
    last_updated TEXT NOT NULL,
    UNIQUE (contest, callsign)
);

CREATE INDEX IF NOT EXISTS idx_live_scores_user_id ON live_scores(user_id);
`
