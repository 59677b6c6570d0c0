package sqlite

// migrationSQL creates the single durable table. Timestamps are stored as
// RFC 3339 text, matching the convention used elsewhere in the schema.
const migrationSQL = `
CREATE TABLE IF NOT EXISTS entitlements (
    uid        TEXT PRIMARY KEY,
    paid       INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entitlements_paid ON entitlements (paid);
`
