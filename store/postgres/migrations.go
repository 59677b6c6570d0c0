package postgres

// migrationSQL creates the single durable table. The uid comes from the
// identity provider and is the natural key; there is no delete path.
const migrationSQL = `
CREATE TABLE IF NOT EXISTS entitlements (
    uid        TEXT PRIMARY KEY,
    paid       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_entitlements_paid ON entitlements (paid);
`
