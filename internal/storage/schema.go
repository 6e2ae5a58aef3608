package storage

const schema = `
-- The 'collections' table holds one serialized card collection per key.
-- Every write replaces the whole value.
CREATE TABLE IF NOT EXISTS collections (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at DATETIME NOT NULL
);
`
