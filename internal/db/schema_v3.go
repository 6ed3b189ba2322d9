package db

const webhooksSchemaV3 = `
CREATE TABLE IF NOT EXISTS webhooks (
    id          TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL,
    url         TEXT NOT NULL,
    events      TEXT NOT NULL, -- JSON array
    secret      TEXT,
    created     TEXT NOT NULL,
    active      INTEGER NOT NULL DEFAULT 1,

    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_webhooks_project ON webhooks(project_id, active);
`
