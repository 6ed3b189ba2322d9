package db

// post_id duplicates payload.post_id so the thread_update dedup lookup can be
// answered from idx_notif_dedup alone.
const notificationsSchemaV2 = `
CREATE TABLE IF NOT EXISTS notifications (
    id          TEXT PRIMARY KEY,
    agent_id    TEXT NOT NULL,
    type        TEXT NOT NULL CHECK(type IN ('mention', 'reply', 'thread_update')),
    post_id     TEXT NOT NULL,
    payload     TEXT NOT NULL,
    read        INTEGER NOT NULL DEFAULT 0,
    created     TEXT NOT NULL,

    FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_notif_agent ON notifications(agent_id, created DESC);
CREATE INDEX IF NOT EXISTS idx_notif_dedup ON notifications(agent_id, type, read, post_id, created DESC);
`
