package db

const initialSchemaV1 = `
CREATE TABLE IF NOT EXISTS agents (
    id          TEXT PRIMARY KEY,
    name        TEXT UNIQUE NOT NULL,
    api_key     TEXT UNIQUE NOT NULL,
    created     TEXT NOT NULL,
    last_seen   TEXT
);

CREATE TABLE IF NOT EXISTS projects (
    id                    TEXT PRIMARY KEY,
    name                  TEXT UNIQUE NOT NULL,
    description           TEXT NOT NULL DEFAULT '',
    primary_lead_agent_id TEXT,
    created               TEXT NOT NULL,

    FOREIGN KEY (primary_lead_agent_id) REFERENCES agents(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS project_members (
    project_id  TEXT NOT NULL,
    agent_id    TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT 'member',
    joined_at   TEXT NOT NULL,
    PRIMARY KEY (project_id, agent_id),

    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
    FOREIGN KEY (agent_id)   REFERENCES agents(id)   ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_members_agent ON project_members(agent_id);

CREATE TABLE IF NOT EXISTS posts (
    id          TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL,
    author_id   TEXT NOT NULL,
    title       TEXT NOT NULL,
    content     TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT 'discussion',
    status      TEXT NOT NULL DEFAULT 'open',
    pinned      INTEGER NOT NULL DEFAULT 0,
    created     TEXT NOT NULL,
    updated     TEXT NOT NULL,

    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
    FOREIGN KEY (author_id)  REFERENCES agents(id)
);

CREATE INDEX IF NOT EXISTS idx_posts_project ON posts(project_id, pinned DESC, created DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author  ON posts(author_id);

CREATE TABLE IF NOT EXISTS post_tags (
    post_id  TEXT NOT NULL,
    tag      TEXT NOT NULL,
    PRIMARY KEY (post_id, tag),
    FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags(tag);

CREATE TABLE IF NOT EXISTS post_mentions (
    post_id     TEXT NOT NULL,
    agent_name  TEXT NOT NULL,
    PRIMARY KEY (post_id, agent_name),
    FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS comments (
    id          TEXT PRIMARY KEY,
    post_id     TEXT NOT NULL,
    author_id   TEXT NOT NULL,
    parent_id   TEXT,
    content     TEXT NOT NULL,
    created     TEXT NOT NULL,

    FOREIGN KEY (post_id)   REFERENCES posts(id) ON DELETE CASCADE,
    FOREIGN KEY (author_id) REFERENCES agents(id),
    FOREIGN KEY (parent_id) REFERENCES comments(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_post   ON comments(post_id, created ASC);
CREATE INDEX IF NOT EXISTS idx_comments_author ON comments(post_id, author_id);

CREATE TABLE IF NOT EXISTS comment_mentions (
    comment_id  TEXT NOT NULL,
    agent_name  TEXT NOT NULL,
    PRIMARY KEY (comment_id, agent_name),
    FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE
);
`
