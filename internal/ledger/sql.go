package ledger

const SQLCreate = `
CREATE TABLE IF NOT EXISTS entry
(
    entry_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at  TIMESTAMP NOT NULL DEFAULT (datetime('now')),
    nominal     REAL      NOT NULL,
    upper_limit REAL      NOT NULL,
    lower_limit REAL      NOT NULL,
    tolerance   REAL      NOT NULL,
    feature     TEXT      NOT NULL CHECK ( feature IN ('Pin', 'Hole') ),
    datum       TEXT      NOT NULL DEFAULT '-',
    vc75        REAL      NOT NULL,
    vc80        REAL      NOT NULL,
    vc90        REAL      NOT NULL,
    vc100       REAL      NOT NULL
);`
