package storage

import (
	"database/sql"
)

// GetReplay returns the cached replay payload for a commit under one
// taxonomy fingerprint. The second return is false on a cache miss.
func (db *DB) GetReplay(commitHash, taxonomyFP string) ([]byte, bool, error) {
	var payload string
	err := db.conn.QueryRow(`
		SELECT payload FROM timeline_replays
		WHERE commit_hash = ? AND taxonomy_fp = ?
	`, commitHash, taxonomyFP).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(payload), true, nil
}

// PutReplay stores (or replaces) one commit's replay payload.
func (db *DB) PutReplay(commitHash, taxonomyFP string, payload []byte) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO timeline_replays (commit_hash, taxonomy_fp, payload)
		VALUES (?, ?, ?)
	`, commitHash, taxonomyFP, string(payload))
	return err
}

// PruneReplays drops cached replays from other taxonomy fingerprints.
// A taxonomy change invalidates every historical replay at once.
func (db *DB) PruneReplays(keepFP string) (int64, error) {
	res, err := db.conn.Exec(`
		DELETE FROM timeline_replays WHERE taxonomy_fp != ?
	`, keepFP)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReplayCount returns the number of cached replays for one fingerprint.
func (db *DB) ReplayCount(taxonomyFP string) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM timeline_replays WHERE taxonomy_fp = ?
	`, taxonomyFP).Scan(&n)
	return n, err
}
