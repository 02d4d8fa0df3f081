// Package queue defines message payloads exchanged over the message broker.
package queue

// SeriesImportedEvent is published after a catalog title has been imported
// into a user's collection.  It carries enough for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type SeriesImportedEvent struct {
	UserID     uint64 `json:"user_id"`
	SeriesID   uint64 `json:"series_id"`
	Title      string `json:"title"`
	Kind       string `json:"kind"`
	Source     string `json:"source"`
	SourceID   int64  `json:"source_id"`
	Seasons    int    `json:"seasons"`
	Episodes   int    `json:"episodes"`
	ImportedAt string `json:"imported_at"`
}
