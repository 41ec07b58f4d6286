package domain

import (
	"time"
)

// IndexPair is one cell (I into the first stream, J into the second) of a
// warp path.
type IndexPair struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Warp is the result of aligning two streams.
type Warp struct {
	Cost float64     `json:"cost"`
	Path []IndexPair `json:"path"`
}

// StreamRecord is a persisted stream.
type StreamRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Points    Stream    `json:"points"`
	NPoints   int       `json:"n_points"`
	Distance  float64   `json:"distance"`
	Bounds    Bounds    `json:"bounds"`
	CreatedAt time.Time `json:"created_at"`
}

// DistanceEvent is published once a stream's distance has been computed.
type DistanceEvent struct {
	StreamID   string    `json:"stream_id"`
	Name       string    `json:"name,omitempty"`
	NPoints    int       `json:"n_points"`
	Distance   float64   `json:"distance"`
	ComputedAt time.Time `json:"computed_at"`
}

// ConsensusEvent is published once a medoid has been chosen for a collection.
type ConsensusEvent struct {
	MedoidID    string    `json:"medoid_id"`
	MedoidIndex int       `json:"medoid_index"`
	StreamIDs   []string  `json:"stream_ids"`
	Approximate bool      `json:"approximate"`
	ComputedAt  time.Time `json:"computed_at"`
}
