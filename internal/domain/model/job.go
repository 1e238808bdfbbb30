package model

import "time"

// Job asks a worker to recompute the rating of one stored season.
type Job struct {
	ID         string    // uuid, for log correlation
	SeasonID   int64     // player-season row to rescore
	EnqueuedAt time.Time // used for queue latency
}
