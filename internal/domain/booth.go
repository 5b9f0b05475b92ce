package domain

import "time"

// Media is the snapshot of a playable item taken at play time. History
// entries carry this snapshot so later edits to the source playlist item
// never change what was actually played.
type Media struct {
	Artist     string `json:"artist"`
	Title      string `json:"title"`
	Duration   int    `json:"duration"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	SourceID   string `json:"source_id"`
	SourceType int    `json:"source_type"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// BoothSession is the single active playback record. At most one exists
// at a time; it is created by an advance and replaced by the next one.
type BoothSession struct {
	HistoryID  string    `json:"history_id"`
	PlaylistID string    `json:"playlist_id"`
	ItemID     string    `json:"item_id"`
	UserID     string    `json:"user_id"`
	Media      Media     `json:"media"`
	StartedAt  time.Time `json:"started_at"`
}

// VoteTallies holds the ephemeral per-session vote state, most recent
// voter first in each list. A user appears at most once per list, and
// never in both Upvotes and Downvotes.
type VoteTallies struct {
	Upvotes   []string `json:"upvotes"`
	Downvotes []string `json:"downvotes"`
	Favorites []string `json:"favorites"`
}

// HistoryEntry is the immutable record of a booth session. It is written
// when the session starts and finalized with vote totals when it ends.
type HistoryEntry struct {
	ID         string      `json:"id"`
	PlaylistID string      `json:"playlist_id"`
	ItemID     string      `json:"item_id"`
	UserID     string      `json:"user_id"`
	Media      Media       `json:"media"`
	PlayedAt   time.Time   `json:"played_at"`
	Votes      VoteTallies `json:"votes"`
}

// BoothState is the read model combining the latest history entry with
// the live vote tallies. A nil BoothState means nothing is playing.
type BoothState struct {
	HistoryID  string      `json:"history_id"`
	PlaylistID string      `json:"playlist_id"`
	UserID     string      `json:"user_id"`
	Media      Media       `json:"media"`
	PlayedAt   time.Time   `json:"played_at"`
	Votes      VoteTallies `json:"votes"`
}

type VoteDirection int

const (
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

// PlaylistItem is an item owned by a playlist. Favoriting copies a
// played Media snapshot into a fresh item under a new ID.
type PlaylistItem struct {
	ID    string `json:"id"`
	Media Media  `json:"media"`
}

type Playlist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Author string         `json:"author"`
	Shared bool           `json:"shared"`
	Items  []PlaylistItem `json:"items"`
}

type User struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Slug     string     `json:"slug"`
	Role     int        `json:"role"`
	Status   int        `json:"status"`
	BannedAt *time.Time `json:"banned_at,omitempty"`
	BannedMS int64      `json:"banned_ms"`
	Exiled   bool       `json:"exiled"`
}
