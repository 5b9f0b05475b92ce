package kafka

import "time"

// All state-change events go out on one topic under one partition key so
// subscribers observe them in commit order.
const (
	DefaultTopic = "booth.v1"
	PartitionKey = "booth"
)

// Event types, one per committed mutation.
const (
	TypeWaitlistJoin   = "joined"
	TypeWaitlistLeave  = "left"
	TypeWaitlistMove   = "moved"
	TypeWaitlistClear  = "cleared"
	TypeWaitlistLock   = "locked"
	TypeBoothSkip      = "skip"
	TypeBoothReplace   = "boothReplace"
	TypeBoothAdvance   = "advance"
	TypeBoothVote      = "vote"
	TypeBoothFavorite  = "favorite"
	TypeRoleChange     = "roleChange"
	TypeNameChange     = "nameChange"
	TypeBan            = "ban"
	TypeUnban          = "unban"
	TypeMute           = "mute"
	TypeUnmute         = "unmute"
	TypeStatusChange   = "statusChange"
)

type WaitlistJoinEvent struct {
	UserID      string   `json:"user_id"`
	ModeratorID string   `json:"moderator_id,omitempty"`
	Position    int      `json:"position"`
	Waitlist    []string `json:"waitlist"`
}

type WaitlistLeaveEvent struct {
	UserID      string   `json:"user_id"`
	ModeratorID string   `json:"moderator_id,omitempty"`
	Waitlist    []string `json:"waitlist"`
}

type WaitlistMoveEvent struct {
	UserID      string   `json:"user_id"`
	ModeratorID string   `json:"moderator_id"`
	Position    int      `json:"position"`
	Waitlist    []string `json:"waitlist"`
}

type WaitlistClearEvent struct {
	ModeratorID string `json:"moderator_id"`
}

type WaitlistLockEvent struct {
	ModeratorID string `json:"moderator_id"`
	Locked      bool   `json:"locked"`
	Cleared     bool   `json:"cleared"`
}

type BoothSkipEvent struct {
	ModeratorID string `json:"moderator_id"`
	UserID      string `json:"user_id"`
	Reason      string `json:"reason,omitempty"`
}

type BoothReplaceEvent struct {
	ModeratorID string `json:"moderator_id"`
	UserID      string `json:"user_id"`
}

// BoothAdvanceEvent announces the new session. An empty UserID means the
// queue ran out and nothing is playing.
type BoothAdvanceEvent struct {
	HistoryID  string    `json:"history_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	Media      any       `json:"media,omitempty"`
	PlayedAt   time.Time `json:"played_at,omitempty"`
}

type BoothVoteEvent struct {
	UserID    string `json:"user_id"`
	Direction int    `json:"direction"`
}

type BoothFavoriteEvent struct {
	UserID     string `json:"user_id"`
	PlaylistID string `json:"playlist_id"`
}

type RoleChangeEvent struct {
	ModeratorID string `json:"moderator_id"`
	UserID      string `json:"user_id"`
	Role        int    `json:"role"`
}

type NameChangeEvent struct {
	ModeratorID string `json:"moderator_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

type BanEvent struct {
	ModeratorID string `json:"moderator_id"`
	UserID      string `json:"user_id"`
	Duration    int64  `json:"duration"`
	Exiled      bool   `json:"exiled"`
}

type MuteEvent struct {
	ModeratorID string `json:"moderator_id"`
	UserID      string `json:"user_id"`
	ExpiresIn   int64  `json:"expires_in"`
}

type StatusChangeEvent struct {
	UserID string `json:"user_id"`
	Status int    `json:"status"`
}
