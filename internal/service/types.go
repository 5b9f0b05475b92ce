package service

import (
	"github.com/mixgrove/booth-service/internal/domain"
)

type WaitlistState struct {
	Locked   bool     `json:"locked"`
	Waitlist []string `json:"waitlist"`
}

type FavoriteOutput struct {
	PlaylistSize int                   `json:"playlist_size"`
	Added        []domain.PlaylistItem `json:"added"`
}

type HistoryPage struct {
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
	Total   int64                `json:"total"`
	Entries []domain.HistoryEntry `json:"entries"`
}
