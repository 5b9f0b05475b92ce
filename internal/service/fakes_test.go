package service

import (
	"context"
	"sync"
	"time"

	"github.com/mixgrove/booth-service/internal/domain"
	repo "github.com/mixgrove/booth-service/internal/repository/redis"
	"github.com/mixgrove/booth-service/pkg/errors"
)

// In-memory stand-ins for the Redis repositories. They mirror the
// semantics of the real implementations closely enough for service-level
// behavior tests.

type fakeWaitlistRepo struct {
	mu     sync.Mutex
	list   []string
	locked bool
}

func (f *fakeWaitlistRepo) List(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeWaitlistRepo) Append(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.list {
		if v == userID {
			return false, nil
		}
	}
	f.list = append(f.list, userID)
	return true, nil
}

func (f *fakeWaitlistRepo) InsertAt(_ context.Context, userID string, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(userID)
	if position < 0 {
		position = 0
	}
	if position >= len(f.list) {
		f.list = append(f.list, userID)
		return nil
	}
	f.list = append(f.list[:position], append([]string{userID}, f.list[position:]...)...)
	return nil
}

func (f *fakeWaitlistRepo) MoveAfter(_ context.Context, userID, afterUserID string) error {
	if userID == afterUserID {
		return errors.Conflict("cannot move a user after themselves")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(userID)
	for i, v := range f.list {
		if v == afterUserID {
			f.list = append(f.list[:i+1], append([]string{userID}, f.list[i+1:]...)...)
			return nil
		}
	}
	f.list = append([]string{userID}, f.list...)
	return nil
}

func (f *fakeWaitlistRepo) Remove(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(userID)
	return nil
}

func (f *fakeWaitlistRepo) PopHead(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.list) == 0 {
		return "", repo.ErrEmptyWaitlist
	}
	head := f.list[0]
	f.list = f.list[1:]
	return head, nil
}

func (f *fakeWaitlistRepo) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = nil
	return nil
}

func (f *fakeWaitlistRepo) SetLock(_ context.Context, locked, alsoClear bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = locked
	if alsoClear {
		f.list = nil
	}
	return nil
}

func (f *fakeWaitlistRepo) IsLocked(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked, nil
}

func (f *fakeWaitlistRepo) removeLocked(userID string) {
	for i, v := range f.list {
		if v == userID {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return
		}
	}
}

type fakeBoothRepo struct {
	mu        sync.Mutex
	session   *domain.BoothSession
	historyID string
	tallies   domain.VoteTallies
}

func (f *fakeBoothRepo) GetSession(context.Context) (*domain.BoothSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

func (f *fakeBoothRepo) StartSession(_ context.Context, s *domain.BoothSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.session = &cp
	f.historyID = s.HistoryID
	f.tallies = domain.VoteTallies{}
	return nil
}

func (f *fakeBoothRepo) ClearSession(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = nil
	f.historyID = ""
	f.tallies = domain.VoteTallies{}
	return nil
}

func (f *fakeBoothRepo) CurrentHistoryID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyID, nil
}

func (f *fakeBoothRepo) Tallies(context.Context) (domain.VoteTallies, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tallies, nil
}

func (f *fakeBoothRepo) CastVote(_ context.Context, historyID, userID string, dir domain.VoteDirection) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyID == "" || f.historyID != historyID {
		return false, nil
	}
	f.tallies.Upvotes = removeID(f.tallies.Upvotes, userID)
	f.tallies.Downvotes = removeID(f.tallies.Downvotes, userID)
	if dir == domain.VoteUp {
		f.tallies.Upvotes = append([]string{userID}, f.tallies.Upvotes...)
	} else {
		f.tallies.Downvotes = append([]string{userID}, f.tallies.Downvotes...)
	}
	return true, nil
}

func (f *fakeBoothRepo) MarkFavorite(_ context.Context, historyID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyID == "" || f.historyID != historyID {
		return false, nil
	}
	f.tallies.Favorites = removeID(f.tallies.Favorites, userID)
	f.tallies.Favorites = append([]string{userID}, f.tallies.Favorites...)
	return true, nil
}

func removeID(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.HistoryEntry
	order   []string // newest first
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: map[string]*domain.HistoryEntry{}}
}

func (f *fakeHistoryRepo) Append(_ context.Context, e *domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.entries[e.ID] = &cp
	f.order = append([]string{e.ID}, f.order...)
	return nil
}

func (f *fakeHistoryRepo) Finalize(_ context.Context, id string, votes domain.VoteTallies) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return errors.NotFound("history entry with ID %s not found", id)
	}
	e.Votes = votes
	return nil
}

func (f *fakeHistoryRepo) Get(_ context.Context, id string) (*domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, errors.NotFound("history entry with ID %s not found", id)
	}
	cp := *e
	return &cp, nil
}

func (f *fakeHistoryRepo) List(_ context.Context, page, limit int) ([]domain.HistoryEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := page * limit
	if start >= len(f.order) {
		return nil, int64(len(f.order)), nil
	}
	stop := start + limit
	if stop > len(f.order) {
		stop = len(f.order)
	}
	out := make([]domain.HistoryEntry, 0, stop-start)
	for _, id := range f.order[start:stop] {
		out = append(out, *f.entries[id])
	}
	return out, int64(len(f.order)), nil
}

type fakePlaylistRepo struct {
	mu        sync.Mutex
	playlists map[string]*domain.Playlist
	active    map[string]string
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{
		playlists: map[string]*domain.Playlist{},
		active:    map[string]string{},
	}
}

func (f *fakePlaylistRepo) Get(_ context.Context, id string) (*domain.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return nil, errors.NotFound("playlist with ID %s not found", id)
	}
	cp := *p
	cp.Items = append([]domain.PlaylistItem(nil), p.Items...)
	return &cp, nil
}

func (f *fakePlaylistRepo) Save(_ context.Context, p *domain.Playlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.Items = append([]domain.PlaylistItem(nil), p.Items...)
	f.playlists[p.ID] = &cp
	return nil
}

func (f *fakePlaylistRepo) AppendItem(_ context.Context, playlistID string, item domain.PlaylistItem) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[playlistID]
	if !ok {
		return 0, errors.NotFound("playlist with ID %s not found", playlistID)
	}
	p.Items = append(p.Items, item)
	return len(p.Items), nil
}

func (f *fakePlaylistRepo) NextMedia(_ context.Context, userID string) (string, domain.PlaylistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	playlistID, ok := f.active[userID]
	if !ok {
		return "", domain.PlaylistItem{}, repo.ErrNoPlayableMedia
	}
	p, ok := f.playlists[playlistID]
	if !ok || len(p.Items) == 0 {
		return "", domain.PlaylistItem{}, repo.ErrNoPlayableMedia
	}
	item := p.Items[0]
	p.Items = append(p.Items[1:], item)
	return playlistID, item, nil
}

func (f *fakePlaylistRepo) SetActive(_ context.Context, userID, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[userID] = playlistID
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	muted map[string]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: map[string]*domain.User{},
		muted: map[string]time.Time{},
	}
}

func (f *fakeUserRepo) Get(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("user with ID %s not found", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Save(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) SetMute(_ context.Context, id string, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted[id] = time.Now().Add(d)
	return nil
}

func (f *fakeUserRepo) ClearMute(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.muted, id)
	return nil
}

func (f *fakeUserRepo) IsMuted(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	until, ok := f.muted[id]
	return ok && time.Now().Before(until), nil
}

type publishedEvent struct {
	Type    string
	Payload any
}

// capturingProducer records events in publish order.
type capturingProducer struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturingProducer) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Payload: payload})
	return nil
}

func (p *capturingProducer) Close() error { return nil }

func (p *capturingProducer) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *capturingProducer) last() *publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	e := p.events[len(p.events)-1]
	return &e
}
