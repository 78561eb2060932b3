package mock

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jon4hz/indiflix/internal/database"
)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// Media storage
	media       map[uint]*database.Media
	nextMediaID uint

	// Episode storage
	episodes      map[uint]*database.Episode
	nextEpisodeID uint

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// Engagement storage
	watchlist     map[[2]uint]time.Time
	ratings       map[[2]uint]int
	comments      []database.Comment
	nextCommentID uint

	// Error simulation
	CreateMediaError         error
	GetMediaByIDError        error
	ListMediaError           error
	UpdateMediaBackdropError error
	DeleteMediaError         error
	CreateEpisodeError       error
	ListEpisodesError        error
	CreateUserError          error
	GetUserError             error
	UpdateUserError          error
	WatchlistError           error
	RatingError              error
	CommentError             error
}

var _ database.DB = (*MockDB)(nil)

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	m := &MockDB{}
	m.Reset()
	return m
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.media = make(map[uint]*database.Media)
	m.nextMediaID = 1
	m.episodes = make(map[uint]*database.Episode)
	m.nextEpisodeID = 1
	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.watchlist = make(map[[2]uint]time.Time)
	m.ratings = make(map[[2]uint]int)
	m.comments = nil
	m.nextCommentID = 1

	m.CreateMediaError = nil
	m.GetMediaByIDError = nil
	m.ListMediaError = nil
	m.UpdateMediaBackdropError = nil
	m.DeleteMediaError = nil
	m.CreateEpisodeError = nil
	m.ListEpisodesError = nil
	m.CreateUserError = nil
	m.GetUserError = nil
	m.UpdateUserError = nil
	m.WatchlistError = nil
	m.RatingError = nil
	m.CommentError = nil
}

// Media operations

func (m *MockDB) CreateMedia(ctx context.Context, media *database.Media) error {
	if m.CreateMediaError != nil {
		return m.CreateMediaError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	media.ID = m.nextMediaID
	m.nextMediaID++
	now := time.Now()
	media.CreatedAt, media.UpdatedAt = now, now
	stored := *media
	m.media[media.ID] = &stored
	return nil
}

func (m *MockDB) GetMediaByID(ctx context.Context, id uint) (*database.Media, error) {
	if m.GetMediaByIDError != nil {
		return nil, m.GetMediaByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	media, ok := m.media[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *media
	return &out, nil
}

func (m *MockDB) ListMedia(ctx context.Context, filter database.MediaFilter) ([]database.Media, error) {
	if m.ListMediaError != nil {
		return nil, m.ListMediaError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	var items []database.Media
	for _, media := range m.media {
		if filter.Type != "" && media.Type != filter.Type {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(media.Title), query) &&
			!strings.Contains(strings.ToLower(media.Description), query) &&
			!strings.Contains(strings.ToLower(media.Genre), query) {
			continue
		}
		items = append(items, *media)
	}

	// newest first, ids are monotonic
	slices.SortFunc(items, func(a, b database.Media) int { return int(b.ID) - int(a.ID) })

	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return nil, nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (m *MockDB) UpdateMediaBackdrop(ctx context.Context, id uint, backdropURL string) error {
	if m.UpdateMediaBackdropError != nil {
		return m.UpdateMediaBackdropError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	media, ok := m.media[id]
	if !ok {
		return database.ErrNotFound
	}
	media.BackdropURL = backdropURL
	media.UpdatedAt = time.Now()
	return nil
}

func (m *MockDB) DeleteMedia(ctx context.Context, id uint) error {
	if m.DeleteMediaError != nil {
		return m.DeleteMediaError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.media[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.media, id)
	for epID, ep := range m.episodes {
		if ep.MediaID == id {
			delete(m.episodes, epID)
		}
	}
	for key := range m.watchlist {
		if key[1] == id {
			delete(m.watchlist, key)
		}
	}
	for key := range m.ratings {
		if key[1] == id {
			delete(m.ratings, key)
		}
	}
	m.comments = slices.DeleteFunc(m.comments, func(c database.Comment) bool { return c.MediaID == id })
	return nil
}

// Episode operations

func (m *MockDB) CreateEpisode(ctx context.Context, episode *database.Episode) error {
	if m.CreateEpisodeError != nil {
		return m.CreateEpisodeError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	episode.ID = m.nextEpisodeID
	m.nextEpisodeID++
	episode.CreatedAt = time.Now()
	stored := *episode
	m.episodes[episode.ID] = &stored
	return nil
}

func (m *MockDB) ListEpisodes(ctx context.Context, mediaID uint) ([]database.Episode, error) {
	if m.ListEpisodesError != nil {
		return nil, m.ListEpisodesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var episodes []database.Episode
	for _, ep := range m.episodes {
		if ep.MediaID == mediaID {
			episodes = append(episodes, *ep)
		}
	}
	slices.SortFunc(episodes, func(a, b database.Episode) int {
		if a.Season != b.Season {
			return a.Season - b.Season
		}
		return a.Number - b.Number
	})
	return episodes, nil
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	if user.AuthMethod == "" {
		user.AuthMethod = database.AuthMethodLocal
	}
	user.ID = m.nextUserID
	m.nextUserID++
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (m *MockDB) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockDB) UpdateUser(ctx context.Context, user *database.User) error {
	if m.UpdateUserError != nil {
		return m.UpdateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return database.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// Engagement operations

func (m *MockDB) AddToWatchlist(ctx context.Context, userID, mediaID uint) (bool, error) {
	if m.WatchlistError != nil {
		return false, m.WatchlistError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]uint{userID, mediaID}
	if _, ok := m.watchlist[key]; ok {
		return false, nil
	}
	m.watchlist[key] = time.Now()
	return true, nil
}

func (m *MockDB) RemoveFromWatchlist(ctx context.Context, userID, mediaID uint) (bool, error) {
	if m.WatchlistError != nil {
		return false, m.WatchlistError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := [2]uint{userID, mediaID}
	if _, ok := m.watchlist[key]; !ok {
		return false, nil
	}
	delete(m.watchlist, key)
	return true, nil
}

func (m *MockDB) GetWatchlist(ctx context.Context, userID uint) ([]database.Media, error) {
	if m.WatchlistError != nil {
		return nil, m.WatchlistError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type saved struct {
		media database.Media
		at    time.Time
	}
	var entries []saved
	for key, at := range m.watchlist {
		if key[0] != userID {
			continue
		}
		if media, ok := m.media[key[1]]; ok {
			entries = append(entries, saved{media: *media, at: at})
		}
	}
	slices.SortFunc(entries, func(a, b saved) int { return b.at.Compare(a.at) })

	items := make([]database.Media, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.media)
	}
	return items, nil
}

func (m *MockDB) UpsertRating(ctx context.Context, rating *database.Rating) error {
	if m.RatingError != nil {
		return m.RatingError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ratings[[2]uint{rating.UserID, rating.MediaID}] = rating.Rating
	return nil
}

func (m *MockDB) GetRatingSummary(ctx context.Context, mediaID, userID uint) (*database.RatingSummary, error) {
	if m.RatingError != nil {
		return nil, m.RatingError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := &database.RatingSummary{}
	total := 0
	for key, value := range m.ratings {
		if key[1] != mediaID {
			continue
		}
		summary.Count++
		total += value
		if userID != 0 && key[0] == userID {
			v := value
			summary.UserRating = &v
		}
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}

func (m *MockDB) CreateComment(ctx context.Context, comment *database.Comment) error {
	if m.CommentError != nil {
		return m.CommentError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	comment.ID = m.nextCommentID
	m.nextCommentID++
	comment.CreatedAt = time.Now()
	if user, ok := m.users[comment.UserID]; ok {
		comment.User = *user
	}
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *MockDB) ListComments(ctx context.Context, mediaID uint) ([]database.Comment, error) {
	if m.CommentError != nil {
		return nil, m.CommentError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var comments []database.Comment
	for _, c := range m.comments {
		if c.MediaID == mediaID {
			comments = append(comments, c)
		}
	}
	slices.SortFunc(comments, func(a, b database.Comment) int { return int(b.ID) - int(a.ID) })
	return comments, nil
}

func (m *MockDB) Close() error {
	return nil
}

// MediaCount returns the number of stored media entries.
func (m *MockDB) MediaCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.media)
}
