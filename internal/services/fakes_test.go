package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/tasuki"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Favorite{}, &domain.NewUnlock{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

var errBoom = &tasuki.APIError{Method: "GET", Path: "/x", Status: 500, Body: "boom"}
var errMissing = &tasuki.APIError{Method: "GET", Path: "/x", Status: 404, Body: "not found"}

// fakeAPI implements every upstream interface the services consume.
type fakeAPI struct {
	mu sync.Mutex

	characters []domain.Profile
	locked     []domain.Profile
	charErr    error

	// relationships returned by GetRelationship, in order; the last one repeats
	rels   map[string][]domain.Relationship
	relErr error
	relN   map[string]int

	stories       map[string][]domain.Story
	lockedStories map[string][]domain.Story

	history      map[string][]domain.ChatMessage
	historyErr   error
	historyCalls int
	reply        domain.ChatMessage
	sendErr error
	// sendHook runs inside SendChat before returning
	sendHook    func(ctx context.Context)
	sentHistory [][]domain.ChatMessage
	sendCalls   int

	favCalls []bool
	favErr   error
	// favHook runs inside UpdateFavorite before returning
	favHook func(ctx context.Context)

	unlockCalls int
	unlock      domain.Profile
	unlockErr   error

	municipalities []domain.Municipality
	muniErr        error
}

func (f *fakeAPI) GetCharacters(ctx context.Context) ([]domain.Profile, error) {
	return f.characters, f.charErr
}

func (f *fakeAPI) GetLockedCharacters(ctx context.Context) ([]domain.Profile, error) {
	return f.locked, f.charErr
}

func (f *fakeAPI) GetRelationship(ctx context.Context, id string) (domain.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.relErr != nil {
		return domain.Relationship{}, f.relErr
	}
	seq, ok := f.rels[id]
	if !ok || len(seq) == 0 {
		return domain.Relationship{}, errMissing
	}
	if f.relN == nil {
		f.relN = map[string]int{}
	}
	i := f.relN[id]
	if i >= len(seq) {
		i = len(seq) - 1
	}
	f.relN[id]++
	return seq[i], nil
}

func (f *fakeAPI) GetStories(ctx context.Context, id string) ([]domain.Story, error) {
	return f.stories[id], nil
}

func (f *fakeAPI) GetLockedStories(ctx context.Context, id string) ([]domain.Story, error) {
	return f.lockedStories[id], nil
}

func (f *fakeAPI) GetChatHistory(ctx context.Context, id string) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return append([]domain.ChatMessage(nil), f.history[id]...), nil
}

func (f *fakeAPI) SendChat(ctx context.Context, id, message string, history []domain.ChatMessage) (domain.ChatMessage, error) {
	f.mu.Lock()
	f.sendCalls++
	f.sentHistory = append(f.sentHistory, history)
	hook := f.sendHook
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	if f.sendErr != nil {
		return domain.ChatMessage{}, f.sendErr
	}
	return f.reply, nil
}

func (f *fakeAPI) UpdateFavorite(ctx context.Context, id string, fav bool) error {
	f.favCalls = append(f.favCalls, fav)
	if f.favHook != nil {
		f.favHook(ctx)
	}
	return f.favErr
}

func (f *fakeAPI) CheckUnlock(ctx context.Context, tag string) (domain.Profile, error) {
	f.unlockCalls++
	return f.unlock, f.unlockErr
}

func (f *fakeAPI) GetMunicipalities(ctx context.Context, pref string) ([]domain.Municipality, error) {
	return f.municipalities, f.muniErr
}

func (f *fakeAPI) GetOccupations(ctx context.Context) ([]domain.Occupation, error) {
	return []domain.Occupation{{ID: "o1", Name: "Farmer"}}, nil
}

func (f *fakeAPI) GetEvents(ctx context.Context) ([]domain.Event, error) {
	return []domain.Event{{ID: "e1", Title: "Festival"}}, nil
}

func (f *fakeAPI) GetFukushimaWeeksEvents(ctx context.Context) ([]domain.Event, error) {
	return []domain.Event{{ID: "fw1", Title: "Fukushima Weeks"}}, nil
}

func (f *fakeAPI) GetUnlockedAchievements(ctx context.Context) ([]domain.Achievement, error) {
	return []domain.Achievement{{ID: "a1", IsUnlocked: true}}, nil
}

func (f *fakeAPI) GetLockedAchievements(ctx context.Context) ([]domain.Achievement, error) {
	return nil, errBoom
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) all() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func rel(id string, level int) domain.Relationship {
	return domain.Relationship{CharacterID: id, TrustLevelID: level, NextLevelPoints: 10 * level}
}

// accountAPI is an upstream that keeps one relationship per account, the
// account being the caller's bearer token. Each successful turn of an
// account listed in levelsUp raises that account's trust level by one.
type accountAPI struct {
	*fakeAPI

	mu       sync.Mutex
	levels   map[string]int
	levelsUp map[string]bool
}

func (a *accountAPI) account(ctx context.Context) string {
	tok, _ := tasuki.BearerFrom(ctx)
	return tok
}

func (a *accountAPI) GetRelationship(ctx context.Context, id string) (domain.Relationship, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return rel(id, a.levels[a.account(ctx)]), nil
}

func (a *accountAPI) SendChat(ctx context.Context, id, message string, history []domain.ChatMessage) (domain.ChatMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if acct := a.account(ctx); a.levelsUp[acct] {
		a.levels[acct]++
	}
	return domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"}, nil
}
