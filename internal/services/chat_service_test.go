package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/store"
	"github.com/tbourn/go-tasuki-companion/internal/tasuki"
)

func newChat(api *fakeAPI) (*ChatService, *store.MemoryStore, *recordingPublisher) {
	st := store.NewMemoryStore(0)
	pub := &recordingPublisher{}
	return NewChatService(api, st, pub), st, pub
}

func TestChatService_Open_LoadsHistoryAndPrimesStore(t *testing.T) {
	api := &fakeAPI{
		history: map[string][]domain.ChatMessage{"c1": {{Role: domain.RoleAssistant, Content: "hello"}}},
		rels:    map[string][]domain.Relationship{"c1": {rel("c1", 2)}},
	}
	svc, st, _ := newChat(api)

	msgs, r, err := svc.Open(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
	if r == nil || r.TrustLevelID != 2 {
		t.Fatalf("unexpected relationship: %+v", r)
	}
	if got, ok, _ := st.Get(context.Background(), "u1", "c1"); !ok || got.TrustLevelID != 2 {
		t.Fatalf("store not primed: ok=%v %+v", ok, got)
	}
}

func TestChatService_Open_UnknownCharacter(t *testing.T) {
	api := &fakeAPI{rels: map[string][]domain.Relationship{}}
	svc, _, _ := newChat(api)
	if _, _, err := svc.Open(context.Background(), "u1", "nope"); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("expected ErrCharacterNotFound, got %v", err)
	}
}

func TestChatService_Send_Validation(t *testing.T) {
	svc, _, _ := newChat(&fakeAPI{})
	svc.MaxMessageRunes = 3

	if _, err := svc.Send(context.Background(), "u1", "c1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := svc.Send(context.Background(), "u1", "c1", "こんにちは"); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

// Level 2 → 3 after a turn produces exactly one level-up with the new snapshot.
func TestChatService_Send_LevelUp(t *testing.T) {
	api := &fakeAPI{
		rels:  map[string][]domain.Relationship{"c1": {rel("c1", 2), rel("c1", 3)}},
		reply: domain.ChatMessage{Role: domain.RoleAssistant, Content: "nice to see you"},
	}
	svc, st, pub := newChat(api)
	ctx := context.Background()

	if _, _, err := svc.Open(ctx, "u1", "c1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	res, err := svc.Send(ctx, "u1", "c1", "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Status != StateSuccess || !res.LevelUp || res.PreviousLevel != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Relationship == nil || res.Relationship.TrustLevelID != 3 {
		t.Fatalf("expected new snapshot at level 3, got %+v", res.Relationship)
	}
	if len(res.Messages) != 2 || res.Messages[0].Role != domain.RoleUser || res.Messages[1].Content != "nice to see you" {
		t.Fatalf("unexpected messages: %+v", res.Messages)
	}

	evs := pub.all()
	if len(evs) != 1 || evs[0].Type != EventLevelUp || evs[0].Relationship.TrustLevelID != 3 || evs[0].UserID != "u1" {
		t.Fatalf("unexpected events: %+v", evs)
	}
	if got, _, _ := st.Get(ctx, "u1", "c1"); got.TrustLevelID != 3 {
		t.Fatalf("store must hold the new snapshot, got %d", got.TrustLevelID)
	}

	// Same level on the next turn: no further event.
	if _, err := svc.Send(ctx, "u1", "c1", "again"); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if len(pub.all()) != 1 {
		t.Fatalf("expected no second level-up, got %+v", pub.all())
	}
}

func TestChatService_Send_NoLevelUpWhenUnchanged(t *testing.T) {
	api := &fakeAPI{
		rels:  map[string][]domain.Relationship{"c1": {rel("c1", 4)}},
		reply: domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"},
	}
	svc, _, pub := newChat(api)
	res, err := svc.Send(context.Background(), "u1", "c1", "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.LevelUp || len(pub.all()) != 0 {
		t.Fatalf("unexpected level-up: %+v events=%+v", res, pub.all())
	}
}

// A failed send appends the fixed system message, keeps the user's message,
// and does not refetch the relationship.
func TestChatService_Send_FailureAppendsSystemMessage(t *testing.T) {
	api := &fakeAPI{
		rels:    map[string][]domain.Relationship{"c1": {rel("c1", 1), rel("c1", 5)}},
		sendErr: errBoom,
	}
	svc, st, pub := newChat(api)
	ctx := context.Background()

	res, err := svc.Send(ctx, "u1", "c1", "hello?")
	if err != nil {
		t.Fatalf("Send should report failure in result, got %v", err)
	}
	if res.Status != StateFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	want := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hello?"},
		{Role: domain.RoleSystem, Content: domain.FailedToSendMessage},
	}
	if len(res.Messages) != 2 || res.Messages[0] != want[0] || res.Messages[1] != want[1] {
		t.Fatalf("unexpected messages: %+v", res.Messages)
	}
	if api.relN["c1"] != 1 {
		t.Fatalf("expected only the baseline fetch, got %d", api.relN["c1"])
	}
	if got, _, _ := st.Get(ctx, "u1", "c1"); got.TrustLevelID != 1 {
		t.Fatalf("store must be untouched, got %d", got.TrustLevelID)
	}
	if len(pub.all()) != 0 {
		t.Fatalf("no events on failure")
	}
	if svc.State("u1", "c1") != StateIdle {
		t.Fatalf("session must return to idle")
	}
}

func TestChatService_Send_HistoryExcludesCurrentMessage(t *testing.T) {
	api := &fakeAPI{
		history: map[string][]domain.ChatMessage{"c1": {{Role: domain.RoleAssistant, Content: "welcome"}}},
		rels:    map[string][]domain.Relationship{"c1": {rel("c1", 1)}},
		reply:   domain.ChatMessage{Role: domain.RoleAssistant, Content: "r"},
	}
	svc, _, _ := newChat(api)
	ctx := context.Background()
	_, _, _ = svc.Open(ctx, "u1", "c1")

	if _, err := svc.Send(ctx, "u1", "c1", "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.Send(ctx, "u1", "c1", "second"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(api.sentHistory) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(api.sentHistory))
	}
	if len(api.sentHistory[0]) != 1 || len(api.sentHistory[1]) != 3 {
		t.Fatalf("unexpected history sizes: %d, %d", len(api.sentHistory[0]), len(api.sentHistory[1]))
	}
	if api.sentHistory[1][1].Content != "first" {
		t.Fatalf("history must carry prior turns: %+v", api.sentHistory[1])
	}
}

func TestChatService_Send_ConcurrentSendRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{
		rels:  map[string][]domain.Relationship{"c1": {rel("c1", 1)}},
		reply: domain.ChatMessage{Role: domain.RoleAssistant, Content: "r"},
		sendHook: func(ctx context.Context) {
			close(entered)
			<-release
		},
	}
	svc, _, _ := newChat(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = svc.Send(ctx, "u1", "c1", "one")
	}()
	<-entered

	if svc.State("u1", "c1") != StateSending {
		t.Fatalf("expected sending state")
	}
	api.mu.Lock()
	api.sendHook = nil
	api.mu.Unlock()
	if _, err := svc.Send(ctx, "u1", "c1", "two"); !errors.Is(err, ErrSendInProgress) {
		t.Fatalf("expected ErrSendInProgress, got %v", err)
	}
	// other characters are independent sessions
	api.rels["c2"] = []domain.Relationship{rel("c2", 1)}
	if _, err := svc.Send(ctx, "u1", "c2", "elsewhere"); err != nil {
		t.Fatalf("other session: %v", err)
	}

	close(release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first send: %v", firstErr)
	}
	if svc.State("u1", "c1") != StateIdle {
		t.Fatalf("expected idle after completion")
	}
}

// Cancelling the caller's context mid-turn discards the results.
func TestChatService_Send_CancelledDiscardsResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{
		rels:     map[string][]domain.Relationship{"c1": {rel("c1", 1), rel("c1", 2)}},
		reply:    domain.ChatMessage{Role: domain.RoleAssistant, Content: "late"},
		sendHook: func(context.Context) { cancel() },
	}
	svc, st, pub := newChat(api)

	_, err := svc.Send(ctx, "u1", "c1", "hi")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got, _, _ := st.Get(context.Background(), "u1", "c1"); got.TrustLevelID != 1 {
		t.Fatalf("store must keep the pre-turn snapshot, got %d", got.TrustLevelID)
	}
	if len(pub.all()) != 0 {
		t.Fatalf("no events after cancellation")
	}

	api.sendHook = nil
	msgs, _, err := svc.Open(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, m := range msgs {
		if strings.Contains(m.Content, "late") || m.Content == "hi" {
			t.Fatalf("discarded turn leaked into session: %+v", msgs)
		}
	}
	if svc.State("u1", "c1") != StateIdle {
		t.Fatalf("session must be idle after discard")
	}
}

func TestChatService_Send_RefetchFailureInvalidatesStore(t *testing.T) {
	api := &fakeAPI{
		rels:  map[string][]domain.Relationship{"c1": {rel("c1", 2)}},
		reply: domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"},
	}
	svc, st, _ := newChat(api)
	ctx := context.Background()
	_, _, _ = svc.Open(ctx, "u1", "c1")

	api.relErr = errBoom
	res, err := svc.Send(ctx, "u1", "c1", "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Status != StateSuccess || res.Relationship != nil || res.LevelUp {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok, _ := st.Get(ctx, "u1", "c1"); ok {
		t.Fatalf("stale snapshot must be invalidated")
	}
}

func TestChatService_EvictsIdleSessions(t *testing.T) {
	api := &fakeAPI{
		rels:  map[string][]domain.Relationship{"c1": {rel("c1", 1)}, "c2": {rel("c2", 1)}},
		reply: domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"},
	}
	svc, _, _ := newChat(api)
	clock := svc.now()
	svc.now = func() time.Time { return clock }

	_, _ = svc.Send(context.Background(), "u1", "c1", "hi")
	clock = clock.Add(svc.SessionIdleTTL + time.Minute)
	_, _ = svc.Send(context.Background(), "u1", "c2", "hi")

	svc.mu.Lock()
	_, kept := svc.sessions[sessionKey("u1", "c1")]
	n := len(svc.sessions)
	svc.mu.Unlock()
	if kept || n != 1 {
		t.Fatalf("expected idle session evicted, kept=%v n=%d", kept, n)
	}
}

// Two users talking to the same character are separate upstream accounts;
// only the one whose relationship moved gets a level-up.
func TestChatService_Send_LevelUpIsPerAccount(t *testing.T) {
	api := &accountAPI{
		fakeAPI:  &fakeAPI{},
		levels:   map[string]int{"tok-1": 2, "tok-2": 2},
		levelsUp: map[string]bool{"tok-1": true},
	}
	st := store.NewMemoryStore(0)
	pub := &recordingPublisher{}
	svc := NewChatService(api, st, pub)

	ctx1 := tasuki.WithBearer(context.Background(), "tok-1")
	ctx2 := tasuki.WithBearer(context.Background(), "tok-2")
	for uid, ctx := range map[string]context.Context{"u1": ctx1, "u2": ctx2} {
		if _, _, err := svc.Open(ctx, uid, "c1"); err != nil {
			t.Fatalf("Open(%s): %v", uid, err)
		}
	}

	res1, err := svc.Send(ctx1, "u1", "c1", "hi")
	if err != nil || !res1.LevelUp || res1.Relationship.TrustLevelID != 3 {
		t.Fatalf("u1: res=%+v err=%v", res1, err)
	}
	res2, err := svc.Send(ctx2, "u2", "c1", "hi")
	if err != nil || res2.LevelUp || res2.Relationship.TrustLevelID != 2 {
		t.Fatalf("u2 must not level up: res=%+v err=%v", res2, err)
	}

	evs := pub.all()
	if len(evs) != 1 || evs[0].UserID != "u1" {
		t.Fatalf("expected a single level-up for u1, got %+v", evs)
	}
	if got, _, _ := st.Get(context.Background(), "u2", "c1"); got.TrustLevelID != 2 {
		t.Fatalf("u2 snapshot = %d; want 2", got.TrustLevelID)
	}
}

func TestChatService_Send_LoadsHistoryWhenNotOpened(t *testing.T) {
	persisted := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "こんにちは"},
		{Role: domain.RoleAssistant, Content: "welcome back"},
	}
	api := &fakeAPI{
		history: map[string][]domain.ChatMessage{"c1": persisted},
		rels:    map[string][]domain.Relationship{"c1": {rel("c1", 1)}},
		reply:   domain.ChatMessage{Role: domain.RoleAssistant, Content: "r"},
	}
	svc, _, _ := newChat(api)
	ctx := context.Background()

	res, err := svc.Send(ctx, "u1", "c1", "first")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(api.sentHistory[0]) != 2 || api.sentHistory[0][1].Content != "welcome back" {
		t.Fatalf("first send must carry persisted history, got %+v", api.sentHistory[0])
	}
	if len(res.Messages) != 4 {
		t.Fatalf("session should hold history + turn, got %+v", res.Messages)
	}

	// loaded once; later turns reuse the session
	if _, err := svc.Send(ctx, "u1", "c1", "second"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if api.historyCalls != 1 || len(api.sentHistory[1]) != 4 {
		t.Fatalf("historyCalls=%d second history=%d", api.historyCalls, len(api.sentHistory[1]))
	}
}

func TestChatService_Send_ReloadsHistoryAfterIdleEviction(t *testing.T) {
	persisted := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "a"},
		{Role: domain.RoleAssistant, Content: "b"},
	}
	api := &fakeAPI{
		history: map[string][]domain.ChatMessage{"c1": persisted},
		rels:    map[string][]domain.Relationship{"c1": {rel("c1", 1)}},
		reply:   domain.ChatMessage{Role: domain.RoleAssistant, Content: "r"},
	}
	svc, _, _ := newChat(api)
	clock := svc.now()
	svc.now = func() time.Time { return clock }
	ctx := context.Background()

	if _, _, err := svc.Open(ctx, "u1", "c1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	clock = clock.Add(svc.SessionIdleTTL + time.Minute)

	if _, err := svc.Send(ctx, "u1", "c1", "after a break"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := len(api.sentHistory[0]); got != len(persisted) {
		t.Fatalf("history sent after eviction: %d messages; want %d", got, len(persisted))
	}
}

func TestChatService_Send_HistoryLoadFailure(t *testing.T) {
	api := &fakeAPI{
		historyErr: errBoom,
		rels:       map[string][]domain.Relationship{"c1": {rel("c1", 1)}},
	}
	svc, _, _ := newChat(api)

	if _, err := svc.Send(context.Background(), "u1", "c1", "hi"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if api.sendCalls != 0 {
		t.Fatalf("nothing may be sent without the prior history")
	}
	if svc.State("u1", "c1") != StateIdle {
		t.Fatalf("session must return to idle")
	}

	// a later attempt retries the load
	api.historyErr = nil
	if _, err := svc.Send(context.Background(), "u1", "c1", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if api.historyCalls != 2 {
		t.Fatalf("historyCalls = %d; want 2", api.historyCalls)
	}
}
