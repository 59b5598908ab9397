package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/http/middleware"
	"github.com/tbourn/go-tasuki-companion/internal/repo"
	"github.com/tbourn/go-tasuki-companion/internal/roster"
	"github.com/tbourn/go-tasuki-companion/internal/services"
)

// ---------- test plumbing ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Favorite{}, &domain.NewUnlock{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Handlers.New expects interfaces in this package; we satisfy them with stubs.

type stubChars struct {
	list    func(ctx context.Context, userID string, f roster.Filter, key roster.SortKey) (*services.Roster, error)
	get     func(ctx context.Context, userID, id string) (*services.RosterEntry, error)
	stories func(ctx context.Context, userID, id string) ([]domain.Story, error)
}

func (s stubChars) List(ctx context.Context, userID string, f roster.Filter, key roster.SortKey) (*services.Roster, error) {
	return s.list(ctx, userID, f, key)
}
func (stubChars) ListLocked(context.Context) ([]domain.Profile, error) { return nil, nil }
func (s stubChars) Get(ctx context.Context, userID, id string) (*services.RosterEntry, error) {
	return s.get(ctx, userID, id)
}
func (s stubChars) Stories(ctx context.Context, userID, id string) ([]domain.Story, error) {
	return s.stories(ctx, userID, id)
}

type stubChat struct {
	sends int
	send  func(ctx context.Context, userID, id, msg string) (*services.TurnResult, error)
}

func (stubChat) Open(context.Context, string, string) ([]domain.ChatMessage, *domain.Relationship, error) {
	return []domain.ChatMessage{{Role: domain.RoleAssistant, Content: "やあ"}}, &domain.Relationship{CharacterID: "c1", TrustLevelID: 2}, nil
}
func (stubChat) State(string, string) services.SessionState { return services.StateIdle }
func (s *stubChat) Send(ctx context.Context, userID, id, msg string) (*services.TurnResult, error) {
	s.sends++
	return s.send(ctx, userID, id, msg)
}

type stubFavs struct {
	toggled, set int
	err          error
}

func (s *stubFavs) Toggle(context.Context, string, string) (bool, error) {
	s.toggled++
	return true, s.err
}
func (s *stubFavs) Set(_ context.Context, _, _ string, fav bool) (bool, error) {
	s.set++
	return fav, s.err
}
func (s *stubFavs) List(context.Context, string) ([]string, error) { return []string{"c1"}, s.err }

type stubUnlocks struct {
	unlock func(ctx context.Context, userID, tag string) (*domain.Profile, error)
}

func (s stubUnlocks) Unlock(ctx context.Context, userID, tag string) (*domain.Profile, error) {
	return s.unlock(ctx, userID, tag)
}
func (stubUnlocks) NewUnlocks(context.Context, string) ([]string, error) { return []string{}, nil }
func (stubUnlocks) Bootstrap(context.Context, string) (int64, error)     { return 3, nil }

type stubCatalog struct{ err error }

func (s stubCatalog) Municipalities(_ context.Context, pref string) ([]domain.Municipality, error) {
	return []domain.Municipality{{ID: "1", Name: "福島市", PrefectureID: pref}}, s.err
}
func (s stubCatalog) Occupations(context.Context) ([]domain.Occupation, error) { return nil, s.err }
func (s stubCatalog) Events(_ context.Context, fw bool) ([]domain.Event, error) {
	if fw {
		return []domain.Event{{ID: "fw"}}, s.err
	}
	return []domain.Event{{ID: "e"}}, s.err
}
func (s stubCatalog) Achievements(context.Context, bool) ([]domain.Achievement, error) {
	return nil, s.err
}

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Credentials(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.GET("/characters", h.ListCharacters)
	r.GET("/characters/locked", h.ListLockedCharacters)
	r.GET("/characters/:id", h.GetCharacter)
	r.GET("/characters/:id/stories", h.ListStories)
	r.GET("/characters/:id/chat", h.OpenChat)
	r.POST("/characters/:id/chat", h.SendMessage)
	r.PUT("/characters/:id/favorite", h.UpdateFavorite)
	r.GET("/favorites", h.ListFavorites)
	r.POST("/unlock", h.Unlock)
	r.GET("/unlocks/new", h.ListNewUnlocks)
	r.POST("/session/bootstrap", h.Bootstrap)
	r.GET("/municipalities/:prefectureId", h.ListMunicipalities)
	r.GET("/occupations", h.ListOccupations)
	r.GET("/events", h.ListEvents)
	r.GET("/events/fukushima-weeks", h.ListFukushimaWeeksEvents)
	r.GET("/events/ws", h.StreamEvents)
	r.GET("/achievements/unlocked", h.ListUnlockedAchievements)
	return r
}

func do(r http.Handler, method, path string, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er.Code
}

// ---------- characters ----------

func TestListCharacters_ParsesQuery(t *testing.T) {
	var gotF roster.Filter
	var gotKey roster.SortKey
	var gotUser string
	chars := stubChars{list: func(_ context.Context, u string, f roster.Filter, k roster.SortKey) (*services.Roster, error) {
		gotUser, gotF, gotKey = u, f, k
		return &services.Roster{Characters: []services.RosterEntry{}, Histogram: make([]int, 6)}, nil
	}}
	r := newRouter(New(chars, nil, nil, nil, nil))

	w := do(r, http.MethodGet, "/characters?municipality=m1&gender=1&locked=false&trust_level=3&sort=city", "", map[string]string{"X-User-ID": "u1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotUser != "u1" || gotKey != roster.SortCity {
		t.Fatalf("user=%q key=%q", gotUser, gotKey)
	}
	if gotF.MunicipalityID != "m1" || gotF.Gender != domain.GenderFemale || gotF.TrustLevel != 3 {
		t.Fatalf("filter=%+v", gotF)
	}
	if gotF.Locked == nil || *gotF.Locked {
		t.Fatalf("locked should be set to false, got %v", gotF.Locked)
	}

	// Defaults: no filter, default sort, demo user.
	w = do(r, http.MethodGet, "/characters", "", nil)
	if w.Code != http.StatusOK || gotKey != roster.DefaultSort || gotF.Locked != nil || gotUser != "demo-user" {
		t.Fatalf("defaults: status=%d key=%q f=%+v user=%q", w.Code, gotKey, gotF, gotUser)
	}
}

func TestListCharacters_RejectsBadQuery(t *testing.T) {
	chars := stubChars{list: func(context.Context, string, roster.Filter, roster.SortKey) (*services.Roster, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	r := newRouter(New(chars, nil, nil, nil, nil))

	cases := []struct {
		query, code string
	}{
		{"gender=robot", ErrCodeBadRequest},
		{"gender=7", ErrCodeBadRequest},
		{"locked=maybe", ErrCodeBadRequest},
		{"trust_level=9", ErrCodeBadRequest},
		{"trust_level=high", ErrCodeBadRequest},
		{"sort=age", ErrCodeInvalidSort},
	}
	for _, tc := range cases {
		w := do(r, http.MethodGet, "/characters?"+tc.query, "", nil)
		if w.Code != http.StatusBadRequest || errCode(t, w) != tc.code {
			t.Fatalf("%s: status=%d body=%s", tc.query, w.Code, w.Body.String())
		}
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrCharacterNotFound, http.StatusNotFound, ErrCodeNotFound},
		{fmt.Errorf("%w: boom", services.ErrUpstream), http.StatusBadGateway, ErrCodeUpstreamFailed},
		{services.ErrSendInProgress, http.StatusConflict, ErrCodeSendInProgress},
		{services.ErrTagNotRecognized, http.StatusNotFound, ErrCodeTagNotRecognized},
		{services.ErrInvalidTagUUID, http.StatusBadRequest, ErrCodeInvalidTag},
		{services.ErrTooLong, http.StatusBadRequest, ErrCodeBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		chars := stubChars{get: func(context.Context, string, string) (*services.RosterEntry, error) { return nil, tc.err }}
		r := newRouter(New(chars, nil, nil, nil, nil))
		w := do(r, http.MethodGet, "/characters/c1", "", nil)
		if w.Code != tc.status || errCode(t, w) != tc.code {
			t.Fatalf("%v: status=%d body=%s", tc.err, w.Code, w.Body.String())
		}
	}
}

func TestListStories_NilBecomesEmptyArray(t *testing.T) {
	chars := stubChars{stories: func(context.Context, string, string) ([]domain.Story, error) { return nil, nil }}
	r := newRouter(New(chars, nil, nil, nil, nil))
	w := do(r, http.MethodGet, "/characters/c1/stories", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"stories":[]`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

// ---------- chat ----------

func TestOpenChat(t *testing.T) {
	r := newRouter(New(nil, &stubChat{}, nil, nil, nil))
	w := do(r, http.MethodGet, "/characters/c1/chat", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ChatSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Messages) != 1 || resp.Relationship == nil || resp.State != services.StateIdle {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestSendMessage_ValidatesInput(t *testing.T) {
	chat := &stubChat{send: func(context.Context, string, string, string) (*services.TurnResult, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	r := newRouter(New(nil, chat, nil, nil, nil))

	if w := do(r, http.MethodPost, "/characters/c1/chat", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing message: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/characters/c1/chat", `{"message":" \n\n "}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("blank message: %d", w.Code)
	}
	long := strings.Repeat("あ", 1001)
	if w := do(r, http.MethodPost, "/characters/c1/chat", `{"message":"`+long+`"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("long message: %d", w.Code)
	}
}

func TestSendMessage_SanitizesAndReturnsTurn(t *testing.T) {
	var got string
	chat := &stubChat{send: func(_ context.Context, _, _, msg string) (*services.TurnResult, error) {
		got = msg
		return &services.TurnResult{Status: services.StateSuccess, LevelUp: true, PreviousLevel: 1}, nil
	}}
	r := newRouter(New(nil, chat, nil, nil, nil))

	w := do(r, http.MethodPost, "/characters/c1/chat", `{"message":"  hi\r\n\r\n\r\n\r\nthere  "}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got != "hi\n\nthere" {
		t.Fatalf("sanitized=%q", got)
	}
	if !strings.Contains(w.Body.String(), `"levelUp":true`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestSendMessage_IdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	chat := &stubChat{send: func(context.Context, string, string, string) (*services.TurnResult, error) {
		return &services.TurnResult{
			Status: services.StateSuccess,
			Reply:  domain.ChatMessage{Role: domain.RoleAssistant, Content: "こんにちは"},
		}, nil
	}}
	r := newRouter(New(nil, chat, nil, nil, nil).WithIdempotency(db, time.Hour))
	hdr := map[string]string{"X-User-ID": "u1", middleware.HeaderIdempotencyKey: "k-1"}

	first := do(r, http.MethodPost, "/characters/c1/chat", `{"message":"hi"}`, hdr)
	if first.Code != http.StatusOK || first.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first: status=%d hdr=%v", first.Code, first.Header())
	}
	second := do(r, http.MethodPost, "/characters/c1/chat", `{"message":"hi"}`, hdr)
	if second.Code != http.StatusOK || second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("second: status=%d hdr=%v", second.Code, second.Header())
	}
	if chat.sends != 1 {
		t.Fatalf("sends=%d, want 1", chat.sends)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("replayed body differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}

	// Same key, other character: not a replay.
	do(r, http.MethodPost, "/characters/c2/chat", `{"message":"hi"}`, hdr)
	if chat.sends != 2 {
		t.Fatalf("sends=%d, want 2", chat.sends)
	}
}

func TestSendMessage_FailedTurnNotRecorded(t *testing.T) {
	db := newTestDB(t)
	chat := &stubChat{send: func(context.Context, string, string, string) (*services.TurnResult, error) {
		return &services.TurnResult{
			Status: services.StateFailed,
			Reply:  domain.ChatMessage{Role: domain.RoleSystem, Content: domain.FailedToSendMessage},
		}, nil
	}}
	r := newRouter(New(nil, chat, nil, nil, nil).WithIdempotency(db, time.Hour))
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "k-2"}

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/characters/c1/chat", `{"message":"hi"}`, hdr)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"failed"`) {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
	if chat.sends != 2 {
		t.Fatalf("failed turns must not be replayed, sends=%d", chat.sends)
	}
}

func TestSendMessage_Conflict(t *testing.T) {
	chat := &stubChat{send: func(context.Context, string, string, string) (*services.TurnResult, error) {
		return nil, services.ErrSendInProgress
	}}
	r := newRouter(New(nil, chat, nil, nil, nil))
	w := do(r, http.MethodPost, "/characters/c1/chat", `{"message":"hi"}`, nil)
	if w.Code != http.StatusConflict || errCode(t, w) != ErrCodeSendInProgress {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

// ---------- favorites ----------

func TestUpdateFavorite_ToggleOrSet(t *testing.T) {
	favs := &stubFavs{}
	r := newRouter(New(nil, nil, favs, nil, nil))

	w := do(r, http.MethodPut, "/characters/c1/favorite", "", nil)
	if w.Code != http.StatusOK || favs.toggled != 1 {
		t.Fatalf("toggle: status=%d toggled=%d", w.Code, favs.toggled)
	}
	w = do(r, http.MethodPut, "/characters/c1/favorite", `{"is_favorite":false}`, nil)
	if w.Code != http.StatusOK || favs.set != 1 || !strings.Contains(w.Body.String(), `"isFavorite":false`) {
		t.Fatalf("set: status=%d set=%d body=%s", w.Code, favs.set, w.Body.String())
	}
	w = do(r, http.MethodPut, "/characters/c1/favorite", `{"is_favorite":`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status=%d", w.Code)
	}
}

func TestUpdateFavorite_UpstreamFailure(t *testing.T) {
	favs := &stubFavs{err: fmt.Errorf("%w: 500", services.ErrUpstream)}
	r := newRouter(New(nil, nil, favs, nil, nil))
	w := do(r, http.MethodPut, "/characters/c1/favorite", "", nil)
	if w.Code != http.StatusBadGateway || errCode(t, w) != ErrCodeUpstreamFailed {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestListFavorites_ETag(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := repo.AddFavorite(ctx, db, "u1", "c1"); err != nil {
		t.Fatal(err)
	}
	r := newRouter(New(nil, nil, &services.FavoriteService{DB: db}, nil, nil))
	hdr := map[string]string{"X-User-ID": "u1"}

	w := do(r, http.MethodGet, "/favorites", "", hdr)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" || !strings.Contains(w.Body.String(), `"c1"`) {
		t.Fatalf("status=%d etag=%q body=%s", w.Code, etag, w.Body.String())
	}
	hdr["If-None-Match"] = etag
	if w := do(r, http.MethodGet, "/favorites", "", hdr); w.Code != http.StatusNotModified {
		t.Fatalf("want 304, got %d", w.Code)
	}
}

// ---------- unlock ----------

func TestUnlock(t *testing.T) {
	var gotTag string
	unlocks := stubUnlocks{unlock: func(_ context.Context, _, tag string) (*domain.Profile, error) {
		gotTag = tag
		if tag == "bad" {
			return nil, services.ErrInvalidTagUUID
		}
		return &domain.Profile{Character: domain.Character{ID: "c9"}}, nil
	}}
	r := newRouter(New(nil, nil, nil, unlocks, nil))

	if w := do(r, http.MethodPost, "/unlock", "", nil); w.Code != http.StatusBadRequest || errCode(t, w) != ErrCodeInvalidTag {
		t.Fatalf("missing uuid: status=%d", w.Code)
	}
	if w := do(r, http.MethodPost, "/unlock?uuid=bad", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad uuid: status=%d", w.Code)
	}
	tag := uuid.NewString()
	w := do(r, http.MethodPost, "/unlock?uuid="+tag, "", nil)
	if w.Code != http.StatusOK || gotTag != tag || !strings.Contains(w.Body.String(), `"c9"`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestNewUnlocks_ETagAndBootstrap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := repo.AddNewUnlock(ctx, db, "u1", "c1", time.Now()); err != nil {
		t.Fatal(err)
	}
	r := newRouter(New(nil, nil, nil, &services.UnlockService{DB: db}, nil))
	hdr := map[string]string{"X-User-ID": "u1"}

	w := do(r, http.MethodGet, "/unlocks/new", "", hdr)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" || !strings.Contains(w.Body.String(), `["c1"]`) {
		t.Fatalf("status=%d etag=%q body=%s", w.Code, etag, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/unlocks/new", "", map[string]string{"X-User-ID": "u1", "If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Fatalf("want 304, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/session/bootstrap", "", hdr)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"cleared":1`) {
		t.Fatalf("bootstrap: status=%d body=%s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/unlocks/new", "", map[string]string{"X-User-ID": "u1", "If-None-Match": etag})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"characterIds":[]`) {
		t.Fatalf("after bootstrap: status=%d body=%s", w.Code, w.Body.String())
	}
}

// ---------- catalog & events ----------

func TestCatalog(t *testing.T) {
	r := newRouter(New(nil, nil, nil, nil, stubCatalog{}))

	w := do(r, http.MethodGet, "/municipalities/7", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"prefectureId":"7"`) {
		t.Fatalf("municipalities: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/occupations", "", nil); !strings.Contains(w.Body.String(), `"occupations":[]`) {
		t.Fatalf("occupations: %s", w.Body.String())
	}
	if w := do(r, http.MethodGet, "/events/fukushima-weeks", "", nil); !strings.Contains(w.Body.String(), `"fw"`) {
		t.Fatalf("fukushima weeks: %s", w.Body.String())
	}
	if w := do(r, http.MethodGet, "/events", "", nil); !strings.Contains(w.Body.String(), `"e"`) {
		t.Fatalf("events: %s", w.Body.String())
	}

	r = newRouter(New(nil, nil, nil, nil, stubCatalog{err: fmt.Errorf("%w: 503", services.ErrUpstream)}))
	if w := do(r, http.MethodGet, "/achievements/unlocked", "", nil); w.Code != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", w.Code)
	}
}

type recordingStream struct{ user string }

func (s *recordingStream) Serve(c *gin.Context, userID string) {
	s.user = userID
	c.Status(http.StatusSwitchingProtocols)
}

func TestStreamEvents(t *testing.T) {
	r := newRouter(New(nil, nil, nil, nil, nil))
	if w := do(r, http.MethodGet, "/events/ws", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("disabled stream: %d", w.Code)
	}

	es := &recordingStream{}
	r = newRouter(New(nil, nil, nil, nil, nil).WithEvents(es))
	cases := []struct {
		name    string
		path    string
		headers map[string]string
		want    string
	}{
		{"header", "/events/ws", map[string]string{"X-User-ID": "hdr"}, "hdr"},
		{"user_id query is ignored", "/events/ws?user_id=victim", nil, "demo-user"},
		{"bearer", "/events/ws", map[string]string{"Authorization": "Bearer tok-1", "X-User-ID": "victim"}, middleware.UserIDForToken("tok-1")},
		{"handshake access_token", "/events/ws?access_token=tok-1", map[string]string{"Upgrade": "websocket"}, middleware.UserIDForToken("tok-1")},
	}
	for _, tc := range cases {
		es.user = ""
		do(r, http.MethodGet, tc.path, "", tc.headers)
		if es.user != tc.want {
			t.Errorf("%s: user = %q; want %q", tc.name, es.user, tc.want)
		}
	}
}
