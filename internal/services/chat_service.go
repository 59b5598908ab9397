// Package services – ChatService
//
// This file implements ChatService, which owns per-(user, character) chat
// sessions and the progression reaction that follows every turn.
//
// A session moves idle → sending → success|failed → idle. While a turn is in
// flight the session rejects further sends with ErrSendInProgress. A turn:
//
//  1. appends the user's message optimistically,
//  2. sends it upstream together with the full prior history,
//  3. appends the reply, or a system message with FailedToSendMessage when the
//     upstream call fails (no retry, no relationship refetch),
//  4. refetches the relationship, compares its trust level with the snapshot
//     held in the relationship store, publishes a level-up event when it rose,
//     and stores the new snapshot.
//
// Every upstream call is scoped to the caller's context. If that context is
// cancelled mid-turn, the turn's results are discarded: the optimistic
// message is rolled back and nothing is written to the store.
package services

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
	"github.com/tbourn/go-tasuki-companion/internal/store"
)

// SessionState is the lifecycle state of a chat session.
type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateSending SessionState = "sending"
	StateSuccess SessionState = "success"
	StateFailed  SessionState = "failed"
)

// TurnResult is the outcome of one Send.
type TurnResult struct {
	// Status is StateSuccess or StateFailed.
	Status SessionState `json:"status"`
	// Reply is the assistant's message, or the system failure message.
	Reply domain.ChatMessage `json:"reply"`
	// Messages is the full session after the turn.
	Messages []domain.ChatMessage `json:"messages"`
	// Relationship is the refreshed snapshot; nil after a failed turn or when
	// the refetch failed.
	Relationship *domain.Relationship `json:"relationship,omitempty"`
	LevelUp      bool                 `json:"levelUp"`
	// PreviousLevel is the trust level held before the turn (0 if unknown).
	PreviousLevel int `json:"previousLevel"`
}

type session struct {
	mu       sync.Mutex
	state    SessionState
	messages []domain.ChatMessage
	// loaded is set once messages hold the persisted history.
	loaded bool

	lastUsed time.Time // guarded by ChatService.mu
}

// ChatService manages chat sessions.
type ChatService struct {
	API       ChatAPI
	Store     store.RelationshipStore
	Publisher Publisher

	// MaxMessageRunes caps user messages; 0 disables the check.
	MaxMessageRunes int
	// SessionIdleTTL drops idle sessions not touched for this long.
	SessionIdleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

// NewChatService constructs a ChatService with default session expiry.
func NewChatService(api ChatAPI, st store.RelationshipStore, pub Publisher) *ChatService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &ChatService{
		API:             api,
		Store:           st,
		Publisher:       pub,
		MaxMessageRunes: 1000,
		SessionIdleTTL:  30 * time.Minute,
		sessions:        make(map[string]*session),
		now:             time.Now,
	}
}

// Open loads the persisted history of the conversation into the session and
// primes the relationship store. It returns the session's messages and the
// current relationship. A session with a turn in flight keeps its in-memory
// messages.
func (s *ChatService) Open(ctx context.Context, userID, characterID string) ([]domain.ChatMessage, *domain.Relationship, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Open",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("character.id", characterID),
		),
	)
	defer span.End()

	history, err := s.API.GetChatHistory(ctx, characterID)
	if err != nil {
		return nil, nil, characterErr(err)
	}
	rel, err := loadRelationship(ctx, s.Store, s.API, userID, characterID)
	if err != nil {
		return nil, nil, characterErr(err)
	}
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	sess := s.session(userID, characterID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state != StateSending {
		sess.messages = history
		sess.loaded = true
	}
	return slices.Clone(sess.messages), rel, nil
}

// State reports the current state of a session; sessions never opened are
// idle.
func (s *ChatService) State(userID, characterID string) SessionState {
	s.mu.Lock()
	sess, ok := s.sessions[sessionKey(userID, characterID)]
	s.mu.Unlock()
	if !ok {
		return StateIdle
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Send runs one chat turn. Upstream failures of the chat call are reported in
// the result (Status=StateFailed), not as an error. Errors are returned for
// invalid input, a concurrent send, and context cancellation.
func (s *ChatService) Send(ctx context.Context, userID, characterID, message string) (*TurnResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("character.id", characterID),
		),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}

	sess := s.session(userID, characterID)
	sess.mu.Lock()
	if sess.state == StateSending {
		sess.mu.Unlock()
		return nil, ErrSendInProgress
	}
	sess.state = StateSending
	loaded := sess.loaded
	sess.mu.Unlock()

	// A session that was never opened here (first send, idle eviction,
	// restart, another replica) must still send the full prior history.
	// StateSending keeps other sends and Open off the messages meanwhile.
	if !loaded {
		persisted, err := s.API.GetChatHistory(ctx, characterID)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			s.discard(sess, -1)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, characterErr(err)
		}
		sess.mu.Lock()
		sess.messages = persisted
		sess.loaded = true
		sess.mu.Unlock()
	}

	sess.mu.Lock()
	history := slices.Clone(sess.messages)
	mark := len(sess.messages)
	sess.messages = append(sess.messages, domain.ChatMessage{Role: domain.RoleUser, Content: message})
	sess.mu.Unlock()

	prev := s.baseline(ctx, userID, characterID)

	reply, err := s.API.SendChat(ctx, characterID, message, history)
	if ctx.Err() != nil {
		s.discard(sess, mark)
		return nil, ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		log.Ctx(ctx).Warn().Err(err).Str("character_id", characterID).Msg("chat send failed")
		sendFailures.Inc()

		failure := domain.ChatMessage{Role: domain.RoleSystem, Content: domain.FailedToSendMessage}
		msgs := s.finish(sess, StateFailed, failure)
		return &TurnResult{
			Status:        StateFailed,
			Reply:         failure,
			Messages:      msgs,
			PreviousLevel: domain.TrustLevelOf(prev),
		}, nil
	}

	next, rerr := s.API.GetRelationship(ctx, characterID)
	if ctx.Err() != nil {
		s.discard(sess, mark)
		return nil, ctx.Err()
	}

	res := &TurnResult{Status: StateSuccess, Reply: reply, PreviousLevel: domain.TrustLevelOf(prev)}
	if rerr != nil {
		log.Ctx(ctx).Warn().Err(rerr).Str("character_id", characterID).Msg("relationship refetch failed")
		// the stored snapshot may now be stale
		invalidateRelationship(ctx, s.Store, userID, characterID)
	} else {
		res.Relationship = &next
		res.LevelUp = domain.LeveledUp(prev, &next)
		putRelationship(ctx, s.Store, userID, next)
	}
	res.Messages = s.finish(sess, StateSuccess, reply)

	if res.LevelUp {
		span.SetAttributes(attribute.Int("trust.level", next.TrustLevelID))
		levelUps.WithLabelValues(strconv.Itoa(next.TrustLevelID)).Inc()
		s.Publisher.Publish(Event{
			Type:          EventLevelUp,
			UserID:        userID,
			CharacterID:   characterID,
			PreviousLevel: res.PreviousLevel,
			Relationship:  res.Relationship,
			At:            s.now().UTC(),
		})
	}
	return res, nil
}

// baseline returns the relationship snapshot to compare against after the
// turn. A failed lookup yields nil, which never counts as a level-up.
func (s *ChatService) baseline(ctx context.Context, userID, characterID string) *domain.Relationship {
	rel, err := loadRelationship(ctx, s.Store, s.API, userID, characterID)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("character_id", characterID).Msg("no baseline relationship")
		return nil
	}
	return rel
}

// finish appends msg, passes through the terminal state and returns to idle.
func (s *ChatService) finish(sess *session, terminal SessionState, msg domain.ChatMessage) []domain.ChatMessage {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.messages = append(sess.messages, msg)
	sess.state = terminal
	out := slices.Clone(sess.messages)
	sess.state = StateIdle
	return out
}

// discard rolls the session back to its length before the turn. A negative
// mark only resets the state.
func (s *ChatService) discard(sess *session, mark int) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if mark >= 0 && mark <= len(sess.messages) {
		sess.messages = sess.messages[:mark]
	}
	sess.state = StateIdle
}

func (s *ChatService) session(userID, characterID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdleLocked(now)

	k := sessionKey(userID, characterID)
	sess, ok := s.sessions[k]
	if !ok {
		sess = &session{state: StateIdle}
		s.sessions[k] = sess
	}
	sess.lastUsed = now
	return sess
}

func (s *ChatService) evictIdleLocked(now time.Time) {
	if s.SessionIdleTTL <= 0 {
		return
	}
	for k, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.state == StateIdle && now.Sub(sess.lastUsed) > s.SessionIdleTTL {
			delete(s.sessions, k)
		}
		sess.mu.Unlock()
	}
}

func sessionKey(userID, characterID string) string {
	return userID + "\x00" + characterID
}
