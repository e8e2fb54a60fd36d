package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"card-czar/internal/cards"

	"github.com/jonboulle/clockwork"
)

type sent struct {
	playerID string
	event    string
	payload  any
}

type recorder struct {
	mu   sync.Mutex
	sent []sent
	fail bool
}

func (r *recorder) SendToRoom(roomID, event string, payload any) error {
	return r.record("", event, payload)
}

func (r *recorder) SendToPlayer(playerID, event string, payload any) error {
	return r.record(playerID, event, payload)
}

func (r *recorder) record(playerID, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{playerID: playerID, event: event, payload: payload})
	if r.fail {
		return errors.New("connection lost")
	}
	return nil
}

func (r *recorder) events(name string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, msg := range r.sent {
		if msg.event == name {
			out = append(out, msg)
		}
	}
	return out
}

func (r *recorder) notifications() []string {
	var out []string
	for _, msg := range r.events(EventNotification) {
		out = append(out, msg.payload.(Notification).Notification)
	}
	return out
}

func (r *recorder) lastSnapshot(t *testing.T) Snapshot {
	t.Helper()
	updates := r.events(EventGameUpdate)
	if len(updates) == 0 {
		t.Fatalf("expected at least one snapshot broadcast")
	}
	return updates[len(updates)-1].payload.(Snapshot)
}

// fakeSupplier issues cards with fresh ids on every call.
type fakeSupplier struct {
	mu          sync.Mutex
	numAnswers  int
	answerLimit int
	answerCalls int
	questionN   int
	nextAnswer  int
	failRefill  bool
	gate        chan struct{}
	returned    chan struct{}
}

func (f *fakeSupplier) Questions(ctx context.Context, n int) ([]cards.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questionN++
	out := make([]cards.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, cards.Question{
			ID:         fmt.Sprintf("q%d-%d", f.questionN, i),
			Text:       "What is ____?",
			NumAnswers: f.numAnswers,
		})
	}
	return out, nil
}

func (f *fakeSupplier) Answers(ctx context.Context, n int) ([]cards.Card, error) {
	f.mu.Lock()
	f.answerCalls++
	call := f.answerCalls
	gate := f.gate
	f.mu.Unlock()
	if call > 1 {
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
			}
			defer close(f.returned)
		}
		if f.failRefill {
			return nil, errors.New("card store unavailable")
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answerLimit > 0 && n > f.answerLimit {
		n = f.answerLimit
	}
	out := make([]cards.Card, 0, n)
	for i := 0; i < n; i++ {
		f.nextAnswer++
		out = append(out, cards.Card{ID: fmt.Sprintf("a%d", f.nextAnswer), Text: "answer"})
	}
	return out, nil
}

func (f *fakeSupplier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answerCalls
}

func testSettings() Settings {
	return Settings{
		PlayerMinLimit:   3,
		PlayerMaxLimit:   6,
		PointLimit:       5,
		HandSize:         10,
		ChoosingDuration: 20 * time.Second,
		JudgingDuration:  30 * time.Second,
		ResultsDuration:  5 * time.Second,
		QuestionBatch:    20,
		AnswerBatch:      200,
		QuestionLowWater: 0,
		AnswerLowWater:   0,
	}
}

func newTestSession(t *testing.T, settings Settings, supplier cards.Supplier) (*Session, *recorder, *clockwork.FakeClock) {
	t.Helper()
	rec := &recorder{}
	clock := clockwork.NewFakeClock()
	s := NewSession("room-1", Options{
		Settings:    settings,
		Supplier:    supplier,
		Broadcaster: rec,
		Names:       NewNamePool(),
		Clock:       clock,
		Rand:        rand.New(rand.NewPCG(7, 11)),
	})
	t.Cleanup(s.Kill)
	return s, rec, clock
}

func joinPlayers(t *testing.T, s *Session, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		if _, err := s.AddPlayer(PlayerInfo{ID: id, Name: fmt.Sprintf("Player %d", i)}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func startGame(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForState(t, s, StateChoosing)
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	waitFor(t, func() bool { return s.State() == want }, "state "+want.String())
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func handIDs(snap Snapshot, playerID string, n int) []string {
	for _, p := range snap.Players {
		if p.SocketID != playerID {
			continue
		}
		ids := make([]string, 0, n)
		for i := 0; i < n && i < len(p.Hand); i++ {
			ids = append(ids, p.Hand[i].ID)
		}
		return ids
	}
	return nil
}

func playerView(t *testing.T, snap Snapshot, playerID string) PlayerView {
	t.Helper()
	for _, p := range snap.Players {
		if p.SocketID == playerID {
			return p
		}
	}
	t.Fatalf("player %s not in snapshot", playerID)
	return PlayerView{}
}

func assertInvariants(t *testing.T, snap Snapshot) {
	t.Helper()
	if len(snap.Players) > 0 && snap.Round > 0 && (snap.Czar < 0 || snap.Czar >= len(snap.Players)) {
		t.Fatalf("czar %d out of range for %d players", snap.Czar, len(snap.Players))
	}
	// A czar who leaves mid-judging leaves every other submission on the
	// table, so the czar-free bound only holds while a czar is seated.
	limit := len(snap.Players)
	if snap.State == StateChoosing.String() || snap.State == StateJudging.String() {
		limit--
	}
	if len(snap.Players) > 0 && len(snap.Table) > limit {
		t.Fatalf("table has %d entries for %d players in %s", len(snap.Table), len(snap.Players), snap.State)
	}
	owners := map[string]bool{}
	for _, entry := range snap.Table {
		if owners[entry.Player] {
			t.Fatalf("player %s has two table entries", entry.Player)
		}
		owners[entry.Player] = true
		if len(snap.Players) > 0 && snap.Czar >= 0 && snap.Players[snap.Czar].SocketID == entry.Player && snap.State == StateChoosing.String() {
			t.Fatalf("czar %s is on the table", entry.Player)
		}
	}
	if snap.WinningCard != -1 {
		if snap.WinningCard >= len(snap.Table) {
			t.Fatalf("winning card %d outside table", snap.WinningCard)
		}
		if snap.Players[snap.WinningCardPlayer].SocketID != snap.Table[snap.WinningCard].Player {
			t.Fatalf("winning player does not own the winning entry")
		}
	}
}
