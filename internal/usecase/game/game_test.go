package game

import (
	"context"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"goban/internal/ai"
	"goban/internal/domain/game"
	"goban/internal/engine"
	errs "goban/internal/errors"
	"goban/internal/statuses"
)

// fakeStore keeps everything in maps so the arbiter can be exercised without
// mongo or redis.
type fakeStore struct {
	games   map[string]game.Game
	slots   map[string]game.SaveSlot
	counter int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games: make(map[string]game.Game),
		slots: make(map[string]game.SaveSlot),
	}
}

func (f *fakeStore) GenerateGameKeys(ctx context.Context) (string, string) {
	f.counter++
	secret := "secret-" + string(rune('a'+f.counter))
	public := "public-" + string(rune('a'+f.counter))
	return secret, public
}

func (f *fakeStore) PutGameToMongoDatabase(ctx context.Context, g game.Game) bool {
	f.games[g.GameKeySecret] = g
	return true
}

func (f *fakeStore) AddPlayer(ctx context.Context, userID, gameKey string) (game.Game, bool) {
	g, ok := f.games[gameKey]
	if !ok {
		return game.Game{}, false
	}
	if g.PlayerBlack == "" {
		g.PlayerBlack = userID
	} else if g.PlayerWhite == "" {
		g.PlayerWhite = userID
	} else {
		return game.Game{}, false
	}
	g.Status = statuses.StatusActive
	f.games[gameKey] = g
	return g, true
}

func (f *fakeStore) GetGameByGameKey(ctx context.Context, gameKey string) game.Game {
	return f.games[gameKey]
}

func (f *fakeStore) GetGameByPublicKey(ctx context.Context, pub string) (game.Game, error) {
	for _, g := range f.games {
		if g.GameKeyPublic == pub && g.Status != statuses.StatusCompleted {
			return g, nil
		}
	}
	return game.Game{}, errs.ErrGameNotFound
}

func (f *fakeStore) HasUserActiveGameByUserId(ctx context.Context, userID string) (bool, error) {
	for _, g := range f.games {
		if g.Status == statuses.StatusCompleted {
			continue
		}
		if g.PlayerBlack == userID || g.PlayerWhite == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) MarkGameCompleted(ctx context.Context, gameKey string, result game.GameResult) error {
	g, ok := f.games[gameKey]
	if !ok {
		return errs.ErrGameNotFound
	}
	g.Status = statuses.StatusCompleted
	g.Result = &result
	f.games[gameKey] = g
	return nil
}

func (f *fakeStore) SaveSlotToRedis(ctx context.Context, key string, slot game.SaveSlot) error {
	f.slots[key] = slot
	return nil
}

func (f *fakeStore) LoadSlotFromRedis(ctx context.Context, key string) (game.SaveSlot, error) {
	slot, ok := f.slots[key]
	if !ok {
		return game.SaveSlot{}, errs.ErrGameNotFound
	}
	return slot, nil
}

func (f *fakeStore) GetArchiveGamesByYear(ctx context.Context, year, pageNum int) (*game.ArchiveResponse, error) {
	return &game.ArchiveResponse{}, nil
}

func (f *fakeStore) GetArchiveYears(ctx context.Context) (*game.ArchiveYearsResponse, error) {
	return &game.ArchiveYearsResponse{}, nil
}

func newTestUseCase(store GameStore) *GameUseCase {
	selector := ai.NewSelector(rand.New(rand.NewSource(1)), 20)
	return NewGameUseCase(store, zap.NewNop().Sugar(), selector)
}

func TestCreateComputerGameAssignsFreeColorToAI(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)

	_, secret, _, err := uc.CreateGame(context.Background(), game.CreateGameRequest{
		BoardSize:      9,
		IsCreatorBlack: true,
		Mode:           game.ModeComputer,
		AILevel:        int(ai.LevelEasy),
	}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored := store.games[secret]
	if stored.AIColor != engine.White {
		t.Errorf("ai color = %v, want white", stored.AIColor)
	}
	if stored.PlayerWhite != "computer" {
		t.Errorf("player white = %q, want computer", stored.PlayerWhite)
	}
	if stored.Status != statuses.StatusActive {
		t.Errorf("status = %q, want active", stored.Status)
	}
	if _, ok := store.slots[secret]; !ok {
		t.Error("initial save slot missing")
	}
}

func TestApplyMoveTriggersComputerReply(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, secret, _, err := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: true, Mode: game.ModeComputer, AILevel: int(ai.LevelEasy),
	}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	outcome, err := uc.ApplyMove(ctx, secret, "alice", game.Move{X: 4, Y: 4})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome.AIReply == nil {
		t.Fatal("no computer reply")
	}
	if outcome.AIReply.Player != engine.White {
		t.Errorf("reply player = %v, want white", outcome.AIReply.Player)
	}
	if outcome.State.MoveCount != 2 {
		t.Errorf("move count = %d, want 2", outcome.State.MoveCount)
	}
	if outcome.State.CurrentPlayer != engine.Black {
		t.Errorf("current player = %v, want black again", outcome.State.CurrentPlayer)
	}
}

func TestApplyMoveRejectsWrongTurnAndStranger(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	pub, secret, _, err := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: true, Mode: game.ModePvp,
	}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uc.JoinGame(ctx, pub, "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := uc.ApplyMove(ctx, secret, "bob", game.Move{X: 0, Y: 0}); err != errs.ErrNotYourTurn {
		t.Errorf("white moving first: err = %v, want ErrNotYourTurn", err)
	}
	if _, err := uc.ApplyMove(ctx, secret, "mallory", game.Move{X: 0, Y: 0}); err != errs.ErrGameNotFound {
		t.Errorf("stranger moving: err = %v, want ErrGameNotFound", err)
	}
}

func TestApplyMoveReturnsRuleViolationUnchanged(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	pub, secret, _, _ := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: true, Mode: game.ModePvp,
	}, "alice")
	uc.JoinGame(ctx, pub, "bob")

	if _, err := uc.ApplyMove(ctx, secret, "alice", game.Move{X: 9, Y: 0}); err != errs.ErrOutOfRange {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}

	if _, err := uc.ApplyMove(ctx, secret, "alice", game.Move{X: 3, Y: 3}); err != nil {
		t.Fatalf("legal move rejected: %v", err)
	}
	if _, err := uc.ApplyMove(ctx, secret, "bob", game.Move{X: 3, Y: 3}); err != errs.ErrOccupied {
		t.Errorf("err = %v, want ErrOccupied", err)
	}
}

func TestUndoPopsTwoPliesAgainstComputer(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, secret, _, _ := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: true, Mode: game.ModeComputer, AILevel: int(ai.LevelEasy),
	}, "alice")

	if _, err := uc.ApplyMove(ctx, secret, "alice", game.Move{X: 4, Y: 4}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	state, err := uc.UndoMove(ctx, secret, "alice")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if state.MoveCount != 0 {
		t.Errorf("move count after undo = %d, want 0", state.MoveCount)
	}
	if state.CurrentPlayer != engine.Black {
		t.Errorf("current player after undo = %v, want black", state.CurrentPlayer)
	}
	if state.Board[4][4] != engine.Empty {
		t.Error("undone stone still on board")
	}
}

func TestUndoWithNoHistoryFails(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, secret, _, _ := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: true, Mode: game.ModePvp,
	}, "alice")

	if _, err := uc.UndoMove(ctx, secret, "alice"); err != errs.ErrNothingToUndo {
		t.Errorf("err = %v, want ErrNothingToUndo", err)
	}
}

func TestDoublePassFinishesAndArchivesGame(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	pub, secret, _, _ := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 5, IsCreatorBlack: true, Mode: game.ModePvp, Komi: 0.5,
	}, "alice")
	uc.JoinGame(ctx, pub, "bob")

	out, err := uc.PassTurn(ctx, secret, "alice")
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if out.GameEnd {
		t.Fatal("game ended after a single pass")
	}

	out, err = uc.PassTurn(ctx, secret, "bob")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !out.GameEnd {
		t.Fatal("game did not end after two passes")
	}
	if out.Score == nil {
		t.Fatal("no score attached to the final outcome")
	}
	if store.games[secret].Status != statuses.StatusCompleted {
		t.Errorf("stored status = %q, want completed", store.games[secret].Status)
	}

	if _, err := uc.ApplyMove(ctx, secret, "alice", game.Move{X: 0, Y: 0}); err != errs.ErrGameFinished {
		t.Errorf("moving after the end: err = %v, want ErrGameFinished", err)
	}
}

func TestMatchRecoveredFromSaveSlot(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	pub, secret, _, _ := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: true, Mode: game.ModePvp,
	}, "alice")
	uc.JoinGame(ctx, pub, "bob")
	if _, err := uc.ApplyMove(ctx, secret, "alice", game.Move{X: 2, Y: 2}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// A second use case over the same store simulates a process restart.
	uc2 := newTestUseCase(store)
	state, err := uc2.GameState(ctx, secret)
	if err != nil {
		t.Fatalf("state after restart: %v", err)
	}
	if state.Board[2][2] != engine.Black {
		t.Error("restored board lost the played stone")
	}
	if state.CurrentPlayer != engine.White {
		t.Errorf("restored current player = %v, want white", state.CurrentPlayer)
	}
}

func TestComputerAsBlackPlaysOpeningMove(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, secret, opening, err := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: false, Mode: game.ModeComputer, AILevel: int(ai.LevelEasy),
	}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if opening == nil {
		t.Fatal("no opening move from the computer")
	}
	if opening.Player != engine.Black {
		t.Errorf("opening player = %v, want black", opening.Player)
	}
	if opening.State.MoveCount != 1 {
		t.Errorf("move count after opening = %d, want 1", opening.State.MoveCount)
	}
	if opening.State.CurrentPlayer != engine.White {
		t.Errorf("current player after opening = %v, want white", opening.State.CurrentPlayer)
	}

	// White can answer right away and gets the computer's next reply.
	var answer game.Move
	found := false
	for y := 0; y < 9 && !found; y++ {
		for x := 0; x < 9 && !found; x++ {
			if opening.State.Board[y][x] == engine.Empty {
				answer = game.Move{X: x, Y: y}
				found = true
			}
		}
	}
	outcome, err := uc.ApplyMove(ctx, secret, "alice", answer)
	if err != nil {
		t.Fatalf("white answering the opening: %v", err)
	}
	if outcome.AIReply == nil {
		t.Fatal("no computer reply to white's answer")
	}
	if outcome.AIReply.Player != engine.Black {
		t.Errorf("reply player = %v, want black", outcome.AIReply.Player)
	}
}

func TestComputerAsBlackOpensAfterRestartWithoutSlot(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, secret, _, err := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 9, IsCreatorBlack: false, Mode: game.ModeComputer, AILevel: int(ai.LevelEasy),
	}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Lose the save slot; the rebuilt match starts on the computer's turn and
	// must not park waiting for a move the human cannot make.
	delete(store.slots, secret)

	uc2 := newTestUseCase(store)
	state, err := uc2.GameState(ctx, secret)
	if err != nil {
		t.Fatalf("state after restart: %v", err)
	}
	if state.MoveCount != 1 {
		t.Errorf("move count after restart = %d, want 1", state.MoveCount)
	}
	if state.CurrentPlayer != engine.White {
		t.Errorf("current player after restart = %v, want white", state.CurrentPlayer)
	}
}

func TestFinishedGamesLeaveRunningSet(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	pub, secret, _, _ := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 5, IsCreatorBlack: true, Mode: game.ModePvp,
	}, "alice")
	uc.JoinGame(ctx, pub, "bob")
	if _, err := uc.PassTurn(ctx, secret, "alice"); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if _, err := uc.PassTurn(ctx, secret, "bob"); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	uc.mu.Lock()
	_, cached := uc.matches[secret]
	uc.mu.Unlock()
	if cached {
		t.Error("double-passed game still in the running set")
	}

	pub2, secret2, _, _ := uc.CreateGame(ctx, game.CreateGameRequest{
		BoardSize: 5, IsCreatorBlack: true, Mode: game.ModePvp,
	}, "carol")
	uc.JoinGame(ctx, pub2, "dave")
	if _, err := uc.Resign(ctx, secret2, "carol"); err != nil {
		t.Fatalf("resign: %v", err)
	}

	uc.mu.Lock()
	_, cached = uc.matches[secret2]
	uc.mu.Unlock()
	if cached {
		t.Error("resigned game still in the running set")
	}
}
