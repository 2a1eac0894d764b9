package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"goban/internal/ai"
	"goban/internal/domain/game"
	"goban/internal/engine"
	"goban/internal/errors"
	"goban/internal/statuses"
)

type GameStore interface {
	GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string)
	PutGameToMongoDatabase(ctx context.Context, gameData game.Game) bool
	AddPlayer(ctx context.Context, userId string, gameKey string) (game.Game, bool)
	GetGameByGameKey(ctx context.Context, gameKey string) game.Game
	GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error)
	HasUserActiveGameByUserId(ctx context.Context, userID string) (bool, error)
	MarkGameCompleted(ctx context.Context, gameKey string, result game.GameResult) error
	SaveSlotToRedis(ctx context.Context, key string, slot game.SaveSlot) error
	LoadSlotFromRedis(ctx context.Context, key string) (game.SaveSlot, error)

	GetArchiveGamesByYear(ctx context.Context, year int, pageNum int) (*game.ArchiveResponse, error)
	GetArchiveYears(ctx context.Context) (*game.ArchiveYearsResponse, error)
}

// GameUseCase arbitrates matches: every move, pass, undo and scoring request
// goes through here, and the engine is the only judge of legality. Engines of
// running matches are kept in memory and recovered from the save slot after a
// restart.
type GameUseCase struct {
	store    GameStore
	log      *zap.SugaredLogger
	selector *ai.Selector

	mu      sync.Mutex
	matches map[string]*match // keyed by secret game key
}

type match struct {
	eng  *engine.Engine
	meta game.Game
}

func NewGameUseCase(store GameStore, log *zap.SugaredLogger, selector *ai.Selector) *GameUseCase {
	return &GameUseCase{
		store:    store,
		log:      log,
		selector: selector,
		matches:  make(map[string]*match),
	}
}

// CreateGame registers the match and, when the computer holds the opening
// color, plays its first move right away so the human is never stuck waiting
// for a turn that nothing would trigger. The opening outcome is returned for
// the client alongside the keys.
func (g *GameUseCase) CreateGame(ctx context.Context, req game.CreateGameRequest, creatorID string) (gameKeyPublic string, gameKeySecret string, opening *game.MoveOutcome, err error) {
	gameKeySecret, gameKeyPublic = g.store.GenerateGameKeys(ctx)

	if req.BoardSize <= 0 {
		req.BoardSize = 19
	}
	if req.Komi == 0 {
		req.Komi = engine.DefaultKomi
	}
	if req.Mode == "" {
		req.Mode = game.ModePvp
	}

	newGame := game.Game{
		BoardSize:     req.BoardSize,
		Komi:          req.Komi,
		GameKeySecret: gameKeySecret,
		GameKeyPublic: gameKeyPublic,
		Mode:          req.Mode,
		Status:        statuses.StatusWaitOpponent,
		CreatedAt:     time.Now(),
	}

	if req.IsCreatorBlack {
		newGame.PlayerBlack = creatorID
	} else {
		newGame.PlayerWhite = creatorID
	}

	if req.Mode == game.ModeComputer {
		// The computer takes the free color and the game starts right away.
		newGame.AILevel = req.AILevel
		if newGame.AILevel == 0 {
			newGame.AILevel = int(ai.LevelEasy)
		}
		if req.IsCreatorBlack {
			newGame.AIColor = engine.White
			newGame.PlayerWhite = "computer"
		} else {
			newGame.AIColor = engine.Black
			newGame.PlayerBlack = "computer"
		}
		newGame.Status = statuses.StatusActive
	}

	if ok := g.store.PutGameToMongoDatabase(ctx, newGame); !ok {
		return "", "", nil, errors.ErrCreateGameFailed
	}

	eng := engine.New(newGame.BoardSize)
	eng.SetKomi(newGame.Komi)
	m := &match{eng: eng, meta: newGame}

	g.mu.Lock()
	g.matches[gameKeySecret] = m
	if newGame.Mode == game.ModeComputer && eng.CurrentPlayer() == newGame.AIColor {
		reply := g.computerPly(m)
		reply.State = eng.BoardState()
		opening = &reply
	}
	g.mu.Unlock()

	if err := g.saveSlot(ctx, m); err != nil {
		g.log.Errorf("initial save slot for %s failed: %v", gameKeyPublic, err)
	}

	return gameKeyPublic, gameKeySecret, opening, nil
}

func (g *GameUseCase) JoinGame(ctx context.Context, gameKeyPublic string, userID string) (game.Game, error) {
	play, err := g.store.GetGameByPublicKey(ctx, gameKeyPublic)
	if err != nil {
		return game.Game{}, err
	}

	updatedGame, ok := g.store.AddPlayer(ctx, userID, play.GameKeySecret)
	if !ok {
		return game.Game{}, errors.ErrJoinGameFailed
	}

	g.mu.Lock()
	if m, found := g.matches[updatedGame.GameKeySecret]; found {
		m.meta = updatedGame
	}
	g.mu.Unlock()

	return updatedGame, nil
}

// ApplyMove plays one move (or pass) for the user and, in computer mode, the
// engine's reply. The returned outcome carries the resulting state snapshot
// and, once two passes end the game, the final score.
func (g *GameUseCase) ApplyMove(ctx context.Context, gameKey string, userID string, mv game.Move) (game.MoveOutcome, error) {
	m, err := g.matchByKey(ctx, gameKey)
	if err != nil {
		return game.MoveOutcome{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if m.meta.Status == statuses.StatusCompleted || m.eng.GameOver() {
		return game.MoveOutcome{}, errors.ErrGameFinished
	}

	color, err := g.colorOf(m, userID)
	if err != nil {
		return game.MoveOutcome{}, err
	}
	if m.eng.CurrentPlayer() != color {
		return game.MoveOutcome{}, errors.ErrNotYourTurn
	}

	outcome, err := applyPly(m.eng, color, mv)
	if err != nil {
		return game.MoveOutcome{}, err
	}

	if m.meta.Mode == game.ModeComputer && !outcome.GameEnd && m.eng.CurrentPlayer() == m.meta.AIColor {
		reply := g.computerPly(m)
		outcome.AIReply = &reply
		outcome.GameEnd = reply.GameEnd
	}

	if outcome.GameEnd {
		g.finishGame(ctx, m)
		score := m.eng.CalculateScore()
		outcome.Score = &score
	}

	outcome.State = m.eng.BoardState()
	if err := g.saveSlot(ctx, m); err != nil {
		g.log.Errorf("save slot for %s failed: %v", m.meta.GameKeyPublic, err)
	}
	return outcome, nil
}

func applyPly(eng *engine.Engine, color engine.Stone, mv game.Move) (game.MoveOutcome, error) {
	outcome := game.MoveOutcome{Move: mv, Player: color}
	if mv.Pass {
		outcome.GameEnd = eng.Pass(color)
		return outcome, nil
	}

	res, err := eng.MakeMove(mv.X, mv.Y, color)
	if err != nil {
		return game.MoveOutcome{}, err
	}
	outcome.Captured = res.Captured
	outcome.KoPoint = res.KoPoint
	return outcome, nil
}

// computerPly asks the selector for a reply and passes when it signals that
// no legal move exists.
func (g *GameUseCase) computerPly(m *match) game.MoveOutcome {
	color := m.meta.AIColor
	level := ai.Level(m.meta.AILevel)

	pt, ok := g.selector.SelectMove(m.eng, color, level)
	if !ok {
		end := m.eng.Pass(color)
		return game.MoveOutcome{Move: game.Move{Pass: true}, Player: color, GameEnd: end}
	}

	res, err := m.eng.MakeMove(pt.X, pt.Y, color)
	if err != nil {
		// The selector only proposes moves the engine validated; a rejection
		// here is an invariant break, not a game-rule event.
		g.log.Errorf("selector proposed illegal move (%d,%d): %v", pt.X, pt.Y, err)
		end := m.eng.Pass(color)
		return game.MoveOutcome{Move: game.Move{Pass: true}, Player: color, GameEnd: end}
	}
	return game.MoveOutcome{
		Move:     game.Move{X: pt.X, Y: pt.Y},
		Player:   color,
		Captured: res.Captured,
		KoPoint:  res.KoPoint,
	}
}

// PassTurn handles an explicit pass request outside the websocket move flow.
func (g *GameUseCase) PassTurn(ctx context.Context, gameKey string, userID string) (game.MoveOutcome, error) {
	return g.ApplyMove(ctx, gameKey, userID, game.Move{Pass: true})
}

// UndoMove rewinds the user's last decision. Against the computer this pops
// two plies (the reply and the user's move), even when the reply was a pass;
// in pvp it pops one.
func (g *GameUseCase) UndoMove(ctx context.Context, gameKey string, userID string) (engine.State, error) {
	m, err := g.matchByKey(ctx, gameKey)
	if err != nil {
		return engine.State{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.colorOf(m, userID); err != nil {
		return engine.State{}, err
	}

	if err := m.eng.UndoMove(); err != nil {
		return engine.State{}, err
	}
	if m.meta.Mode == game.ModeComputer {
		if err := m.eng.UndoMove(); err != nil {
			return engine.State{}, err
		}
	}

	state := m.eng.BoardState()
	if err := g.saveSlot(ctx, m); err != nil {
		g.log.Errorf("save slot for %s failed: %v", m.meta.GameKeyPublic, err)
	}
	return state, nil
}

// Resign ends the game immediately; the score is still computed for the
// record, the resignation itself decides the result.
func (g *GameUseCase) Resign(ctx context.Context, gameKey string, userID string) (game.GameResult, error) {
	m, err := g.matchByKey(ctx, gameKey)
	if err != nil {
		return game.GameResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	color, err := g.colorOf(m, userID)
	if err != nil {
		return game.GameResult{}, err
	}
	if m.meta.Status == statuses.StatusCompleted {
		return game.GameResult{}, errors.ErrGameFinished
	}

	result := game.GameResult{
		Score:    m.eng.CalculateScore(),
		Resigned: color.String(),
		EndedAt:  time.Now(),
	}
	result.Score.Winner = color.Opponent()
	m.meta.Status = statuses.StatusCompleted
	m.meta.Result = &result
	if err := g.store.MarkGameCompleted(ctx, m.meta.GameKeySecret, result); err != nil {
		return game.GameResult{}, err
	}
	delete(g.matches, m.meta.GameKeySecret)
	return result, nil
}

func (g *GameUseCase) Score(ctx context.Context, gameKey string) (engine.Score, error) {
	m, err := g.matchByKey(ctx, gameKey)
	if err != nil {
		return engine.Score{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return m.eng.CalculateScore(), nil
}

func (g *GameUseCase) ValidMoves(ctx context.Context, gameKey string, color engine.Stone) ([]engine.Point, error) {
	m, err := g.matchByKey(ctx, gameKey)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return m.eng.AllValidMoves(color), nil
}

func (g *GameUseCase) GameState(ctx context.Context, gameKey string) (engine.State, error) {
	m, err := g.matchByKey(ctx, gameKey)
	if err != nil {
		return engine.State{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return m.eng.BoardState(), nil
}

func (g *GameUseCase) GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error) {
	return g.store.GetGameByPublicKey(ctx, gameKeyPublic)
}

func (g *GameUseCase) GetGameBySecretKey(ctx context.Context, gameKey string) (game.Game, error) {
	m, err := g.matchByKey(ctx, gameKey)
	if err != nil {
		return game.Game{}, err
	}
	return m.meta, nil
}

func (g *GameUseCase) IsUserInGameByGameId(ctx context.Context, userID string, gameKey string) bool {
	play := g.store.GetGameByGameKey(ctx, gameKey)
	return play.PlayerWhite == userID || play.PlayerBlack == userID
}

func (g *GameUseCase) HasUserActiveGamesByUserId(ctx context.Context, userID string) (bool, error) {
	return g.store.HasUserActiveGameByUserId(ctx, userID)
}

func (g *GameUseCase) GetArchiveOfGames(ctx context.Context, pageNumber, year int) (*game.ArchiveResponse, error) {
	return g.store.GetArchiveGamesByYear(ctx, year, pageNumber)
}

func (g *GameUseCase) GetListOfArchiveYears(ctx context.Context) (*game.ArchiveYearsResponse, error) {
	return g.store.GetArchiveYears(ctx)
}

// matchByKey returns the cached running match or rebuilds it from the mongo
// document plus the redis save slot after a restart.
func (g *GameUseCase) matchByKey(ctx context.Context, gameKey string) (*match, error) {
	g.mu.Lock()
	if m, ok := g.matches[gameKey]; ok {
		g.mu.Unlock()
		return m, nil
	}
	g.mu.Unlock()

	meta := g.store.GetGameByGameKey(ctx, gameKey)
	if meta.GameKeySecret == "" {
		return nil, errors.ErrGameNotFound
	}

	eng := engine.New(meta.BoardSize)
	eng.SetKomi(meta.Komi)
	slot, err := g.store.LoadSlotFromRedis(ctx, gameKey)
	if err == nil {
		eng.LoadState(slot.State)
	} else {
		g.log.Warnf("no save slot for %s, starting from the stored metadata: %v", meta.GameKeyPublic, err)
	}

	m := &match{eng: eng, meta: meta}
	g.mu.Lock()
	// Completed games are served from this rebuilt snapshot but not cached,
	// so the running set holds live matches only.
	if meta.Status != statuses.StatusCompleted {
		g.matches[gameKey] = m
	}
	// A restart can land on the computer's turn (for example when no save slot
	// survived and the computer holds black); play its ply here so the match
	// is never parked waiting for a move only the arbiter can make.
	if meta.Mode == game.ModeComputer && meta.Status != statuses.StatusCompleted &&
		!m.eng.GameOver() && m.eng.CurrentPlayer() == meta.AIColor {
		reply := g.computerPly(m)
		if reply.GameEnd {
			g.finishGame(ctx, m)
		}
		if err := g.saveSlot(ctx, m); err != nil {
			g.log.Errorf("save slot for %s failed: %v", meta.GameKeyPublic, err)
		}
	}
	g.mu.Unlock()
	return m, nil
}

func (g *GameUseCase) colorOf(m *match, userID string) (engine.Stone, error) {
	switch userID {
	case m.meta.PlayerBlack:
		return engine.Black, nil
	case m.meta.PlayerWhite:
		return engine.White, nil
	}
	return engine.Empty, errors.ErrGameNotFound
}

func (g *GameUseCase) finishGame(ctx context.Context, m *match) {
	result := game.GameResult{
		Score:   m.eng.CalculateScore(),
		EndedAt: time.Now(),
	}
	m.meta.Status = statuses.StatusCompleted
	m.meta.Result = &result
	if err := g.store.MarkGameCompleted(ctx, m.meta.GameKeySecret, result); err != nil {
		g.log.Errorf("failed to archive finished game %s: %v", m.meta.GameKeyPublic, err)
	}
	// The match is archived; drop it from the running set so the cache does
	// not grow for the process lifetime. Callers that still hold m keep using
	// their reference.
	delete(g.matches, m.meta.GameKeySecret)
}

func (g *GameUseCase) saveSlot(ctx context.Context, m *match) error {
	playerColor := engine.Black
	if m.meta.Mode == game.ModeComputer && m.meta.AIColor == engine.Black {
		playerColor = engine.White
	}
	slot := game.SaveSlot{
		State:       m.eng.BoardState(),
		Mode:        m.meta.Mode,
		AIColor:     m.meta.AIColor,
		AILevel:     m.meta.AILevel,
		PlayerColor: playerColor,
		SavedAt:     time.Now(),
	}
	return g.store.SaveSlotToRedis(ctx, m.meta.GameKeySecret, slot)
}
