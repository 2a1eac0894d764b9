package game

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goban/internal/adapters"
	"goban/internal/ai"
	"goban/internal/bootstrap"
	"goban/internal/delivery/auth"
	"goban/internal/domain/game"
	"goban/internal/engine"
	errs "goban/internal/errors"
	"goban/internal/httpresponse"
	repo "goban/internal/repository"
	gameuc "goban/internal/usecase/game"
	"goban/internal/utils"
)

type GameHandler struct {
	cfg         bootstrap.Config
	log         *zap.SugaredLogger
	gameUC      *gameuc.GameUseCase
	authHandler *auth.AuthHandler
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Live websocket connections per game, keyed by secret game key.
type liveGame struct {
	blackWS *websocket.Conn
	whiteWS *websocket.Conn
}

var activeConns = make(map[string]*liveGame)
var activeConnsMu sync.Mutex

func NewGameHandler(cfg bootstrap.Config, log *zap.SugaredLogger, mongoAdapter *adapters.AdapterMongo, redisAdapter *adapters.AdapterRedis, authHandler *auth.AuthHandler) *GameHandler {
	selector := ai.NewSelector(nil, cfg.AISimulationBudget)
	store := repo.NewGameRepository(cfg, log, redisAdapter.GetClient(), mongoAdapter.Database)
	return &GameHandler{
		cfg:         cfg,
		log:         log,
		gameUC:      gameuc.NewGameUseCase(store, log, selector),
		authHandler: authHandler,
	}
}

// writeRuleError maps engine rule violations to a 400 with the rejection
// reason; anything else is a 500.
func (g *GameHandler) writeRuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrOutOfRange),
		errors.Is(err, errs.ErrOccupied),
		errors.Is(err, errs.ErrKoViolation),
		errors.Is(err, errs.ErrSuicide),
		errors.Is(err, errs.ErrNothingToUndo),
		errors.Is(err, errs.ErrNotYourTurn),
		errors.Is(err, errs.ErrGameFinished),
		errors.Is(err, errs.ErrGameNotFound):
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
	default:
		g.log.Error(err)
		httpresponse.WriteInternalErrorResponse(w)
	}
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("Only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	userID := g.authHandler.GetUserID(w, r)
	if userID == "" {
		return
	}

	var req game.CreateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.BoardSize == 0 {
		req.BoardSize = g.cfg.DefaultBoardSize
	}
	if req.Komi == 0 {
		req.Komi = g.cfg.DefaultKomi
	}

	ctx := r.Context()

	alreadyInGame, err := g.gameUC.HasUserActiveGamesByUserId(ctx, userID)
	if err != nil {
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if alreadyInGame {
		g.log.Errorf("user %s already has an active game", userID)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "user already has an active game")
		return
	}

	publicKey, secretKey, opening, err := g.gameUC.CreateGame(ctx, req, userID)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}

	g.log.Infof("new game created with public key %s", publicKey)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, game.GameCreateResponse{
		PublicKey: publicKey,
		SecretKey: secretKey,
		Opening:   opening,
	})
}

func (g *GameHandler) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("Only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	userID := g.authHandler.GetUserID(w, r)
	if userID == "" {
		return
	}

	var req game.GameJoinRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.GameKey == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "game_key is required")
		return
	}

	ctx := r.Context()

	alreadyInGame, err := g.gameUC.HasUserActiveGamesByUserId(ctx, userID)
	if err != nil {
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if alreadyInGame {
		g.log.Errorf("user %s already has an active game", userID)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "user already has an active game")
		return
	}

	joined, err := g.gameUC.JoinGame(ctx, req.GameKey, userID)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}

	g.log.Infof("user %s joined game %s", userID, joined.GameKeyPublic)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, joined)
}

// HandleStartGame upgrades to a websocket and relays moves: every message is
// a move or pass, every answer is the move outcome (with the computer reply
// inlined in vs-computer games). The outcome is pushed to the opponent too.
func (g *GameHandler) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameKey := r.URL.Query().Get("game_id")
	playerID := g.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}

	if gameKey == "" {
		g.log.Error("game_id query parameter is missing")
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "game_id query parameter is missing")
		return
	}

	if !g.gameUC.IsUserInGameByGameId(ctx, playerID, gameKey) {
		g.log.Errorf("user %s is not in game %s", playerID, gameKey)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "user is not in this game")
		return
	}

	play, err := g.gameUC.GetGameBySecretKey(ctx, gameKey)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error:", err)
		return
	}

	activeConnsMu.Lock()
	lg, ok := activeConns[gameKey]
	if !ok {
		lg = &liveGame{}
		activeConns[gameKey] = lg
	}

	var playerWS, opponentWS **websocket.Conn
	switch playerID {
	case play.PlayerBlack:
		playerWS, opponentWS = &lg.blackWS, &lg.whiteWS
	case play.PlayerWhite:
		playerWS, opponentWS = &lg.whiteWS, &lg.blackWS
	default:
		activeConnsMu.Unlock()
		g.log.Error("unknown player id:", playerID)
		conn.Close()
		return
	}

	if *playerWS != nil {
		(*playerWS).WriteMessage(websocket.TextMessage, []byte("disconnected, a new connection replaced this one"))
		(*playerWS).Close()
	}
	*playerWS = conn
	activeConnsMu.Unlock()

	defer func() {
		conn.Close()
		activeConnsMu.Lock()
		if *playerWS == conn {
			*playerWS = nil
		}
		if lg.blackWS == nil && lg.whiteWS == nil {
			delete(activeConns, gameKey)
		}
		activeConnsMu.Unlock()
	}()

	for {
		var mv game.Move
		if err = conn.ReadJSON(&mv); err != nil {
			g.log.Error("read error:", err)
			return
		}

		outcome, err := g.gameUC.ApplyMove(ctx, gameKey, playerID, mv)
		if err != nil {
			conn.WriteJSON(httpresponse.ErrorResponse{ErrorDescription: err.Error()})
			continue
		}

		if err := conn.WriteJSON(outcome); err != nil {
			g.log.Error("write error:", err)
			return
		}

		activeConnsMu.Lock()
		opp := *opponentWS
		activeConnsMu.Unlock()
		if opp != nil {
			if err := opp.WriteJSON(outcome); err != nil {
				g.log.Error("write to opponent error:", err)
				activeConnsMu.Lock()
				opp.Close()
				if *opponentWS == opp {
					*opponentWS = nil
				}
				activeConnsMu.Unlock()
			}
		}

		if outcome.GameEnd {
			// Both sides got the final outcome; tear the game's connections
			// down so the registry does not keep finished games around.
			activeConnsMu.Lock()
			if lg.blackWS != nil {
				lg.blackWS.Close()
				lg.blackWS = nil
			}
			if lg.whiteWS != nil {
				lg.whiteWS.Close()
				lg.whiteWS = nil
			}
			delete(activeConns, gameKey)
			activeConnsMu.Unlock()
			return
		}
	}
}

func (g *GameHandler) HandlePass(w http.ResponseWriter, r *http.Request) {
	userID := g.authHandler.GetUserID(w, r)
	if userID == "" {
		return
	}
	gameKey := r.URL.Query().Get("game_id")

	outcome, err := g.gameUC.PassTurn(r.Context(), gameKey, userID)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, outcome)
}

func (g *GameHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	userID := g.authHandler.GetUserID(w, r)
	if userID == "" {
		return
	}
	gameKey := r.URL.Query().Get("game_id")

	state, err := g.gameUC.UndoMove(r.Context(), gameKey, userID)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleResign(w http.ResponseWriter, r *http.Request) {
	userID := g.authHandler.GetUserID(w, r)
	if userID == "" {
		return
	}
	gameKey := r.URL.Query().Get("game_id")

	result, err := g.gameUC.Resign(r.Context(), gameKey, userID)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, result)
}

func (g *GameHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	gameKey := r.URL.Query().Get("game_id")

	score, err := g.gameUC.Score(r.Context(), gameKey)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, score)
}

func (g *GameHandler) HandleValidMoves(w http.ResponseWriter, r *http.Request) {
	gameKey := r.URL.Query().Get("game_id")

	color := engine.Black
	if r.URL.Query().Get("color") == "white" {
		color = engine.White
	}

	moves, err := g.gameUC.ValidMoves(r.Context(), gameKey, color)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, moves)
}

func (g *GameHandler) HandleGameState(w http.ResponseWriter, r *http.Request) {
	gameKey := r.URL.Query().Get("game_id")

	state, err := g.gameUC.GameState(r.Context(), gameKey)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) GetGameById(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("Only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req game.GameJoinRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	play, err := g.gameUC.GetGameByPublicKey(r.Context(), req.GameKey)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, play)
}

func (g *GameHandler) HandleArchiveYears(w http.ResponseWriter, r *http.Request) {
	resp, err := g.gameUC.GetListOfArchiveYears(r.Context())
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleArchiveGames(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "year query parameter is invalid")
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	resp, err := g.gameUC.GetArchiveOfGames(r.Context(), page, year)
	if err != nil {
		g.writeRuleError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}
