package repo

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"goban/internal/bootstrap"
	"goban/internal/domain/game"
	errs "goban/internal/errors"
	"goban/internal/statuses"
)

type GameRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewGameRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *GameRepository {
	return &GameRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

// GenerateGameKeys makes a uuid secret key and a short public key derived
// from it. The public key is what players share to join.
func (g *GameRepository) GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string) {
	gameKeySecret = uuid.New().String()
	for {
		gameKeyPublic = generateHash(gameKeySecret)

		if g.CheckPublicKeyIsUniq(ctx, gameKeyPublic) {
			return gameKeySecret, gameKeyPublic
		}
		gameKeySecret = uuid.New().String()
	}
}

func generateHash(s string) string {
	h := md5.New()
	h.Write([]byte(s))
	hashBytes := h.Sum(nil)
	number := binary.BigEndian.Uint32(hashBytes[:4])
	code := number % 100000
	return fmt.Sprintf("%05d", code)
}

func (g *GameRepository) CheckPublicKeyIsUniq(ctx context.Context, gameKeyPublic string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := g.mongo.Collection("games")
	filter := bson.M{
		"game_key_public": gameKeyPublic,
	}
	err := collection.FindOne(ctx, filter).Err()
	return errors.Is(err, mongo.ErrNoDocuments)
}

func (g *GameRepository) PutGameToMongoDatabase(ctx context.Context, gameData game.Game) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")

	_, err := collection.InsertOne(ctx, gameData)
	if err != nil {
		g.log.Errorf("failed to insert game to database: %v", err)
		return false
	}

	g.log.Infof("game inserted successfully with key: %s", gameData.GameKeySecret)

	return true
}

// AddPlayer assigns userId the free color of the game with the given secret
// key and returns the updated document.
func (g *GameRepository) AddPlayer(ctx context.Context, userId string, gameKey string) (game.Game, bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")
	filter := bson.M{"game_key": gameKey}

	var current game.Game
	if err := collection.FindOne(ctx, filter).Decode(&current); err != nil {
		g.log.Errorf("game with key %s not found: %v", gameKey, err)
		return game.Game{}, false
	}

	update := bson.M{}
	switch {
	case current.PlayerBlack == "":
		update = bson.M{"$set": bson.M{"player_black": userId, "status": statuses.StatusActive}}
	case current.PlayerWhite == "":
		update = bson.M{"$set": bson.M{"player_white": userId, "status": statuses.StatusActive}}
	default:
		g.log.Errorf("game %s already has two players", gameKey)
		return game.Game{}, false
	}

	opts := options.Update().SetUpsert(false)
	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		g.log.Errorf("failed to update game in database: %v", err)
		return game.Game{}, false
	}

	var updatedGame game.Game
	if err := collection.FindOne(ctx, filter).Decode(&updatedGame); err != nil {
		g.log.Errorf("failed to reload updated game: %v", err)
		return game.Game{}, false
	}

	g.log.Infof("user %s added to game %s", userId, gameKey)

	return updatedGame, true
}

func (g *GameRepository) GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := g.mongo.Collection("games")
	filter := bson.M{
		"$and": []bson.M{
			{"game_key_public": gameKeyPublic},
			{"status": bson.M{"$ne": statuses.StatusCompleted}},
		},
	}

	foundGame := game.Game{}

	err := collection.FindOne(ctx, filter).Decode(&foundGame)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return foundGame, errs.ErrGameNotFound
	} else if err != nil {
		g.log.Error(err)
		return foundGame, err
	}

	return foundGame, nil
}

func (g *GameRepository) GetGameByGameKey(ctx context.Context, gameKey string) game.Game {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")
	filter := bson.M{"game_key": gameKey}

	var result game.Game
	err := collection.FindOne(ctx, filter).Decode(&result)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		g.log.Errorf("failed to load game %s: %v", gameKey, err)
	}

	return result
}

// MarkGameCompleted stores the final result and flips the status, so the game
// leaves the active set and shows up in the archive queries.
func (g *GameRepository) MarkGameCompleted(ctx context.Context, gameKey string, result game.GameResult) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")
	update := bson.M{"$set": bson.M{
		"status": statuses.StatusCompleted,
		"result": result,
	}}
	_, err := collection.UpdateOne(ctx, bson.M{"game_key": gameKey}, update)
	if err != nil {
		g.log.Errorf("failed to mark game %s completed: %v", gameKey, err)
		return err
	}
	return nil
}

func (g *GameRepository) HasUserActiveGameByUserId(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := g.mongo.Collection("games")
	filter := bson.M{
		"$and": []bson.M{
			{
				"$or": []bson.M{
					{"player_black": userID},
					{"player_white": userID},
				},
			},
			{
				"status": bson.M{
					"$ne": statuses.StatusCompleted,
				},
			},
		},
	}
	err := collection.FindOne(ctx, filter).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	} else if err != nil {
		g.log.Error(err)
		return false, err
	}

	return true, nil
}

// SaveSlotToRedis persists the match save slot as JSON under the secret key.
// A marshal or redis failure leaves whatever was stored before untouched.
func (g *GameRepository) SaveSlotToRedis(ctx context.Context, key string, slot game.SaveSlot) error {
	raw, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to encode save slot: %w", err)
	}
	if err := g.redis.Set(ctx, "slot:"+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to store save slot: %w", err)
	}
	return nil
}

func (g *GameRepository) LoadSlotFromRedis(ctx context.Context, key string) (game.SaveSlot, error) {
	var slot game.SaveSlot
	raw, err := g.redis.Get(ctx, "slot:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return slot, errs.ErrGameNotFound
		}
		return slot, fmt.Errorf("failed to load save slot: %w", err)
	}
	if err := json.Unmarshal(raw, &slot); err != nil {
		return slot, fmt.Errorf("failed to decode save slot: %w", err)
	}
	return slot, nil
}

// GetArchiveGamesByYear pages through completed games of a given year.
func (g *GameRepository) GetArchiveGamesByYear(ctx context.Context, year int, pageNum int) (*game.ArchiveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := int64(g.cfg.PageLimitGames)
	if limit <= 0 {
		limit = 20
	}
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	filter := bson.M{
		"status":     statuses.StatusCompleted,
		"created_at": bson.M{"$gte": from, "$lt": to},
	}

	collection := g.mongo.Collection("games")
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		g.log.Error(err)
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(pageNum-1) * limit).
		SetLimit(limit)
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		g.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	resp := &game.ArchiveResponse{
		Pages: int((total + limit - 1) / limit),
	}
	for cursor.Next(ctx) {
		var play game.Game
		if err := cursor.Decode(&play); err != nil {
			g.log.Error(err)
			return nil, err
		}
		resp.Games = append(resp.Games, play)
	}
	return resp, nil
}

func (g *GameRepository) GetArchiveYears(ctx context.Context) (*game.ArchiveYearsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")
	cursor, err := collection.Find(ctx, bson.M{"status": statuses.StatusCompleted})
	if err != nil {
		g.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	seen := make(map[int]bool)
	resp := &game.ArchiveYearsResponse{}
	for cursor.Next(ctx) {
		var play game.Game
		if err := cursor.Decode(&play); err != nil {
			g.log.Error(err)
			return nil, err
		}
		year := play.CreatedAt.Year()
		if !seen[year] {
			seen[year] = true
			resp.Years = append(resp.Years, year)
		}
	}
	return resp, nil
}
