package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ i.GameArchive = &GameArchive{}

// GameArchive persists finished games.
type GameArchive struct {
	collection *mongo.Collection
}

// NewGameArchive creates a GameArchive with the given MongoDB client, database name, and collection name.
func NewGameArchive(client *mongo.Client, dbName, collectionName string) *GameArchive {
	collection := client.Database(dbName).Collection(collectionName)
	return &GameArchive{
		collection: collection,
	}
}

// Save inserts the game, replacing an earlier copy of the same game.
func (a *GameArchive) Save(ctx context.Context, state *game.GameState) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": state.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := a.collection.ReplaceOne(ctx, filter, state, opts); err != nil {
		return fmt.Errorf("unexpected error: %w", err)
	}
	return nil
}

// ByID retrieves an archived game. Archived states carry no maze, only its layout.
func (a *GameArchive) ByID(ctx context.Context, id uuid.UUID) (*game.GameState, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": id}
	var state game.GameState
	if err := a.collection.FindOne(ctx, filter).Decode(&state); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: archived game %s", game.ErrNotFound, id)
		}
		return nil, fmt.Errorf("unexpected error: %w", err)
	}
	return &state, nil
}
