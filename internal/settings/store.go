package settings

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and writes per-user settings documents.
//
// Get never fails: when the document is absent or the store is unreachable it
// returns defaults so the bot keeps encoding. Writes report errors to the
// caller so the user sees them.
type Store interface {
	Get(ctx context.Context, userID int64) Settings
	SetQuality(ctx context.Context, userID int64, q Quality) error
	SetCustomName(ctx context.Context, userID int64, name string) error
	ClearCustomName(ctx context.Context, userID int64) error
	SetThumbnail(ctx context.Context, userID int64, fileID string) error
	ClearThumbnail(ctx context.Context, userID int64) error
}

// Mongo is the production Store, one document per user_id in the settings
// collection, all writes upserts keyed by user_id.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(client *mongo.Client, db string) *Mongo {
	return &Mongo{coll: client.Database(db).Collection("settings")}
}

func (m *Mongo) Get(ctx context.Context, userID int64) Settings {
	var s Settings
	err := m.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&s)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Err(err).Int64("uid", userID).Msg("settings read failed, using defaults")
		}
		return Defaults(userID)
	}
	return s.normalize()
}

func (m *Mongo) set(ctx context.Context, userID int64, fields bson.M) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *Mongo) unset(ctx context.Context, userID int64, field string) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$unset": bson.M{field: ""}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *Mongo) SetQuality(ctx context.Context, userID int64, q Quality) error {
	return m.set(ctx, userID, bson.M{"quality": q})
}

func (m *Mongo) SetCustomName(ctx context.Context, userID int64, name string) error {
	return m.set(ctx, userID, bson.M{"custom_name": name})
}

func (m *Mongo) ClearCustomName(ctx context.Context, userID int64) error {
	return m.unset(ctx, userID, "custom_name")
}

func (m *Mongo) SetThumbnail(ctx context.Context, userID int64, fileID string) error {
	return m.set(ctx, userID, bson.M{"thumbnail": fileID})
}

func (m *Mongo) ClearThumbnail(ctx context.Context, userID int64) error {
	return m.unset(ctx, userID, "thumbnail")
}
