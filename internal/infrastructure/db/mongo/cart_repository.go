package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/handmadehub/storefront/internal/core/domain"
)

const collectionCarts = "carts"

// cartDocument is the persisted shape of a session cart. Lines keep their
// insertion order in the array.
type cartDocument struct {
	SessionID string            `bson:"_id"`
	Lines     []domain.CartLine `bson:"lines"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// CartRepository persists session carts in the carts collection, keyed by
// session id. It implements ports.CartStorage.
type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(collectionCarts)}
}

// Load returns the session's persisted cart. An absent document decodes to
// an empty cart, never an error; so does a document whose lines fail to
// decode, matching the "malformed storage content is an empty cart" rule.
func (r *CartRepository) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res := r.col.FindOne(ctx, bson.M{"_id": sessionID})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Cart{}, nil
		}
		return nil, err
	}

	var doc cartDocument
	if err := res.Decode(&doc); err != nil {
		// Malformed document: treated as an empty cart, never fatal.
		return domain.Cart{}, nil
	}
	return domain.Cart(doc.Lines), nil
}

// Save upserts the full cart for the session (write-through).
func (r *CartRepository) Save(ctx context.Context, sessionID string, cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := cartDocument{
		SessionID: sessionID,
		Lines:     cart,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the session's cart document. Absent documents are a no-op.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}
