package depthsnapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	orderbookv1 "github.com/sora-xor/sora2-network-sub000/internal/domain/orderbook/v1"
	errorsPkg "github.com/sora-xor/sora2-network-sub000/pkg/errors"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
	"github.com/sora-xor/sora2-network-sub000/pkg/redis"
)

// Snapshot is the rendered depth of one book at one point in time.
type Snapshot struct {
	BookID    orderbookv1.OrderBookID   `json:"bookId"`
	Bids      []orderbookv1.PriceVolume `json:"bids"`
	Asks      []orderbookv1.PriceVolume `json:"asks"`
	UpdatedAt int64                     `json:"updatedAt"`
}

// Store publishes depth snapshots to Redis so read-side consumers never
// touch the matching path.
type Store struct {
	redisclient redis.Client
	logger      logger.Interface
}

// NewStore creates a snapshot store over the Redis client.
func NewStore(redisclient redis.Client, log logger.Interface) *Store {
	return &Store{
		redisclient: redisclient,
		logger:      log,
	}
}

func snapshotKey(bookID orderbookv1.OrderBookID) string {
	return fmt.Sprintf("depth:%s", bookID)
}

// Store serializes and stores the snapshot under the book's key.
func (s *Store) Store(ctx context.Context, snapshot *Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		return errorsPkg.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, snapshotKey(snapshot.BookID), buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "book",
			Value: snapshot.BookID.String(),
		})
		return errorsPkg.NewTracer("snapshot_store_error").Wrap(err)
	}
	return nil
}

// Load reads the latest snapshot of a book. A missing snapshot yields nil.
func (s *Store) Load(ctx context.Context, bookID orderbookv1.OrderBookID) (*Snapshot, error) {
	data, err := s.redisclient.Get(ctx, snapshotKey(bookID))
	if err != nil {
		return nil, errorsPkg.NewTracer("snapshot_load_error").Wrap(err)
	}
	if data == "" {
		return nil, nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, errorsPkg.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}
	return &snapshot, nil
}

// NewSnapshot stamps a depth snapshot with the current time.
func NewSnapshot(bookID orderbookv1.OrderBookID, bids, asks []orderbookv1.PriceVolume) *Snapshot {
	return &Snapshot{
		BookID:    bookID,
		Bids:      bids,
		Asks:      asks,
		UpdatedAt: time.Now().UnixMilli(),
	}
}
