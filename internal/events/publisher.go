package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "skillschat:events:"

// Publisher fans chat events out over Redis Pub/Sub, one channel per user.
// Delivery transports (long-poll bridges, push gateways, other instances)
// subscribe to the recipient's channel; the chat itself never blocks on them.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish sends an event to the user's channel. Failures are logged, not
// returned: out-of-band notification is best-effort and must never fail a
// committed chat operation.
func (p *Publisher) Publish(ctx context.Context, userID uuid.UUID, event *model.ChatEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️  Error marshaling chat event: %v", err)
		return
	}
	if err := p.rdb.Publish(ctx, channelPrefix+userID.String(), data).Err(); err != nil {
		log.Printf("⚠️  Error publishing chat event: %v", err)
	}
}

// Channel returns the Pub/Sub channel name for a user, for subscribers.
func Channel(userID uuid.UUID) string {
	return channelPrefix + userID.String()
}
