package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	attendeeChannelPrefix = "agrimech:attendees:"
	publishTimeout        = 5 * time.Second
)

// attendeeMessage is what goes over the Redis channel for one webinar's seat count.
type attendeeMessage struct {
	WebinarID uuid.UUID `json:"webinar_id"`
	Count     int       `json:"count"`
	Max       *int      `json:"max,omitempty"`
	At        time.Time `json:"at"`
}

func attendeeChannel(webinarID uuid.UUID) string {
	return attendeeChannelPrefix + webinarID.String()
}

// RedisPubSub shares attendee counts between server instances, one channel per webinar.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates the Redis bridge for attendee counts.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PublishAttendeeCount sends a webinar's current count to every subscribed instance.
func (r *RedisPubSub) PublishAttendeeCount(webinarID uuid.UUID, count AttendeeCount) error {
	body, err := json.Marshal(attendeeMessage{
		WebinarID: webinarID,
		Count:     count.Count,
		Max:       count.Max,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal attendee count: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, attendeeChannel(webinarID), body).Err(); err != nil {
		return fmt.Errorf("publish attendee count: %w", err)
	}
	return nil
}

// SubscribeAttendeeCounts calls handler for every count published for the webinar until cancel
// is called. Messages for another webinar or that fail to decode are dropped.
func (r *RedisPubSub) SubscribeAttendeeCounts(webinarID uuid.UUID, handler func(AttendeeCount)) (cancel func(), err error) {
	channel := attendeeChannel(webinarID)
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m attendeeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					r.logger.Warn("invalid attendee count message", zap.Error(err), zap.String("channel", channel))
					continue
				}
				if m.WebinarID != webinarID {
					continue
				}
				handler(AttendeeCount{Count: m.Count, Max: m.Max})
			}
		}
	}()
	return cancelCtx, nil
}
