package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const DefaultStream = "bridge:audit"

// RedisSink appends records to a Redis stream, one field per record
// attribute.
type RedisSink struct {
	client redis.Cmdable
	stream string
	maxLen int64
	log    zerolog.Logger
}

// NewRedisSink appends to stream; maxLen > 0 trims the stream approximately
// to that many entries.
func NewRedisSink(client redis.Cmdable, stream string, maxLen int64, log zerolog.Logger) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		log:    log.With().Str("component", "audit_redis").Logger(),
	}
}

func (s *RedisSink) Write(ctx context.Context, record Record) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"id":        record.ID,
			"timestamp": record.Timestamp.Format(time.RFC3339Nano),
			"userId":    record.UserID,
			"action":    record.Action,
			"subjectId": record.SubjectID,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to append audit record to %s: %w", s.stream, err)
	}
	s.log.Debug().Str("stream", s.stream).Str("entry", id).Msg("Audit record appended")
	return nil
}
