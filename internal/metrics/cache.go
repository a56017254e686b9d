package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Service) cacheKey(accountID uuid.UUID, entityType string, entityID int64, from, to time.Time) string {
	return fmt.Sprintf("metrics:v1:%s:%s:%d:%s:%s",
		accountID, entityType, entityID,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// cacheGet returns a cached report. Any Redis failure is treated as a
// miss so a cache outage degrades to DB reads.
func (s *Service) cacheGet(ctx context.Context, key string) (*Report, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		s.logger.Printf("bad cache entry %s: %v", key, err)
		return nil, false
	}
	return &r, true
}

func (s *Service) cacheSet(ctx context.Context, key string, r *Report) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Printf("cache write failed for %s: %v", key, err)
	}
}
