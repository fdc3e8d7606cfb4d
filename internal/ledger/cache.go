package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	vacancyKeyPrefix   = "vacancy:"
	reconcileKeyPrefix = "vacancy_reconcile:"
)

// Cache is the read-side vacancy cache. Directory listings overlay these
// counts onto query results; the TTL bounds how stale a displayed count can
// get. The authoritative check always happens again at apply time.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

func (c *Cache) SetVacancies(eventID string, vacancies int) error {
	key := vacancyKeyPrefix + eventID
	return c.Client.Set(context.Background(), key, vacancies, c.TTL).Err()
}

func (c *Cache) GetVacancies(eventID string) (int, bool, error) {
	key := vacancyKeyPrefix + eventID
	val, err := c.Client.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// GetVacanciesBatch returns cached counts for the given events. Events with
// no cached value are simply absent from the result.
func (c *Cache) GetVacanciesBatch(eventIDs []string) (map[string]int, error) {
	if len(eventIDs) == 0 {
		return map[string]int{}, nil
	}

	keys := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		keys[i] = vacancyKeyPrefix + id
	}

	vals, err := c.Client.MGet(context.Background(), keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string]int, len(eventIDs))
	for i, val := range vals {
		s, ok := val.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		result[eventIDs[i]] = n
	}
	return result, nil
}

// FlagReconcile marks an event whose compensating release failed. The flag
// has no TTL: it stays until an operator (or a sweep job) reconciles the
// count. Until then the count is conservatively low, never oversold.
func (c *Cache) FlagReconcile(eventID string) error {
	key := reconcileKeyPrefix + eventID
	return c.Client.Set(context.Background(), key, time.Now().UTC().Format(time.RFC3339), 0).Err()
}

func (c *Cache) IsFlaggedForReconcile(eventID string) (bool, error) {
	key := reconcileKeyPrefix + eventID
	_, err := c.Client.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) ClearReconcile(eventID string) error {
	key := reconcileKeyPrefix + eventID
	return c.Client.Del(context.Background(), key).Err()
}
