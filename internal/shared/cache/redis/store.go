// Package redis Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"victoria-bet/internal/shared/cache"
	"victoria-bet/internal/shared/model"
)

const (
	keySession  = "vb:session:%s"  // accountID
	keyAnalysis = "vb:analysis:%s" // forecastID

	sessionTTL  = 30 * 24 * time.Hour
	analysisTTL = 15 * time.Minute
)

// Store Redis 缓存存储
type Store struct {
	client *redis.Client
}

var _ cache.Cache = (*Store)(nil)

// NewStoreFromURL 从 URL 创建 Redis 缓存实例
func NewStoreFromURL(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Cache] Connected to %s", opts.Addr)
	return &Store{client: client}, nil
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// ============================================================================
// 会话快照
// ============================================================================

// SaveSession 序列化并保存会话快照
func (s *Store) SaveSession(ctx context.Context, accountID string, a *model.Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(keySession, accountID), data, sessionTTL).Err()
}

// LoadSession 读取会话快照；缺失或损坏返回 (nil, nil)
func (s *Store) LoadSession(ctx context.Context, accountID string) (*model.Account, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(keySession, accountID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a model.Account
	if err := json.Unmarshal(data, &a); err != nil {
		log.Printf("[Redis/Cache] corrupt session for %s, treating as absent: %v", accountID, err)
		return nil, nil
	}
	return &a, nil
}

// DeleteSession 删除会话快照
func (s *Store) DeleteSession(ctx context.Context, accountID string) error {
	return s.client.Del(ctx, fmt.Sprintf(keySession, accountID)).Err()
}

// ============================================================================
// 分析缓存
// ============================================================================

type analysisEntry struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
}

// SaveAnalysis 缓存分析文本
func (s *Store) SaveAnalysis(ctx context.Context, forecastID, text string, sources []string) error {
	data, err := json.Marshal(analysisEntry{Text: text, Sources: sources})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(keyAnalysis, forecastID), data, analysisTTL).Err()
}

// LoadAnalysis 读取缓存的分析文本
func (s *Store) LoadAnalysis(ctx context.Context, forecastID string) (string, []string, bool) {
	data, err := s.client.Get(ctx, fmt.Sprintf(keyAnalysis, forecastID)).Bytes()
	if err != nil {
		return "", nil, false
	}
	var e analysisEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", nil, false
	}
	return e.Text, e.Sources, true
}
