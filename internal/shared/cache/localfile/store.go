// Package localfile 本地文件缓存实现
//
// Redis 未配置时的回退：会话快照落在单个 JSON 文件中
// （对应原始系统的浏览器 localStorage），分析缓存仅驻留内存。
package localfile

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"victoria-bet/internal/shared/cache"
	"victoria-bet/internal/shared/model"
)

const sessionsFile = "vb_sessions.json"

// Store 文件缓存存储
type Store struct {
	mu       sync.Mutex
	path     string
	analyses map[string]analysisEntry
}

type analysisEntry struct {
	Text    string
	Sources []string
}

var _ cache.Cache = (*Store)(nil)

// NewStore 创建文件缓存，dir 为数据目录
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		path:     filepath.Join(dir, sessionsFile),
		analyses: make(map[string]analysisEntry),
	}, nil
}

// Close 无资源需要释放
func (s *Store) Close() error {
	return nil
}

// load 读取会话文件；缺失或损坏返回空表
func (s *Store) load() map[string]json.RawMessage {
	sessions := make(map[string]json.RawMessage)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return sessions
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("[cache] corrupt session file %s, treating as empty: %v", s.path, err)
		return make(map[string]json.RawMessage)
	}
	return sessions
}

func (s *Store) save(sessions map[string]json.RawMessage) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// SaveSession 保存会话快照
func (s *Store) SaveSession(_ context.Context, accountID string, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	sessions := s.load()
	sessions[accountID] = raw
	return s.save(sessions)
}

// LoadSession 读取会话快照；缺失或损坏返回 (nil, nil)
func (s *Store) LoadSession(_ context.Context, accountID string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.load()[accountID]
	if !ok {
		return nil, nil
	}
	var a model.Account
	if err := json.Unmarshal(raw, &a); err != nil {
		log.Printf("[cache] corrupt session for %s, treating as absent: %v", accountID, err)
		return nil, nil
	}
	return &a, nil
}

// DeleteSession 删除会话快照
func (s *Store) DeleteSession(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.load()
	if _, ok := sessions[accountID]; !ok {
		return nil
	}
	delete(sessions, accountID)
	return s.save(sessions)
}

// SaveAnalysis 缓存分析文本（仅内存）
func (s *Store) SaveAnalysis(_ context.Context, forecastID, text string, sources []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[forecastID] = analysisEntry{Text: text, Sources: sources}
	return nil
}

// LoadAnalysis 读取缓存的分析文本
func (s *Store) LoadAnalysis(_ context.Context, forecastID string) (string, []string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.analyses[forecastID]
	return e.Text, e.Sources, ok
}
