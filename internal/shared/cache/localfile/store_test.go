package localfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victoria-bet/internal/shared/model"
)

func TestSessionRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	a := &model.Account{ID: "usr-1", Email: "a@x.ao", IsActive: true}
	require.NoError(t, s.SaveSession(ctx, "usr-1", a))

	got, err := s.LoadSession(ctx, "usr-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@x.ao", got.Email)
	assert.True(t, got.IsActive)
}

func TestSessionMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	got, err := s.LoadSession(context.Background(), "ninguem")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionDelete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "usr-1", &model.Account{ID: "usr-1"}))
	require.NoError(t, s.DeleteSession(ctx, "usr-1"))

	got, err := s.LoadSession(ctx, "usr-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// 删除不存在的会话不是错误
	require.NoError(t, s.DeleteSession(ctx, "usr-1"))
}

func TestCorruptSessionFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionsFile), []byte("{corrupted"), 0o644))

	s, err := NewStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	// 损坏文件按空表处理，不是错误
	got, err := s.LoadSession(ctx, "usr-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// 写入后恢复可用
	require.NoError(t, s.SaveSession(ctx, "usr-1", &model.Account{ID: "usr-1"}))
	got, err = s.LoadSession(ctx, "usr-1")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestCorruptSessionEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionsFile),
		[]byte(`{"usr-1": "not-an-account"}`), 0o644))

	s, err := NewStore(dir)
	require.NoError(t, err)

	// 单条损坏按不存在处理
	got, err := s.LoadSession(context.Background(), "usr-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnalysisCache(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, _, ok := s.LoadAnalysis(ctx, "tip-01")
	assert.False(t, ok)

	require.NoError(t, s.SaveAnalysis(ctx, "tip-01", "análise completa", []string{"https://x.com"}))

	text, sources, ok := s.LoadAnalysis(ctx, "tip-01")
	assert.True(t, ok)
	assert.Equal(t, "análise completa", text)
	assert.Equal(t, []string{"https://x.com"}, sources)
}
