package repository

import (
	"context"
	"fmt"
	"strings"

	"victoria-bet/internal/shared/model"
)

// "match" 是 SQL 关键字，统一加引号（PostgreSQL 和 SQLite 均支持双引号标识符）
const forecastColumns = `id, league, "match", prediction, probability, risk_level, analysis, created_at, result`

func scanForecast(row interface{ Scan(...any) error }) (*model.Forecast, error) {
	f := &model.Forecast{}
	if err := row.Scan(&f.ID, &f.League, &f.Match, &f.Prediction,
		&f.Probability, &f.RiskLevel, &f.Analysis, &f.CreatedAt, &f.Result); err != nil {
		return nil, err
	}
	return f, nil
}

// ListForecasts 按创建时间倒序列出全部预测
func (s *Store) ListForecasts(ctx context.Context) ([]*model.Forecast, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+forecastColumns+` FROM forecasts ORDER BY created_at DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forecasts []*model.Forecast
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, err
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}

// CreateForecast 创建预测
func (s *Store) CreateForecast(ctx context.Context, f *model.Forecast) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO forecasts (`+forecastColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		f.ID, f.League, f.Match, f.Prediction, f.Probability,
		f.RiskLevel, f.Analysis, f.CreatedAt, f.Result,
	)
	return err
}

// UpdateForecast 部分更新预测
// 补丁为空或 id 不存在时为 no-op
func (s *Store) UpdateForecast(ctx context.Context, id string, patch *model.ForecastPatch) error {
	if patch == nil || patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	n := 1
	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}

	if patch.League != nil {
		set("league", *patch.League)
	}
	if patch.Match != nil {
		set(`"match"`, *patch.Match)
	}
	if patch.Prediction != nil {
		set("prediction", *patch.Prediction)
	}
	if patch.Probability != nil {
		set("probability", *patch.Probability)
	}
	if patch.RiskLevel != nil {
		set("risk_level", *patch.RiskLevel)
	}
	if patch.Analysis != nil {
		set("analysis", *patch.Analysis)
	}
	if patch.Result != nil {
		set("result", *patch.Result)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE forecasts SET %s WHERE id = $%d`, strings.Join(sets, ", "), n)
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

// DeleteForecast 删除预测
func (s *Store) DeleteForecast(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM forecasts WHERE id = $1`), id)
	return err
}
