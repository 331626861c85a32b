package storage

import (
	"time"

	"victoria-bet/internal/shared/model"
)

// SeedForecasts 本地回退库的固定初始预测集
//
// 回退库首次读取为空时写入并返回，保证仪表盘永远不为空。
func SeedForecasts(now time.Time) []*model.Forecast {
	return []*model.Forecast{
		{
			ID:          "tip-01",
			League:      "Champions League",
			Match:       "Qarabag vs Newcastle",
			Prediction:  "Mais de 1.5 Golos",
			Probability: 88,
			RiskLevel:   model.RiskLow,
			Analysis:    "Tendência ofensiva forte de ambas as equipas.",
			CreatedAt:   now,
		},
		{
			ID:          "tip-02",
			League:      "Champions League",
			Match:       "Olympiacos vs Leverkusen",
			Prediction:  "Leverkusen: Mais de 0.5 Golos",
			Probability: 92,
			RiskLevel:   model.RiskLow,
			Analysis:    "Leverkusen em forma excepcional nesta temporada.",
			CreatedAt:   now,
		},
		{
			ID:          "tip-03",
			League:      "Champions League",
			Match:       "Club Brugge vs Atl. Madrid",
			Prediction:  "Mais de 1.5 Golos",
			Probability: 84,
			RiskLevel:   model.RiskMedium,
			Analysis:    "Histórico recente de confrontos com média alta de golos.",
			CreatedAt:   now,
		},
		{
			ID:          "tip-04",
			League:      "Champions League",
			Match:       "Bodo/Glimt vs Inter",
			Prediction:  "HT (1ª Parte): Mais de 0.5 Golos",
			Probability: 79,
			RiskLevel:   model.RiskMedium,
			Analysis:    "Equipas que costumam entrar com intensidade máxima nos primeiros 45 minutos.",
			CreatedAt:   now,
		},
	}
}
