package service

import (
	"context"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
)

// FiveStar 一次五星出货
type FiveStar struct {
	Name string `json:"name"`
	Time string `json:"time"`
	// Pulls 距上一个五星的抽数
	Pulls int `json:"pulls"`
}

// CategoryStats 单个卡池统计
type CategoryStats struct {
	Category  model.Category `json:"category"`
	Name      string         `json:"name"`
	Total     int            `json:"total"`
	FourStars int            `json:"four_stars"`
	FiveStars []FiveStar     `json:"five_stars"`
	// Pity 当前已垫抽数
	Pity int `json:"pity"`
}

// Stats 账号统计
type Stats struct {
	AccountID  string          `json:"uid"`
	Time       int64           `json:"time"`
	Categories []CategoryStats `json:"categories"`
}

// ComputeStats 从旧到新累计保底计数
func ComputeStats(logs model.Logs) []CategoryStats {
	out := make([]CategoryStats, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		cl := logs.Get(c)
		st := CategoryStats{Category: c, Name: c.Name(), Total: cl.Len(), FiveStars: []FiveStar{}}
		pity := 0
		for i := cl.Len() - 1; i >= 0; i-- {
			r := cl.At(i)
			pity++
			switch r.Rank() {
			case 5:
				st.FiveStars = append(st.FiveStars, FiveStar{Name: r.Name, Time: r.Time, Pulls: pity})
				pity = 0
			case 4:
				st.FourStars++
			}
		}
		st.Pity = pity
		out = append(out, st)
	}
	return out
}

// Stats 本地记录统计
func (s *GachaLogService) Stats(ctx context.Context, userID string) (*Stats, error) {
	view, err := s.GetLogs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		AccountID:  view.AccountID,
		Time:       view.Time,
		Categories: ComputeStats(view.Logs),
	}, nil
}
