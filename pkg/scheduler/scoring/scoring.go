// Package scoring 提供候选人适配度打分与轮转选取
package scoring

import (
	"time"

	"github.com/lunban/lunban/pkg/model"
)

// Weights 打分权重
type Weights struct {
	WorkStreak  float64 // 近6天工作天数的扣分系数
	RestStreak  float64 // 近6天休息天数的加分系数
	RestPenalty float64 // 与前一日班次间隔不足时的一次性扣分
	MinRest     time.Duration
}

// DefaultWeights 返回默认权重
func DefaultWeights() Weights {
	return Weights{
		WorkStreak:  2,
		RestStreak:  2,
		RestPenalty: 5,
		MinRest:     11 * time.Hour,
	}
}

// Scorer 适配度打分器
// 综合剩余周工时、近期工作/休息节奏与休息间隔惩罚，分数越高越适合
type Scorer struct {
	shift        *model.ShiftSpec
	availability map[int64]*model.AvailabilityWindow
	working      []*model.Assignment
	weights      Weights
}

// NewScorer 为单个班次创建打分器
func NewScorer(shift *model.ShiftSpec, availability map[int64]*model.AvailabilityWindow, working []*model.Assignment, weights Weights) *Scorer {
	return &Scorer{
		shift:        shift,
		availability: availability,
		working:      working,
		weights:      weights,
	}
}

// Score 计算单个候选人的适配度分数
func (s *Scorer) Score(talentID int64) float64 {
	var score float64

	// 剩余周工时：余量越大越优先
	var assigned float64
	for _, a := range s.working {
		if a.TalentID == talentID {
			assigned += a.WorkingHours()
		}
	}
	if w, ok := s.availability[talentID]; ok {
		score += w.WeeklyHours - assigned
	}

	// 近6天的工作/休息节奏
	currentDay := s.shift.Start
	workStreak := 1
	restStreak := 0
	for delta := 1; delta <= 6; delta++ {
		prevDay := currentDay.AddDate(0, 0, -delta).Format(model.DateLayout)
		worked := false
		for _, a := range s.working {
			if a.TalentID == talentID && a.Date() == prevDay {
				worked = true
				break
			}
		}
		if worked {
			workStreak++
		} else {
			restStreak++
		}
	}
	score -= float64(workStreak) * s.weights.WorkStreak
	score += float64(restStreak) * s.weights.RestStreak

	// 与前一日班次间隔不足的惩罚
	yesterday := currentDay.AddDate(0, 0, -1).Format(model.DateLayout)
	for _, a := range s.working {
		if a.TalentID == talentID && a.Date() == yesterday {
			if s.shift.Start.Sub(a.Shift.End) < s.weights.MinRest {
				score -= s.weights.RestPenalty
			}
			break
		}
	}

	return score
}

// Top 返回并列最高分的候选人，保持传入顺序
func (s *Scorer) Top(candidates []int64) []int64 {
	if len(candidates) == 0 {
		return nil
	}

	scores := make(map[int64]float64, len(candidates))
	top := s.Score(candidates[0])
	scores[candidates[0]] = top
	for _, id := range candidates[1:] {
		sc := s.Score(id)
		scores[id] = sc
		if sc > top {
			top = sc
		}
	}

	var tops []int64
	for _, id := range candidates {
		if scores[id] == top {
			tops = append(tops, id)
		}
	}
	return tops
}
