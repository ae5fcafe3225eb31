// Package stats 提供排班方案的统计分析功能
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/lunban/lunban/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini        float64 `json:"workload_gini"`     // 工时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadStdDev      float64 `json:"workload_std_dev"`  // 工时标准差
	AvgHoursPerTalent   float64 `json:"avg_hours_per_talent"`
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`

	// 周末班分配公平性
	WeekendShiftGini float64 `json:"weekend_shift_gini"`

	// 员工级别统计（按工时降序）
	TalentStats []TalentStat `json:"talent_stats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// TalentStat 单个员工的方案统计
type TalentStat struct {
	TalentID      int64   `json:"talent_id"`
	Role          model.Role `json:"role"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	WeekendShifts int     `json:"weekend_shifts"`
	Utilization   float64 `json:"utilization"` // 已排工时占合同周工时的比例 (%)
	Deviation     float64 `json:"deviation"`   // 与平均工时的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析方案在员工间的分配公平性
// windows 提供角色和合同周工时，plan 之外的员工也计入（工时为0）
func (f *FairnessAnalyzer) Analyze(plan model.Plan, windows map[int64]*model.AvailabilityWindow) *FairnessMetrics {
	if len(windows) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	statMap := make(map[int64]*TalentStat, len(windows))
	for id, w := range windows {
		statMap[id] = &TalentStat{TalentID: id, Role: w.Role}
	}

	for _, a := range plan {
		stat, ok := statMap[a.TalentID]
		if !ok {
			stat = &TalentStat{TalentID: a.TalentID}
			statMap[a.TalentID] = stat
		}
		stat.TotalHours += a.WorkingHours()
		stat.ShiftCount++
		if isWeekend(a.Shift.Start) {
			stat.WeekendShifts++
		}
	}

	stats := make([]TalentStat, 0, len(statMap))
	hours := make([]float64, 0, len(statMap))
	weekend := make([]float64, 0, len(statMap))
	for _, stat := range statMap {
		if w, ok := windows[stat.TalentID]; ok && w.WeeklyHours > 0 {
			stat.Utilization = stat.TotalHours / w.WeeklyHours * 100
		}
		stats = append(stats, *stat)
		hours = append(hours, stat.TotalHours)
		weekend = append(weekend, float64(stat.WeekendShifts))
	}

	avg := mean(hours)
	stdDev := math.Sqrt(variance(hours, avg))
	maxH, minH := bounds(hours)

	for i := range stats {
		if avg > 0 {
			stats[i].Deviation = (stats[i].TotalHours - avg) / avg * 100
		}
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalHours != stats[j].TotalHours {
			return stats[i].TotalHours > stats[j].TotalHours
		}
		return stats[i].TalentID < stats[j].TalentID
	})

	workloadGini := gini(hours)
	weekendGini := gini(weekend)

	return &FairnessMetrics{
		WorkloadGini:         workloadGini,
		WorkloadStdDev:       stdDev,
		AvgHoursPerTalent:    avg,
		MaxHours:             maxH,
		MinHours:             minH,
		WeekendShiftGini:     weekendGini,
		TalentStats:          stats,
		OverallFairnessScore: overallScore(workloadGini, weekendGini, stdDev, avg),
	}
}

// isWeekend 判断班次是否落在周六或周日
func isWeekend(start time.Time) bool {
	wd := start.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func bounds(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 综合公平性评分
func overallScore(workloadGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.5
		weekendWeight  = 0.3
		stdDevWeight   = 0.2
	)

	workloadScore := (1 - workloadGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore + weekendWeight*weekendScore + stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}
