// Package stats 提供排班方案的统计分析功能
package stats

import (
	"sort"

	"github.com/lunban/lunban/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 整体覆盖情况（按人头而非槽位计）
	RequiredHeadcount int     `json:"required_headcount"` // 需求总人次
	AssignedHeadcount int     `json:"assigned_headcount"` // 已分配人次
	OverallCoverage   float64 `json:"overall_coverage"`   // 整体覆盖率 (%)

	// 槽位维度
	TotalSlots  int `json:"total_slots"`  // 总槽位数
	FilledSlots int `json:"filled_slots"` // 完全填满的槽位数
	EmptySlots  int `json:"empty_slots"`  // 完全无人的槽位数

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按班段统计
	ShiftCoverage map[model.ShiftName]float64 `json:"shift_coverage"`

	// 按岗位统计
	RoleCoverage map[model.Role]float64 `json:"role_coverage"`

	// 人手缺口明细
	Understaffed []model.UnderstaffedEntry `json:"understaffed"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	Required     int     `json:"required"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"`
}

// CoverageAnalyzer 覆盖率分析器
// 对比槽位需求人数与方案分配人数
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析一周方案的覆盖率
func (c *CoverageAnalyzer) Analyze(slots map[string]*model.ShiftSpec, plan model.Plan) *CoverageMetrics {
	m := &CoverageMetrics{
		DailyCoverage: make(map[string]DayCoverage),
		ShiftCoverage: make(map[model.ShiftName]float64),
		RoleCoverage:  make(map[model.Role]float64),
	}
	if len(slots) == 0 {
		m.OverallCoverage = 100
		return m
	}

	assignedBySlot := make(map[string]int, len(slots))
	for _, a := range plan {
		assignedBySlot[a.SlotID]++
	}

	dailyRequired := make(map[string]int)
	dailyAssigned := make(map[string]int)
	dailyHours := make(map[string]float64)
	shiftRequired := make(map[model.ShiftName]int)
	shiftAssigned := make(map[model.ShiftName]int)
	roleRequired := make(map[model.Role]int)
	roleAssigned := make(map[model.Role]int)

	ids := make([]string, 0, len(slots))
	for id := range slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		spec := slots[id]
		got := assignedBySlot[id]
		if got > spec.Required {
			got = spec.Required
		}

		m.TotalSlots++
		m.RequiredHeadcount += spec.Required
		m.AssignedHeadcount += got
		if got >= spec.Required {
			m.FilledSlots++
		}
		if got == 0 {
			m.EmptySlots++
		}
		if got < spec.Required {
			m.Understaffed = append(m.Understaffed, model.UnderstaffedEntry{
				SlotID:    id,
				ShiftName: spec.ShiftName,
				Start:     spec.Start,
				End:       spec.End,
				Role:      spec.Role,
				Required:  spec.Required,
				Assigned:  got,
				Missing:   spec.Required - got,
			})
		}

		date := spec.Date()
		dailyRequired[date] += spec.Required
		dailyAssigned[date] += got
		dailyHours[date] += float64(got) * spec.DurationHours()

		shiftRequired[spec.ShiftName] += spec.Required
		shiftAssigned[spec.ShiftName] += got

		roleRequired[spec.Role] += spec.Required
		roleAssigned[spec.Role] += got
	}

	if m.RequiredHeadcount > 0 {
		m.OverallCoverage = float64(m.AssignedHeadcount) / float64(m.RequiredHeadcount) * 100
	}

	for date, required := range dailyRequired {
		day := DayCoverage{
			Date:       date,
			Required:   required,
			Assigned:   dailyAssigned[date],
			TotalHours: dailyHours[date],
		}
		if required > 0 {
			day.CoverageRate = float64(day.Assigned) / float64(required) * 100
		}
		m.DailyCoverage[date] = day
	}

	for name, required := range shiftRequired {
		if required > 0 {
			m.ShiftCoverage[name] = float64(shiftAssigned[name]) / float64(required) * 100
		}
	}

	for role, required := range roleRequired {
		if required > 0 {
			m.RoleCoverage[role] = float64(roleAssigned[role]) / float64(required) * 100
		}
	}

	return m
}
