// Package model 定义排班引擎的核心数据模型
package model

// Talent 可排班员工
type Talent struct {
	ID          int64   `json:"id" db:"talent_id"`
	Name        string  `json:"name,omitempty" db:"name"`
	Role        Role    `json:"role" db:"role"`
	WeeklyHours float64 `json:"weekly_hours" db:"weekly_hours"` // 合同周工时上限
	Constrained bool    `json:"constrained" db:"constrained"`   // 是否带显式约束
}

// ConstraintKind 约束类型
// 所有约束都是白名单：管理员勾选的是员工「能做什么」，而不是不能做什么
type ConstraintKind string

const (
	// ConstraintAvailability 管理员勾选员工的工作日（可做全部班段）
	ConstraintAvailability ConstraintKind = "availability"
	// ConstraintShiftRestriction 管理员勾选员工可做的班段（全周可用）
	ConstraintShiftRestriction ConstraintKind = "shift restriction"
	// ConstraintCombination 管理员勾选精确的 星期+班段 组合
	ConstraintCombination ConstraintKind = "combination"
)

// ConstraintRule 员工约束行
type ConstraintRule struct {
	TalentID int64          `json:"talent_id" db:"talent_id"`
	Kind     ConstraintKind `json:"kind" db:"constraint_type"`
	Day      string         `json:"day,omitempty" db:"available_day"`      // 星期全名，如 "Monday"
	Shift    ShiftName      `json:"shift,omitempty" db:"available_shifts"` // 班段名称
}

// AvailabilityWindow 员工可用性窗口（约束规则的物化视图）
type AvailabilityWindow struct {
	TalentID      int64                  `json:"talent_id"`
	Role          Role                   `json:"role"`
	WeeklyHours   float64                `json:"weekly_hours"`
	Constrained   bool                   `json:"constrained"`
	AllowedShifts map[ShiftName]bool     `json:"allowed_shifts"`
	Window        map[string][]TimeRange `json:"window"` // 日期(YYYY-MM-DD) → 可用时间段
}

// AllowsShift 检查班段是否在白名单内
func (w *AvailabilityWindow) AllowsShift(name ShiftName) bool {
	return w.AllowedShifts[name]
}

// CoversSpan 检查某日期的窗口是否有时间段完整覆盖给定范围
func (w *AvailabilityWindow) CoversSpan(date string, span TimeRange) bool {
	for _, r := range w.Window[date] {
		if r.Covers(span) {
			return true
		}
	}
	return false
}
