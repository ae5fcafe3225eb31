// Package validator 定义排班硬性校验器接口与内置实现
package validator

import (
	"time"
)

// WeeklyHours 周工时上限校验
// countHistory 为 false 时只统计落在当前周内的分配，
// 上周历史不占用本周额度（否则连续在岗的员工会被锁死）
type WeeklyHours struct {
	countHistory bool
}

// NewWeeklyHours 创建周工时校验器
func NewWeeklyHours(countHistory bool) *WeeklyHours {
	return &WeeklyHours{countHistory: countHistory}
}

// Name 返回校验器名称
func (v *WeeklyHours) Name() string { return "weekly_hours" }

// CanAssign 检查分配后周工时是否仍在合同上限内
func (v *WeeklyHours) CanAssign(ctx *Context) bool {
	w, ok := ctx.Availability[ctx.TalentID]
	if !ok {
		return false
	}

	var used float64
	for _, a := range ctx.Working {
		if a.TalentID != ctx.TalentID {
			continue
		}
		if !v.countHistory && !ctx.Frame.Contains(a.Shift.Start) {
			continue
		}
		used += a.WorkingHours()
	}

	return used+ctx.Shift.DurationHours() <= w.WeeklyHours
}

// ConsecutiveDays 最大连续工作天数校验
// 工作集中的分配不保证按日期顺序出现，所以连续段要向前后两个方向延伸：
// 当天落在已有分配中间时会把两段接起来
type ConsecutiveDays struct {
	maxDays int
}

// NewConsecutiveDays 创建连续工作天数校验器
func NewConsecutiveDays(maxDays int) *ConsecutiveDays {
	return &ConsecutiveDays{maxDays: maxDays}
}

// Name 返回校验器名称
func (v *ConsecutiveDays) Name() string { return "consecutive_days" }

// CanAssign 检查分配后的连续段长度是否仍在上限内
func (v *ConsecutiveDays) CanAssign(ctx *Context) bool {
	streak := 1
	for day := ctx.Shift.Start.AddDate(0, 0, -1); ctx.assignmentOn(day) != nil; day = day.AddDate(0, 0, -1) {
		streak++
	}
	for day := ctx.Shift.Start.AddDate(0, 0, 1); ctx.assignmentOn(day) != nil; day = day.AddDate(0, 0, 1) {
		streak++
	}
	return streak <= v.maxDays
}

// Rest 班次间最小休息时间校验
// 相邻日历日的班次间隔都要够：既检查前一日收班到本班开工，
// 也检查本班收班到后一日开工（工作集不保证按日期顺序填入）
type Rest struct {
	minRest time.Duration
}

// NewRest 创建休息时间校验器
func NewRest(minRest time.Duration) *Rest {
	return &Rest{minRest: minRest}
}

// Name 返回校验器名称
func (v *Rest) Name() string { return "rest" }

// CanAssign 检查与前后相邻日班次的间隔是否满足最小休息时间
func (v *Rest) CanAssign(ctx *Context) bool {
	if prev := ctx.assignmentOn(ctx.Shift.Start.AddDate(0, 0, -1)); prev != nil {
		if ctx.Shift.Start.Sub(prev.Shift.End) < v.minRest {
			return false
		}
	}
	if next := ctx.assignmentOn(ctx.Shift.Start.AddDate(0, 0, 1)); next != nil {
		if next.Shift.Start.Sub(ctx.Shift.End) < v.minRest {
			return false
		}
	}
	return true
}

// OneShiftPerDay 每日单班校验（有状态）
// 构建器每次成功提交后调用 Mark 记录 (员工, 日期)
type OneShiftPerDay struct {
	assigned map[dayKey]bool
}

type dayKey struct {
	talentID int64
	date     string
}

// NewOneShiftPerDay 创建每日单班校验器
func NewOneShiftPerDay() *OneShiftPerDay {
	return &OneShiftPerDay{assigned: make(map[dayKey]bool)}
}

// Name 返回校验器名称
func (v *OneShiftPerDay) Name() string { return "one_shift_per_day" }

// CanAssign 检查员工当日是否已有标记
func (v *OneShiftPerDay) CanAssign(ctx *Context) bool {
	return !v.assigned[dayKey{ctx.TalentID, ctx.Shift.Date()}]
}

// Mark 标记员工当日已被分配
func (v *OneShiftPerDay) Mark(ctx *Context) {
	v.assigned[dayKey{ctx.TalentID, ctx.Shift.Date()}] = true
}
