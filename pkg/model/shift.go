// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"sort"
	"time"
)

// ShiftSpec 具体班次（模板 × 日期 × 岗位展开后的待填槽位）
type ShiftSpec struct {
	TemplateID int64     `json:"template_id"`
	PeriodID   int64     `json:"period_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ShiftName  ShiftName `json:"shift_name"`
	Role       Role      `json:"role"`
	Required   int       `json:"required"` // 需要的人数
}

// SlotID 返回班次实例标识
// 模式固定为 "{template_id}__{YYYY-MM-DD}__{period_id}__{role}"
func (s *ShiftSpec) SlotID() string {
	return fmt.Sprintf("%d__%s__%d__%s", s.TemplateID, s.Start.Format(DateLayout), s.PeriodID, s.Role)
}

// Date 返回班次所在日历日
func (s *ShiftSpec) Date() string {
	return s.Start.Format(DateLayout)
}

// DurationHours 返回班次时长（小时）
func (s *ShiftSpec) DurationHours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Span 返回班次的时间范围
func (s *ShiftSpec) Span() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// Assignment 排班分配，创建后不可变
type Assignment struct {
	TalentID int64      `json:"talent_id"`
	SlotID   string     `json:"slot_id"`
	Shift    *ShiftSpec `json:"shift"`
}

// Date 返回分配所在日历日
func (a *Assignment) Date() string {
	return a.Shift.Start.Format(DateLayout)
}

// WorkingHours 返回分配的工作时长（小时）
func (a *Assignment) WorkingHours() float64 {
	return a.Shift.DurationHours()
}

// Plan 一周排班方案（本次构建新产生的分配）
type Plan []*Assignment

// Sort 按 (日期, 槽位, 员工) 稳定排序
func (p Plan) Sort() {
	sort.SliceStable(p, func(i, j int) bool {
		if !p[i].Shift.Start.Equal(p[j].Shift.Start) {
			return p[i].Shift.Start.Before(p[j].Shift.Start)
		}
		if p[i].SlotID != p[j].SlotID {
			return p[i].SlotID < p[j].SlotID
		}
		return p[i].TalentID < p[j].TalentID
	})
}

// TotalHours 返回方案总工时
func (p Plan) TotalHours() float64 {
	var total float64
	for _, a := range p {
		total += a.WorkingHours()
	}
	return total
}

// UnderstaffedEntry 人手缺口条目
type UnderstaffedEntry struct {
	SlotID    string    `json:"slot_id"`
	ShiftName ShiftName `json:"shift_name"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Role      Role      `json:"role"`
	Required  int       `json:"required"`
	Assigned  int       `json:"assigned"`
	Missing   int       `json:"missing"`
}
