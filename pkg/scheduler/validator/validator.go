// Package validator 定义排班硬性校验器接口与内置实现
package validator

import (
	"time"

	"github.com/lunban/lunban/pkg/model"
)

// Context 校验上下文：候选员工、目标班次和当前工作集的共享视图
type Context struct {
	TalentID     int64
	Shift        *model.ShiftSpec
	Availability map[int64]*model.AvailabilityWindow
	Working      []*model.Assignment // 含上周历史与本次已产生的分配
	Frame        *model.WeekFrame
}

// NewContext 创建校验上下文
func NewContext(talentID int64, shift *model.ShiftSpec, availability map[int64]*model.AvailabilityWindow, working []*model.Assignment, frame *model.WeekFrame) *Context {
	return &Context{
		TalentID:     talentID,
		Shift:        shift,
		Availability: availability,
		Working:      working,
		Frame:        frame,
	}
}

// assignmentOn 返回员工在某日历日上的分配，无则为 nil
func (c *Context) assignmentOn(day time.Time) *model.Assignment {
	key := day.Format(model.DateLayout)
	for _, a := range c.Working {
		if a.TalentID == c.TalentID && a.Date() == key {
			return a
		}
	}
	return nil
}

// Validator 硬性校验器
type Validator interface {
	// Name 返回校验器名称
	Name() string

	// CanAssign 判断能否进行该分配
	CanAssign(ctx *Context) bool
}

// Marker 带提交钩子的校验器
// 构建器在每次成功提交分配后必须调用 Mark
type Marker interface {
	Mark(ctx *Context)
}

// Pipeline 校验器流水线，全部通过才允许提交
type Pipeline []Validator

// DefaultPipeline 创建默认的四件套流水线
func DefaultPipeline(minRest time.Duration, maxConsecutiveDays int, countHistoryInWeeklyHours bool) Pipeline {
	return Pipeline{
		NewWeeklyHours(countHistoryInWeeklyHours),
		NewConsecutiveDays(maxConsecutiveDays),
		NewRest(minRest),
		NewOneShiftPerDay(),
	}
}

// CanAssign 依次执行全部校验器
// 返回首个失败的校验器名称，全部通过时返回空串
func (p Pipeline) CanAssign(ctx *Context) (bool, string) {
	for _, v := range p {
		if !v.CanAssign(ctx) {
			return false, v.Name()
		}
	}
	return true, ""
}

// Mark 在提交成功后通知所有带钩子的校验器
func (p Pipeline) Mark(ctx *Context) {
	for _, v := range p {
		if m, ok := v.(Marker); ok {
			m.Mark(ctx)
		}
	}
}
