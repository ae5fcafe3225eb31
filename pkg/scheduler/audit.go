// Package scheduler 排班引擎门面
package scheduler

import (
	"sort"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/validator"
)

// Violation 方案审计发现的违规项
type Violation struct {
	TalentID  int64  `json:"talent_id"`
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"`
	Validator string `json:"validator"` // 拒绝的校验器名称，或 eligibility
	Message   string `json:"message"`
}

// Audit 独立复核一份方案
// 对每条分配按时间顺序重放全部硬性校验，历史作为上下文参与
// 返回空切片表示方案干净
func (e *Engine) Audit(frame *model.WeekFrame, plan model.Plan, windows map[int64]*model.AvailabilityWindow, history []*model.Assignment) []Violation {
	ordered := make(model.Plan, len(plan))
	copy(ordered, plan)
	ordered.Sort()

	history = e.trimHistory(frame, history)
	working := make([]*model.Assignment, len(history), len(history)+len(ordered))
	copy(working, history)

	pipeline := validator.DefaultPipeline(e.cfg.MinRest, e.cfg.MaxConsecutiveDays, e.cfg.CountHistoryInWeeklyHours)

	var violations []Violation
	for _, a := range ordered {
		if v := e.checkOne(pipeline, frame, a, windows, working); v != nil {
			violations = append(violations, *v)
		}

		// 无论是否违规都计入工作集，方案是既成事实
		working = append(working, a)
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].SlotID != violations[j].SlotID {
			return violations[i].SlotID < violations[j].SlotID
		}
		return violations[i].TalentID < violations[j].TalentID
	})
	return violations
}

// CheckAssignment 校验一条手工分配能否加入现有工作集
// working 为已落库的本周方案加裁剪后的历史，返回空切片表示可以分配
func (e *Engine) CheckAssignment(frame *model.WeekFrame, a *model.Assignment, windows map[int64]*model.AvailabilityWindow, working []*model.Assignment) []Violation {
	pipeline := validator.DefaultPipeline(e.cfg.MinRest, e.cfg.MaxConsecutiveDays, e.cfg.CountHistoryInWeeklyHours)

	// 现有分配先占上每日单班的标记
	for _, prev := range working {
		pipeline.Mark(validator.NewContext(prev.TalentID, prev.Shift, windows, nil, frame))
	}

	if v := e.checkOne(pipeline, frame, a, windows, working); v != nil {
		return []Violation{*v}
	}
	return nil
}

// checkOne 校验单条分配：先查资格，再过流水线，通过时记录提交标记
func (e *Engine) checkOne(pipeline validator.Pipeline, frame *model.WeekFrame, a *model.Assignment, windows map[int64]*model.AvailabilityWindow, working []*model.Assignment) *Violation {
	w := windows[a.TalentID]
	switch {
	case w == nil:
		return &Violation{
			TalentID:  a.TalentID,
			SlotID:    a.SlotID,
			Date:      a.Date(),
			Validator: "eligibility",
			Message:   "员工不在本周可用性集合中",
		}
	case !w.AllowsShift(a.Shift.ShiftName):
		return &Violation{
			TalentID:  a.TalentID,
			SlotID:    a.SlotID,
			Date:      a.Date(),
			Validator: "eligibility",
			Message:   "班段不在员工白名单内",
		}
	case !w.CoversSpan(a.Date(), a.Shift.Span()):
		return &Violation{
			TalentID:  a.TalentID,
			SlotID:    a.SlotID,
			Date:      a.Date(),
			Validator: "eligibility",
			Message:   "班次时间超出员工可用窗口",
		}
	}

	ctx := validator.NewContext(a.TalentID, a.Shift, windows, working, frame)
	if ok, rejectedBy := pipeline.CanAssign(ctx); !ok {
		return &Violation{
			TalentID:  a.TalentID,
			SlotID:    a.SlotID,
			Date:      a.Date(),
			Validator: rejectedBy,
			Message:   "违反硬性校验",
		}
	}
	pipeline.Mark(ctx)
	return nil
}
