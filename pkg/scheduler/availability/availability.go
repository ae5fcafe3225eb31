// Package availability 负责把约束规则物化为可用性窗口并建立资格索引
package availability

import (
	"github.com/lunban/lunban/pkg/model"
)

// Materializer 可用性物化器
// 把异构的白名单约束行折叠成 每员工 {日期 → 时间段} 窗口加班段白名单
type Materializer struct {
	frame *model.WeekFrame
}

// NewMaterializer 创建可用性物化器
func NewMaterializer(frame *model.WeekFrame) *Materializer {
	return &Materializer{frame: frame}
}

// Materialize 为全部员工构建可用性窗口
//
// 约束类型的折叠规则（全部是白名单语义）：
//   - availability:       加入该星期；班段白名单为空时放开全部班段
//   - shift restriction:  加入该班段；星期放开为整周
//   - combination:        加入该星期和该班段
//
// 无任何约束行的员工整周全班段可用
func (m *Materializer) Materialize(talents []*model.Talent, rules []*model.ConstraintRule) map[int64]*model.AvailabilityWindow {
	rulesByTalent := make(map[int64][]*model.ConstraintRule)
	for _, r := range rules {
		rulesByTalent[r.TalentID] = append(rulesByTalent[r.TalentID], r)
	}

	windows := make(map[int64]*model.AvailabilityWindow, len(talents))
	for _, t := range talents {
		windows[t.ID] = m.materializeOne(t, rulesByTalent[t.ID])
	}
	return windows
}

// materializeOne 折叠单个员工的约束行并展开窗口
func (m *Materializer) materializeOne(t *model.Talent, rules []*model.ConstraintRule) *model.AvailabilityWindow {
	days := make(map[string]bool)
	shifts := make(map[model.ShiftName]bool)

	constrained := t.Constrained && len(rules) > 0

	if constrained {
		for _, r := range rules {
			switch r.Kind {
			case model.ConstraintCombination:
				if r.Day != "" {
					days[r.Day] = true
				}
				if r.Shift != "" {
					shifts[r.Shift] = true
				}
			case model.ConstraintShiftRestriction:
				if r.Shift != "" {
					shifts[r.Shift] = true
				}
				for _, d := range model.AllDayNames() {
					days[d] = true
				}
			case model.ConstraintAvailability:
				if r.Day != "" {
					days[r.Day] = true
				}
				if len(shifts) == 0 {
					for _, s := range model.AllShiftNames() {
						shifts[s] = true
					}
				}
			}
		}
	}

	// 折叠后为空的维度放开为全量
	if len(days) == 0 {
		for _, d := range model.AllDayNames() {
			days[d] = true
		}
	}
	if len(shifts) == 0 {
		for _, s := range model.AllShiftNames() {
			shifts[s] = true
		}
	}

	window := make(map[string][]model.TimeRange)
	for _, dayName := range model.AllDayNames() {
		if !days[dayName] {
			continue
		}
		date, ok := m.frame.DateOf(dayName)
		if !ok {
			continue
		}
		key := date.Format(model.DateLayout)
		for _, name := range model.AllShiftNames() {
			if !shifts[name] {
				continue
			}
			span, ok := name.SpanOn(date)
			if !ok {
				continue
			}
			window[key] = append(window[key], span)
		}
	}

	return &model.AvailabilityWindow{
		TalentID:      t.ID,
		Role:          t.Role,
		WeeklyHours:   t.WeeklyHours,
		Constrained:   constrained,
		AllowedShifts: shifts,
		Window:        window,
	}
}
