// Package staffing 提供人力配置解析与班次槽位展开
package staffing

import (
	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

// Expander 班次槽位展开器：周框架 × 班段目录 → 待填槽位集合
type Expander struct {
	resolver *Resolver
}

// NewExpander 创建槽位展开器
func NewExpander(resolver *Resolver) *Expander {
	if resolver == nil {
		resolver = NewResolver(nil, nil)
	}
	return &Expander{resolver: resolver}
}

// ExpandWeek 展开一周的全部班次槽位
// 返回 槽位ID → ShiftSpec；目录为空时返回 NO_PERIODS
func (e *Expander) ExpandWeek(frame *model.WeekFrame, periods []*model.Period, templates []*model.Template) (map[string]*model.ShiftSpec, error) {
	if len(periods) == 0 {
		return nil, errors.ErrNoPeriods
	}

	slots := make(map[string]*model.ShiftSpec)

	for _, date := range frame.Days() {
		dayName := date.Weekday().String()

		for _, period := range periods {
			demands, err := e.resolver.Resolve(dayName, period, templates)
			if err != nil {
				return nil, err
			}

			for role, demand := range demands {
				midnight := date
				spec := &model.ShiftSpec{
					TemplateID: demand.TemplateID,
					PeriodID:   period.ID,
					Start:      midnight.Add(demand.Template.ShiftStart),
					End:        midnight.Add(demand.Template.ShiftEnd),
					ShiftName:  period.Name,
					Role:       role,
					Required:   demand.Required,
				}
				slots[spec.SlotID()] = spec
			}
		}
	}

	return slots, nil
}
