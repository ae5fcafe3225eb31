// Package staffing 提供人力配置解析与班次槽位展开
package staffing

import (
	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

// Tier 人力需求档位
type Tier string

const (
	TierLow  Tier = "low"
	TierMed  Tier = "med"
	TierHigh Tier = "high"
)

// Table 岗位 × 档位 → 需求人数
type Table map[model.Role]map[Tier]int

// DefaultTable 返回默认人力配置表
func DefaultTable() Table {
	return Table{
		model.RoleManager:   {TierLow: 1, TierMed: 1, TierHigh: 1},
		model.RoleLeader:    {TierLow: 1, TierMed: 2, TierHigh: 3},
		model.RoleBartender: {TierLow: 1, TierMed: 2, TierHigh: 3},
		model.RoleServer:    {TierLow: 2, TierMed: 3, TierHigh: 4},
		model.RoleRunner:    {TierLow: 1, TierMed: 2, TierHigh: 3},
		model.RoleHostess:   {TierLow: 1, TierMed: 1, TierHigh: 2},
	}
}

// DefaultTierByDay 返回默认的星期 → 档位映射
// 周一/周二为低峰，周五至周日为高峰，其余为中档
func DefaultTierByDay() map[string]Tier {
	return map[string]Tier{
		"Monday":    TierLow,
		"Tuesday":   TierLow,
		"Wednesday": TierMed,
		"Thursday":  TierMed,
		"Friday":    TierHigh,
		"Saturday":  TierHigh,
		"Sunday":    TierHigh,
	}
}

// RoleDemand 单个岗位在某班段下的人力需求
type RoleDemand struct {
	Required   int
	ShiftName  model.ShiftName
	TemplateID int64
	Template   *model.Template
}

// Resolver 人力需求解析器
type Resolver struct {
	table     Table
	tierByDay map[string]Tier
}

// NewResolver 创建解析器，nil 参数使用默认表
func NewResolver(table Table, tierByDay map[string]Tier) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	if tierByDay == nil {
		tierByDay = DefaultTierByDay()
	}
	return &Resolver{table: table, tierByDay: tierByDay}
}

// TierFor 返回某星期的人力档位
func (r *Resolver) TierFor(dayName string) Tier {
	if t, ok := r.tierByDay[dayName]; ok {
		return t
	}
	return TierMed
}

// RequiredFor 返回岗位在指定档位下的需求人数
func (r *Resolver) RequiredFor(role model.Role, tier Tier) (int, error) {
	byTier, ok := r.table[role]
	if !ok {
		return 0, errors.UnknownRole(string(role))
	}
	return byTier[tier], nil
}

// Resolve 解析某星期下一个班段全部模板的人力需求
// 返回 岗位 → 需求，模板岗位不在配置表中时返回 UNKNOWN_ROLE
func (r *Resolver) Resolve(dayName string, period *model.Period, templates []*model.Template) (map[model.Role]*RoleDemand, error) {
	tier := r.TierFor(dayName)
	demands := make(map[model.Role]*RoleDemand, len(templates))

	for _, tpl := range templates {
		if tpl.PeriodID != period.ID {
			continue
		}
		count, err := r.RequiredFor(tpl.Role, tier)
		if err != nil {
			return nil, err
		}
		demands[tpl.Role] = &RoleDemand{
			Required:   count,
			ShiftName:  period.Name,
			TemplateID: tpl.ID,
			Template:   tpl,
		}
	}

	return demands, nil
}
