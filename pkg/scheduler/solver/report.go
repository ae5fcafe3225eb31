// Package solver 提供贪心排班构建器
package solver

import (
	"sort"

	"github.com/lunban/lunban/pkg/model"
)

// UnderstaffedReport 人手缺口报告
// 对比每个槽位的需求人数与实际分配数
func UnderstaffedReport(slots map[string]*model.ShiftSpec, plan model.Plan) []model.UnderstaffedEntry {
	assigned := make(map[string]int, len(slots))
	for _, a := range plan {
		assigned[a.SlotID]++
	}

	ids := make([]string, 0, len(slots))
	for id := range slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var entries []model.UnderstaffedEntry
	for _, id := range ids {
		spec := slots[id]
		got := assigned[id]
		if got >= spec.Required {
			continue
		}
		entries = append(entries, model.UnderstaffedEntry{
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
	return entries
}

// UnassignedSlots 返回完全没有任何分配的槽位
func UnassignedSlots(slots map[string]*model.ShiftSpec, plan model.Plan) []*model.ShiftSpec {
	assigned := make(map[string]bool, len(plan))
	for _, a := range plan {
		assigned[a.SlotID] = true
	}

	ids := make([]string, 0, len(slots))
	for id := range slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var unassigned []*model.ShiftSpec
	for _, id := range ids {
		if !assigned[id] {
			unassigned = append(unassigned, slots[id])
		}
	}
	return unassigned
}
