// Package availability 负责把约束规则物化为可用性窗口并建立资格索引
package availability

import (
	"sort"

	"github.com/lunban/lunban/pkg/model"
)

// Indexer 资格索引器
// 为每个班次槽位产出有资格的员工ID列表，带约束的员工排在前面
type Indexer struct {
	windows map[int64]*model.AvailabilityWindow
	byRole  map[model.Role][]int64 // 角色 → 员工ID（带约束在前，组内按ID升序）
}

// NewIndexer 创建资格索引器
func NewIndexer(windows map[int64]*model.AvailabilityWindow) *Indexer {
	byRole := make(map[model.Role][]int64)

	var constrained, unconstrained []int64
	for id, w := range windows {
		if w.Constrained {
			constrained = append(constrained, id)
		} else {
			unconstrained = append(unconstrained, id)
		}
	}
	sort.Slice(constrained, func(i, j int) bool { return constrained[i] < constrained[j] })
	sort.Slice(unconstrained, func(i, j int) bool { return unconstrained[i] < unconstrained[j] })

	for _, id := range constrained {
		w := windows[id]
		byRole[w.Role] = append(byRole[w.Role], id)
	}
	for _, id := range unconstrained {
		w := windows[id]
		byRole[w.Role] = append(byRole[w.Role], id)
	}

	return &Indexer{windows: windows, byRole: byRole}
}

// EligibleFor 返回单个槽位的候选员工ID列表
// 资格条件：角色匹配、班段在白名单内、当日窗口存在完整覆盖班次的时间段
func (ix *Indexer) EligibleFor(spec *model.ShiftSpec) []int64 {
	span := spec.Span()
	date := spec.Date()

	var eligible []int64
	seen := make(map[int64]bool)
	for _, id := range ix.byRole[spec.Role] {
		if seen[id] {
			continue
		}
		w := ix.windows[id]
		if !w.AllowsShift(spec.ShiftName) {
			continue
		}
		if !w.CoversSpan(date, span) {
			continue
		}
		eligible = append(eligible, id)
		seen[id] = true
	}
	return eligible
}

// Index 为全部槽位建立 槽位ID → 候选列表 的索引
func (ix *Indexer) Index(slots map[string]*model.ShiftSpec) map[string][]int64 {
	eligibility := make(map[string][]int64, len(slots))
	for id, spec := range slots {
		eligibility[id] = ix.EligibleFor(spec)
	}
	return eligibility
}

// Window 返回员工的可用性窗口
func (ix *Indexer) Window(talentID int64) *model.AvailabilityWindow {
	return ix.windows[talentID]
}
