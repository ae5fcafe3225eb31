// Package scoring 提供候选人适配度打分与轮转选取
package scoring

import (
	"github.com/lunban/lunban/pkg/model"
)

// RoundRobinPicker 轮转选取器
// 按角色维护指针，跨班次持续轮转，使同分候选人被公平选中
// 状态只在一次构建内有效
type RoundRobinPicker struct {
	pointers map[model.Role]int
}

// NewRoundRobinPicker 创建轮转选取器
func NewRoundRobinPicker() *RoundRobinPicker {
	return &RoundRobinPicker{pointers: make(map[model.Role]int)}
}

// Pick 从并列候选中选出一人并推进指针
// 候选为空时返回 (0, false)
func (p *RoundRobinPicker) Pick(role model.Role, candidates []int64) (int64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	idx := p.pointers[role] % len(candidates)
	chosen := candidates[idx]
	p.pointers[role] = (idx + 1) % len(candidates)
	return chosen, true
}
