// Package solver 提供贪心排班构建器
package solver

import (
	"sort"
	"strconv"
	"time"

	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/scoring"
	"github.com/lunban/lunban/pkg/scheduler/validator"
)

// Result 构建结果
type Result struct {
	Plan        model.Plan        `json:"plan"`
	TalentHours map[int64]float64 `json:"talent_hours"`
	SlotsFilled int               `json:"slots_filled"`
	SlotsTotal  int               `json:"slots_total"`
	Duration    time.Duration     `json:"duration"`
}

// Builder 贪心排班构建器
// 按稀缺度优先顺序遍历槽位，打分 → 轮转选取 → 校验 → 提交
// 从不报错：填不满的槽位留给缺口报告
type Builder struct {
	pipeline validator.Pipeline
	weights  scoring.Weights
	logger   *logger.EngineLogger
}

// NewBuilder 创建排班构建器
func NewBuilder(pipeline validator.Pipeline, weights scoring.Weights) *Builder {
	return &Builder{
		pipeline: pipeline,
		weights:  weights,
		logger:   logger.NewEngineLogger(),
	}
}

// Build 生成一周排班方案
// history 作为上下文参与校验与打分，但不出现在返回的方案中
func (b *Builder) Build(
	frame *model.WeekFrame,
	slots map[string]*model.ShiftSpec,
	availability map[int64]*model.AvailabilityWindow,
	eligibility map[string][]int64,
	history []*model.Assignment,
) *Result {
	startTime := time.Now()
	b.logger.StartBuild(frame.Start().Format(model.DateLayout), len(availability), len(slots))

	// 稀缺度优先：候选越少的槽位越先处理，先按槽位ID排序保证确定性
	order := make([]string, 0, len(slots))
	for id := range slots {
		order = append(order, id)
	}
	sort.Strings(order)
	sort.SliceStable(order, func(i, j int) bool {
		return len(eligibility[order[i]]) < len(eligibility[order[j]])
	})

	working := make([]*model.Assignment, len(history), len(history)+len(slots))
	copy(working, history)

	plan := make(model.Plan, 0, len(slots))
	picker := scoring.NewRoundRobinPicker()
	workload := make(map[int64]float64, len(availability))
	filled := 0

	for _, slotID := range order {
		spec := slots[slotID]
		candidates := eligibility[slotID]
		assignedHere := 0

		// 每个槽位用最新的工作集重新打分
		scorer := scoring.NewScorer(spec, availability, working, b.weights)
		scores := make(map[int64]float64, len(candidates))
		for _, id := range candidates {
			scores[id] = scorer.Score(id)
		}

		for assignedHere < spec.Required && len(scores) > 0 {
			tops := topCandidates(candidates, scores)

			pick, ok := picker.Pick(spec.Role, tops)
			if !ok {
				break
			}

			// 选中即出局：无论校验结果如何都从分数表移除，
			// 每个候选人对同一槽位只有一次机会
			delete(scores, pick)

			w := availability[pick]
			if w == nil || !w.AllowsShift(spec.ShiftName) {
				continue
			}

			ctx := validator.NewContext(pick, spec, availability, working, frame)
			ok, rejectedBy := b.pipeline.CanAssign(ctx)
			if !ok {
				b.logger.ValidatorRejection(rejectedBy, strconv.FormatInt(pick, 10), slotID)
				continue
			}

			a := &model.Assignment{TalentID: pick, SlotID: slotID, Shift: spec}
			plan = append(plan, a)
			working = append(working, a)
			workload[pick] += spec.DurationHours()
			b.pipeline.Mark(ctx)
			assignedHere++
		}

		if assignedHere >= spec.Required {
			filled++
		}
	}

	result := &Result{
		Plan:        plan,
		TalentHours: workload,
		SlotsFilled: filled,
		SlotsTotal:  len(slots),
		Duration:    time.Since(startTime),
	}

	b.logger.BuildComplete(frame.Start().Format(model.DateLayout), result.Duration, len(plan), result.SlotsTotal-result.SlotsFilled)
	return result
}

// topCandidates 返回仍在分数表中且并列最高分的候选，保持原始候选顺序
func topCandidates(candidates []int64, scores map[int64]float64) []int64 {
	first := true
	var top float64
	for _, id := range candidates {
		s, ok := scores[id]
		if !ok {
			continue
		}
		if first || s > top {
			top = s
			first = false
		}
	}
	if first {
		return nil
	}

	var tops []int64
	for _, id := range candidates {
		if s, ok := scores[id]; ok && s == top {
			tops = append(tops, id)
		}
	}
	return tops
}
