// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/availability"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
	"github.com/lunban/lunban/pkg/stats"
)

// StatsHandler 排班统计处理器
// 对已落库的周排班重建槽位与窗口后计算覆盖率和公平性
type StatsHandler struct {
	schedules *repository.ScheduleRepository
	talents   *repository.TalentRepository
	catalog   *repository.CatalogRepository
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(
	schedules *repository.ScheduleRepository,
	talents *repository.TalentRepository,
	catalog *repository.CatalogRepository,
) *StatsHandler {
	return &StatsHandler{
		schedules: schedules,
		talents:   talents,
		catalog:   catalog,
	}
}

// WeekStatsResponse 周排班统计响应
type WeekStatsResponse struct {
	Success   bool                   `json:"success"`
	WeekStart string                 `json:"week_start"`
	Coverage  *stats.CoverageMetrics `json:"coverage"`
	Fairness  *stats.FairnessMetrics `json:"fairness"`
}

// WeekStats 计算某周排班的覆盖率与公平性
// GET /api/v1/stats/week?week_anchor=YYYY-MM-DD
func (h *StatsHandler) WeekStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	anchor := r.URL.Query().Get("week_anchor")
	if anchor == "" {
		respondError(w, errors.InvalidInput("week_anchor", "锚点日期不能为空"))
		return
	}

	frame, err := model.ParseWeekFrame(anchor)
	if err != nil {
		respondAnyError(w, err)
		return
	}
	weekStart := frame.Start().Format(model.DateLayout)

	ctx := r.Context()
	schedule, err := h.schedules.GetByWeekStart(ctx, weekStart)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
		return
	}
	if schedule == nil {
		respondError(w, errors.NotFound("周排班", weekStart))
		return
	}

	shifts, err := h.schedules.GetAssignments(ctx, schedule.ID)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班分配失败"))
		return
	}
	plan := toPlan(shifts)

	periods, err := h.catalog.ListPeriods(ctx)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载班段目录失败"))
		return
	}
	templates, err := h.catalog.ListTemplates(ctx, periods)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载模板目录失败"))
		return
	}
	talents, err := h.talents.ListActive(ctx)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载员工列表失败"))
		return
	}
	rules, err := h.talents.ListConstraintRules(ctx)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载员工约束失败"))
		return
	}

	expander := staffing.NewExpander(nil)
	slots, err := expander.ExpandWeek(frame, periods, templates)
	if err != nil {
		respondAnyError(w, err)
		return
	}
	windows := availability.NewMaterializer(frame).Materialize(talents, rules)

	resp := WeekStatsResponse{
		Success:   true,
		WeekStart: weekStart,
		Coverage:  stats.NewCoverageAnalyzer().Analyze(slots, plan),
		Fairness:  stats.NewFairnessAnalyzer().Analyze(plan, windows),
	}

	respondJSON(w, http.StatusOK, resp)
}

// toPlan 把落库的分配行还原成方案
func toPlan(shifts []*repository.ScheduledShift) model.Plan {
	plan := make(model.Plan, 0, len(shifts))
	for _, s := range shifts {
		plan = append(plan, &model.Assignment{
			TalentID: s.TalentID,
			SlotID:   s.SlotID,
			Shift: &model.ShiftSpec{
				Start:     s.StartTime,
				End:       s.EndTime,
				ShiftName: model.ShiftName(s.ShiftName),
				Role:      model.Role(s.Role),
			},
		})
	}
	return plan
}
