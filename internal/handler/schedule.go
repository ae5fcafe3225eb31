// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/scheduler/availability"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	engine    *scheduler.Engine
	cfg       scheduler.Config
	schedules *repository.ScheduleRepository
	talents   *repository.TalentRepository
	catalog   *repository.CatalogRepository
	metrics   *metrics.Metrics
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(
	cfg scheduler.Config,
	schedules *repository.ScheduleRepository,
	talents *repository.TalentRepository,
	catalog *repository.CatalogRepository,
	m *metrics.Metrics,
) *ScheduleHandler {
	return &ScheduleHandler{
		engine:    scheduler.NewEngine(cfg),
		cfg:       cfg,
		schedules: schedules,
		talents:   talents,
		catalog:   catalog,
		metrics:   m,
	}
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	WeekAnchor string `json:"week_anchor"`       // 锚点日期 (YYYY-MM-DD)，自动归一到周日
	DryRun     bool   `json:"dry_run,omitempty"` // 只计算不落库
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success      bool                      `json:"success"`
	ScheduleID   string                    `json:"schedule_id,omitempty"`
	WeekStart    string                    `json:"week_start"`
	WeekEnd      string                    `json:"week_end"`
	Status       string                    `json:"status,omitempty"`
	Assignments  []AssignmentOutput        `json:"assignments"`
	Understaffed []model.UnderstaffedEntry `json:"understaffed,omitempty"`
	SlotsFilled  int                       `json:"slots_filled"`
	SlotsTotal   int                       `json:"slots_total"`
	TotalHours   float64                   `json:"total_hours"`
	Duration     string                    `json:"duration"`
}

// AssignmentOutput 排班分配输出
type AssignmentOutput struct {
	TalentID  int64   `json:"talent_id"`
	SlotID    string  `json:"slot_id"`
	Date      string  `json:"date"`
	ShiftName string  `json:"shift_name"`
	Role      string  `json:"role"`
	StartTime string  `json:"start_time"` // HH:MM
	EndTime   string  `json:"end_time"`
	Hours     float64 `json:"hours"`
}

// Generate 生成一周排班草稿
// 同一周已存在排班时返回409，dry_run 时跳过落库与查重
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.WeekAnchor == "" {
		respondError(w, errors.InvalidInput("week_anchor", "锚点日期不能为空"))
		return
	}

	frame, err := model.ParseWeekFrame(req.WeekAnchor)
	if err != nil {
		respondAnyError(w, err)
		return
	}
	weekStart := frame.Start().Format(model.DateLayout)
	weekEnd := frame.End().Format(model.DateLayout)

	ctx := r.Context()

	if !req.DryRun {
		existing, err := h.schedules.GetByWeekStart(ctx, weekStart)
		if err != nil {
			respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
			return
		}
		if existing != nil {
			respondError(w, errors.ScheduleConflict(weekStart, existing.ID.String()))
			return
		}
	}

	input, err := h.loadBuildInput(ctx, frame)
	if err != nil {
		respondAnyError(w, err)
		return
	}

	result, err := h.engine.Build(input)
	h.metrics.ObserveBuild(resultDuration(result), resultSlots(result), resultFilled(result), resultAssigned(result), resultUnderstaffed(result), err)
	if err != nil {
		respondAnyError(w, err)
		return
	}

	resp := GenerateResponse{
		Success:      true,
		WeekStart:    weekStart,
		WeekEnd:      weekEnd,
		Assignments:  toAssignmentOutputs(result.Plan),
		Understaffed: result.Understaffed,
		SlotsFilled:  result.SlotsFilled,
		SlotsTotal:   result.SlotsTotal,
		TotalHours:   result.Plan.TotalHours(),
		Duration:     result.Duration.String(),
	}

	if !req.DryRun {
		schedule := &repository.WeekSchedule{
			WeekStart:   weekStart,
			WeekEnd:     weekEnd,
			Status:      repository.StatusDraft,
			TotalSlots:  result.SlotsTotal,
			FilledSlots: result.SlotsFilled,
			GeneratedAt: time.Now(),
		}
		if result.SlotsTotal > 0 {
			schedule.FillRate = float64(result.SlotsFilled) / float64(result.SlotsTotal)
		}
		if err := h.schedules.Create(ctx, schedule); err != nil {
			respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存周排班失败"))
			return
		}
		if err := h.schedules.SaveAssignments(ctx, schedule.ID, result.Plan); err != nil {
			respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存排班分配失败"))
			return
		}
		resp.ScheduleID = schedule.ID.String()
		resp.Status = schedule.Status
	}

	respondJSON(w, http.StatusOK, resp)
}

// CommitRequest 排班定稿请求
type CommitRequest struct {
	ScheduleID string `json:"schedule_id"`
}

// Commit 把草稿排班定稿
// 已定稿的排班不允许退回草稿，重复定稿返回冲突
func (h *ScheduleHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	id, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		respondError(w, errors.InvalidInput("schedule_id", "无效的排班ID格式"))
		return
	}

	ctx := r.Context()
	schedule, err := h.schedules.GetByID(ctx, id)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
		return
	}
	if schedule == nil {
		respondError(w, errors.NotFound("排班", req.ScheduleID))
		return
	}
	if schedule.Status == repository.StatusFinal {
		respondError(w, errors.New(errors.CodeScheduleConflict, "排班已定稿"))
		return
	}

	// 定稿前独立复核方案
	violations, err := h.auditSchedule(ctx, schedule)
	if err != nil {
		respondAnyError(w, err)
		return
	}
	if len(violations) > 0 {
		appErr := errors.New(errors.CodeValidationFail, "方案存在硬性违规，拒绝定稿")
		appErr.WithField("violations", violations)
		respondError(w, appErr)
		return
	}

	if err := h.schedules.UpdateStatus(ctx, id, repository.StatusFinal); err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新排班状态失败"))
		return
	}

	logger.Info().
		Str("schedule_id", id.String()).
		Str("week_start", schedule.WeekStart).
		Msg("排班已定稿")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"schedule_id": id.String(),
		"status":      repository.StatusFinal,
	})
}

// ValidateRequest 手工分配校验请求
type ValidateRequest struct {
	WeekAnchor string `json:"week_anchor"` // 锚点日期 (YYYY-MM-DD)
	TalentID   int64  `json:"talent_id"`
	SlotID     string `json:"slot_id"`
}

// Validate 校验一条手工分配
// 把该周已落库的方案与历史作为既有工作集，判断新分配是否触发硬性违规
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.WeekAnchor == "" {
		respondError(w, errors.InvalidInput("week_anchor", "锚点日期不能为空"))
		return
	}
	if req.SlotID == "" {
		respondError(w, errors.InvalidInput("slot_id", "槽位ID不能为空"))
		return
	}

	frame, err := model.ParseWeekFrame(req.WeekAnchor)
	if err != nil {
		respondAnyError(w, err)
		return
	}

	ctx := r.Context()
	input, err := h.loadBuildInput(ctx, frame)
	if err != nil {
		respondAnyError(w, err)
		return
	}

	expander := staffing.NewExpander(staffing.NewResolver(h.cfg.StaffingTable, h.cfg.TierByDay))
	slots, err := expander.ExpandWeek(frame, input.Periods, input.Templates)
	if err != nil {
		respondAnyError(w, err)
		return
	}
	spec, ok := slots[req.SlotID]
	if !ok {
		respondError(w, errors.NotFound("槽位", req.SlotID))
		return
	}

	windows := availability.NewMaterializer(frame).Materialize(input.Talents, input.Rules)

	// 既有工作集：本周已落库的方案（若有）加历史
	working := input.History
	schedule, err := h.schedules.GetByWeekStart(ctx, frame.Start().Format(model.DateLayout))
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
		return
	}
	if schedule != nil {
		shifts, err := h.schedules.GetAssignments(ctx, schedule.ID)
		if err != nil {
			respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班分配失败"))
			return
		}
		working = append(working, toPlan(shifts)...)
	}

	candidate := &model.Assignment{TalentID: req.TalentID, SlotID: req.SlotID, Shift: spec}
	violations := h.engine.CheckAssignment(frame, candidate, windows, working)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

// List 列出周排班
// 支持 status、start_date、end_date、limit、offset 查询参数
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	filter := repository.DefaultListFilter()
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		filter = filter.WithStatus(s)
	}
	filter = filter.WithDateRange(q.Get("start_date"), q.Get("end_date"))
	if l := parseIntParam(q.Get("limit")); l > 0 {
		filter = filter.WithLimit(l)
	}
	if o := parseIntParam(q.Get("offset")); o > 0 {
		filter = filter.WithOffset(o)
	}

	schedules, total, err := h.schedules.List(r.Context(), filter)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"total":     total,
		"schedules": schedules,
	})
}

// Detail 处理 /api/v1/schedules/{id} 的查询与删除，
// 以及 /api/v1/schedules/{id}/status 的状态更新
func (h *ScheduleHandler) Detail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/schedules/")
	idStr, sub := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		idStr, sub = rest[:i], rest[i+1:]
	}
	if idStr == "" {
		respondError(w, errors.NotFound("路径", r.URL.Path))
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, errors.InvalidInput("id", "无效的排班ID格式"))
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case sub == "status" && r.Method == http.MethodPatch:
		h.patchStatus(w, r, id)
	case sub == "":
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET和DELETE方法"))
	default:
		respondError(w, errors.NotFound("路径", r.URL.Path))
	}
}

// patchStatus 更新排班状态
// 草稿到定稿走与 Commit 相同的复核，定稿不允许退回草稿
func (h *ScheduleHandler) patchStatus(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Status != repository.StatusDraft && req.Status != repository.StatusFinal {
		respondError(w, errors.InvalidInput("status", "状态只能是 draft 或 final"))
		return
	}

	ctx := r.Context()
	schedule, err := h.schedules.GetByID(ctx, id)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
		return
	}
	if schedule == nil {
		respondError(w, errors.NotFound("排班", id.String()))
		return
	}

	if schedule.Status == repository.StatusFinal && req.Status == repository.StatusDraft {
		respondError(w, errors.New(errors.CodeScheduleConflict, "已定稿的排班不允许退回草稿"))
		return
	}

	if schedule.Status != req.Status && req.Status == repository.StatusFinal {
		violations, err := h.auditSchedule(ctx, schedule)
		if err != nil {
			respondAnyError(w, err)
			return
		}
		if len(violations) > 0 {
			appErr := errors.New(errors.CodeValidationFail, "方案存在硬性违规，拒绝定稿")
			appErr.WithField("violations", violations)
			respondError(w, appErr)
			return
		}
		if err := h.schedules.UpdateStatus(ctx, id, repository.StatusFinal); err != nil {
			respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新排班状态失败"))
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"schedule_id": id.String(),
		"status":      req.Status,
	})
}

// get 返回周排班及其全部分配
func (h *ScheduleHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()
	schedule, err := h.schedules.GetByID(ctx, id)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
		return
	}
	if schedule == nil {
		respondError(w, errors.NotFound("排班", id.String()))
		return
	}

	shifts, err := h.schedules.GetAssignments(ctx, id)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班分配失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"schedule":    schedule,
		"assignments": shifts,
	})
}

// delete 删除草稿排班，已定稿的不允许删除
func (h *ScheduleHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()
	schedule, err := h.schedules.GetByID(ctx, id)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
		return
	}
	if schedule == nil {
		respondError(w, errors.NotFound("排班", id.String()))
		return
	}
	if schedule.Status == repository.StatusFinal {
		respondError(w, errors.New(errors.CodeScheduleConflict, "已定稿的排班不允许删除"))
		return
	}

	if err := h.schedules.Delete(ctx, id); err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "删除周排班失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// Status 查询某周的排班状态
// GET /api/v1/schedule/status?week_anchor=YYYY-MM-DD
func (h *ScheduleHandler) Status(w http.ResponseWriter, r *http.Request) {
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

	schedule, err := h.schedules.GetByWeekStart(r.Context(), weekStart)
	if err != nil {
		respondAnyError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询周排班失败"))
		return
	}

	if schedule == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"week_start": weekStart,
			"exists":     false,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"week_start": weekStart,
		"exists":     true,
		"schedule":   schedule,
	})
}

// auditSchedule 重放校验已落库的方案
func (h *ScheduleHandler) auditSchedule(ctx context.Context, schedule *repository.WeekSchedule) ([]scheduler.Violation, error) {
	frame, err := model.ParseWeekFrame(schedule.WeekStart)
	if err != nil {
		return nil, err
	}

	shifts, err := h.schedules.GetAssignments(ctx, schedule.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询排班分配失败")
	}
	plan := toPlan(shifts)

	talents, err := h.talents.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载员工列表失败")
	}
	rules, err := h.talents.ListConstraintRules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载员工约束失败")
	}
	windows := availability.NewMaterializer(frame).Materialize(talents, rules)

	historyStart := frame.Start().AddDate(0, 0, -h.cfg.HistoryDays).Format(model.DateLayout)
	history, err := h.schedules.GetHistory(ctx, historyStart, schedule.WeekStart)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载历史排班失败")
	}

	return h.engine.Audit(frame, plan, windows, history), nil
}

// loadBuildInput 从数据库装配一次生成所需的全部输入
func (h *ScheduleHandler) loadBuildInput(ctx context.Context, frame *model.WeekFrame) (*scheduler.BuildInput, error) {
	periods, err := h.catalog.ListPeriods(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载班段目录失败")
	}

	templates, err := h.catalog.ListTemplates(ctx, periods)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载模板目录失败")
	}

	talents, err := h.talents.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载员工列表失败")
	}

	rules, err := h.talents.ListConstraintRules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载员工约束失败")
	}

	historyStart := frame.Start().AddDate(0, 0, -h.cfg.HistoryDays).Format(model.DateLayout)
	history, err := h.schedules.GetHistory(ctx, historyStart, frame.Start().Format(model.DateLayout))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载历史排班失败")
	}

	return &scheduler.BuildInput{
		WeekAnchor: frame.Start(),
		Periods:    periods,
		Templates:  templates,
		Talents:    talents,
		Rules:      rules,
		History:    history,
	}, nil
}

// toAssignmentOutputs 转换方案为响应格式
func toAssignmentOutputs(plan model.Plan) []AssignmentOutput {
	outputs := make([]AssignmentOutput, len(plan))
	for i, a := range plan {
		outputs[i] = AssignmentOutput{
			TalentID:  a.TalentID,
			SlotID:    a.SlotID,
			Date:      a.Date(),
			ShiftName: string(a.Shift.ShiftName),
			Role:      string(a.Shift.Role),
			StartTime: a.Shift.Start.Format("15:04"),
			EndTime:   a.Shift.End.Format("15:04"),
			Hours:     a.WorkingHours(),
		}
	}
	return outputs
}

// 指标提取辅助：result 可能为 nil
func resultDuration(r *scheduler.BuildResult) time.Duration {
	if r == nil {
		return 0
	}
	return r.Duration
}

func resultSlots(r *scheduler.BuildResult) int {
	if r == nil {
		return 0
	}
	return r.SlotsTotal
}

func resultFilled(r *scheduler.BuildResult) int {
	if r == nil {
		return 0
	}
	return r.SlotsFilled
}

func resultAssigned(r *scheduler.BuildResult) int {
	if r == nil {
		return 0
	}
	return len(r.Plan)
}

func resultUnderstaffed(r *scheduler.BuildResult) int {
	if r == nil {
		return 0
	}
	return len(r.Understaffed)
}

// parseIntParam 解析整数查询参数，非法输入返回0
func parseIntParam(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}

// respondAnyError 返回任意错误，非 AppError 按内部错误处理
func respondAnyError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		respondError(w, appErr)
		return
	}
	respondError(w, errors.Wrap(err, errors.CodeInternal, "内部错误"))
}
