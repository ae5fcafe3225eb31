// Package scheduler 排班引擎门面
// 把周框架、槽位展开、可用性物化、资格索引、贪心构建和缺口报告
// 串成一次确定性的周排班生成
package scheduler

import (
	"fmt"
	"time"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/availability"
	"github.com/lunban/lunban/pkg/scheduler/scoring"
	"github.com/lunban/lunban/pkg/scheduler/solver"
	"github.com/lunban/lunban/pkg/scheduler/staffing"
	"github.com/lunban/lunban/pkg/scheduler/validator"
)

// Config 引擎配置
type Config struct {
	MinRest                   time.Duration            // 班次间最小休息时间
	MaxConsecutiveDays        int                      // 最大连续工作天数
	HistoryDays               int                      // 回看历史的天数
	CountHistoryInWeeklyHours bool                     // 历史是否占用本周工时额度
	StaffingTable             staffing.Table           // nil 使用默认表
	TierByDay                 map[string]staffing.Tier // nil 使用默认映射
	Weights                   scoring.Weights
}

// DefaultConfig 返回默认引擎配置
func DefaultConfig() Config {
	return Config{
		MinRest:                   11 * time.Hour,
		MaxConsecutiveDays:        6,
		HistoryDays:               7,
		CountHistoryInWeeklyHours: false,
		Weights:                   scoring.DefaultWeights(),
	}
}

// BuildInput 一次排班生成的全部输入
type BuildInput struct {
	WeekAnchor time.Time
	Periods    []*model.Period
	Templates  []*model.Template
	Talents    []*model.Talent
	Rules      []*model.ConstraintRule
	History    []*model.Assignment // 上周已提交的分配，只作校验与打分上下文
}

// BuildResult 一次排班生成的完整产出
type BuildResult struct {
	Frame        *model.WeekFrame
	Slots        map[string]*model.ShiftSpec
	Plan         model.Plan
	TalentHours  map[int64]float64
	Understaffed []model.UnderstaffedEntry
	SlotsFilled  int
	SlotsTotal   int
	Duration     time.Duration
}

// Engine 排班引擎
// 纯计算：不碰数据库，不产生随机性，同样输入必得同样输出
type Engine struct {
	cfg    Config
	logger *logger.EngineLogger
}

// NewEngine 创建排班引擎
func NewEngine(cfg Config) *Engine {
	if cfg.MinRest <= 0 {
		cfg.MinRest = 11 * time.Hour
	}
	if cfg.MaxConsecutiveDays <= 0 {
		cfg.MaxConsecutiveDays = 6
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 7
	}
	if cfg.Weights == (scoring.Weights{}) {
		cfg.Weights = scoring.DefaultWeights()
	}
	return &Engine{cfg: cfg, logger: logger.NewEngineLogger()}
}

// Build 生成一周排班
// 失败只发生在输入不合法时，人手不足不算失败
func (e *Engine) Build(input *BuildInput) (*BuildResult, error) {
	if err := e.validateInput(input); err != nil {
		return nil, err
	}

	frame := model.NewWeekFrame(input.WeekAnchor)

	expander := staffing.NewExpander(staffing.NewResolver(e.cfg.StaffingTable, e.cfg.TierByDay))
	slots, err := expander.ExpandWeek(frame, input.Periods, input.Templates)
	if err != nil {
		return nil, err
	}

	windows := availability.NewMaterializer(frame).Materialize(input.Talents, input.Rules)
	eligibility := availability.NewIndexer(windows).Index(slots)

	history := e.trimHistory(frame, input.History)

	pipeline := validator.DefaultPipeline(e.cfg.MinRest, e.cfg.MaxConsecutiveDays, e.cfg.CountHistoryInWeeklyHours)
	builder := solver.NewBuilder(pipeline, e.cfg.Weights)
	built := builder.Build(frame, slots, windows, eligibility, history)

	built.Plan.Sort()

	return &BuildResult{
		Frame:        frame,
		Slots:        slots,
		Plan:         built.Plan,
		TalentHours:  built.TalentHours,
		Understaffed: solver.UnderstaffedReport(slots, built.Plan),
		SlotsFilled:  built.SlotsFilled,
		SlotsTotal:   built.SlotsTotal,
		Duration:     built.Duration,
	}, nil
}

// validateInput 校验输入合法性
func (e *Engine) validateInput(input *BuildInput) error {
	if input == nil {
		return errors.InvalidInput("input", "输入不能为空")
	}
	if input.WeekAnchor.IsZero() {
		return errors.InvalidInput("week_anchor", "锚点日期不能为空")
	}
	if len(input.Periods) == 0 {
		return errors.ErrNoPeriods
	}

	var verr errors.ValidationErrors
	for _, t := range input.Talents {
		if !t.Role.Valid() {
			verr.Add(fmt.Sprintf("talents[%d].role", t.ID), fmt.Sprintf("未知岗位: %s", t.Role))
		}
		if t.WeeklyHours <= 0 {
			verr.Add(fmt.Sprintf("talents[%d].weekly_hours", t.ID), "周工时必须大于0")
		}
	}
	for _, r := range input.Rules {
		switch r.Kind {
		case model.ConstraintAvailability, model.ConstraintShiftRestriction, model.ConstraintCombination:
		default:
			verr.Add(fmt.Sprintf("rules[%d].kind", r.TalentID), fmt.Sprintf("未知约束类型: %s", r.Kind))
		}
		if r.Shift != "" && !r.Shift.Valid() {
			verr.Add(fmt.Sprintf("rules[%d].shift", r.TalentID), fmt.Sprintf("未知班段: %s", r.Shift))
		}
		if r.Day != "" && !model.ValidDayName(r.Day) {
			verr.Add(fmt.Sprintf("rules[%d].day", r.TalentID), fmt.Sprintf("未知星期: %s", r.Day))
		}
	}
	if verr.HasErrors() {
		return verr.ToAppError()
	}
	return nil
}

// trimHistory 把历史裁剪到 [周起始-HistoryDays, 周起始) 窗口内
// 落在本周或更早的分配不参与校验和打分
func (e *Engine) trimHistory(frame *model.WeekFrame, history []*model.Assignment) []*model.Assignment {
	if len(history) == 0 {
		return nil
	}
	lo := frame.Start().AddDate(0, 0, -e.cfg.HistoryDays)
	hi := frame.Start()

	trimmed := make([]*model.Assignment, 0, len(history))
	for _, a := range history {
		if a.Shift.Start.Before(lo) || !a.Shift.Start.Before(hi) {
			continue
		}
		trimmed = append(trimmed, a)
	}
	return trimmed
}
