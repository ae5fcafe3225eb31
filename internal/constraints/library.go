// Package constraints 提供约束与校验器的目录元数据
// 供管理端展示排班引擎支持的约束类型及参数
package constraints

import (
	"encoding/json"
	"net/http"

	"github.com/lunban/lunban/pkg/model"
)

// Param 参数定义
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, bool, duration
	Description string `json:"description"`
	Default     string `json:"default"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// RuleKindDefinition 约束类型定义（员工可用性的白名单规则）
type RuleKindDefinition struct {
	Kind        model.ConstraintKind `json:"kind"`
	DisplayName string               `json:"display_name"`
	Description string               `json:"description"`
	Dimensions  []string             `json:"dimensions"` // 规则作用的维度
}

// ValidatorDefinition 硬性校验器定义
type ValidatorDefinition struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Library 约束目录
type Library struct {
	RuleKinds  []RuleKindDefinition  `json:"rule_kinds"`
	Validators []ValidatorDefinition `json:"validators"`
	Roles      []model.Role          `json:"roles"`
	Shifts     []model.ShiftName     `json:"shifts"`
}

// Default 返回引擎支持的完整约束目录
func Default() *Library {
	return &Library{
		RuleKinds: []RuleKindDefinition{
			{
				Kind:        model.ConstraintAvailability,
				DisplayName: "工作日勾选",
				Description: "勾选员工可工作的星期，未勾选的星期不排班；班段默认全部放开。",
				Dimensions:  []string{"day"},
			},
			{
				Kind:        model.ConstraintShiftRestriction,
				DisplayName: "班段勾选",
				Description: "勾选员工可上的班段，整周有效；未勾选的班段不排班。",
				Dimensions:  []string{"shift"},
			},
			{
				Kind:        model.ConstraintCombination,
				DisplayName: "星期加班段组合",
				Description: "精确勾选员工可上的 星期+班段 组合，其余全部不排班。",
				Dimensions:  []string{"day", "shift"},
			},
		},
		Validators: []ValidatorDefinition{
			{
				Name:        "weekly_hours",
				DisplayName: "周工时上限",
				Description: "分配后的周累计工时不得超过员工合同周工时。",
				Params: []Param{
					{Name: "count_history_in_weekly_hours", Type: "bool", Description: "上周历史是否占用本周额度", Default: "false"},
				},
			},
			{
				Name:        "consecutive_days",
				DisplayName: "最大连续工作天数",
				Description: "限制员工连续工作的最大天数，跨周历史一并计入。",
				Params: []Param{
					{Name: "max_days", Type: "int", Description: "最大连续天数", Default: "6", Min: "4", Max: "7"},
				},
			},
			{
				Name:        "rest",
				DisplayName: "班次间最小休息时间",
				Description: "新班次开始须距前一日班次结束至少指定时长。",
				Params: []Param{
					{Name: "min_rest", Type: "duration", Description: "最小休息时间", Default: "11h", Min: "8h", Max: "14h"},
				},
			},
			{
				Name:        "one_shift_per_day",
				DisplayName: "每日单班",
				Description: "每名员工每个日历日最多一个班次。",
				Params:      []Param{},
			},
		},
		Roles:  model.AllRoles(),
		Shifts: model.AllShiftNames(),
	}
}

// Handler 处理约束目录请求
// GET /api/v1/constraints/library
func Handler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Default())
}
