// Package model 定义排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/lunban/lunban/pkg/errors"
)

// Role 岗位角色
type Role string

const (
	RoleManager   Role = "manager"
	RoleLeader    Role = "leader"
	RoleBartender Role = "bartender"
	RoleServer    Role = "server"
	RoleRunner    Role = "runner"
	RoleHostess   Role = "hostess"
)

// AllRoles 返回全部岗位角色
func AllRoles() []Role {
	return []Role{RoleManager, RoleLeader, RoleBartender, RoleServer, RoleRunner, RoleHostess}
}

// Valid 检查角色是否合法
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleLeader, RoleBartender, RoleServer, RoleRunner, RoleHostess:
		return true
	}
	return false
}

// ShiftName 班段名称
type ShiftName string

const (
	ShiftAM     ShiftName = "am"
	ShiftPM     ShiftName = "pm"
	ShiftLounge ShiftName = "lounge"
)

// AllShiftNames 返回全部班段名称
func AllShiftNames() []ShiftName {
	return []ShiftName{ShiftAM, ShiftPM, ShiftLounge}
}

// Valid 检查班段名称是否合法
func (s ShiftName) Valid() bool {
	switch s {
	case ShiftAM, ShiftPM, ShiftLounge:
		return true
	}
	return false
}

// 班段的固定时间窗（自午夜起的偏移量）
var shiftWindows = map[ShiftName][2]time.Duration{
	ShiftAM:     {6 * time.Hour, 15 * time.Hour},
	ShiftPM:     {15 * time.Hour, 23*time.Hour + 30*time.Minute},
	ShiftLounge: {11 * time.Hour, 23*time.Hour + 59*time.Minute},
}

// Window 返回班段自午夜起的起止偏移量
func (s ShiftName) Window() (start, end time.Duration, ok bool) {
	w, ok := shiftWindows[s]
	if !ok {
		return 0, 0, false
	}
	return w[0], w[1], true
}

// SpanOn 返回班段在指定日期上的具体起止时间
func (s ShiftName) SpanOn(date time.Time) (TimeRange, bool) {
	start, end, ok := s.Window()
	if !ok {
		return TimeRange{}, false
	}
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return TimeRange{Start: midnight.Add(start), End: midnight.Add(end)}, true
}

// AllDayNames 返回周日起始的星期名称
func AllDayNames() []string {
	return []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
}

// ValidDayName 检查星期名称是否在词表内
func ValidDayName(name string) bool {
	for _, d := range AllDayNames() {
		if d == name {
			return true
		}
	}
	return false
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Covers 检查时间范围是否完整覆盖另一个范围
func (tr TimeRange) Covers(other TimeRange) bool {
	return !tr.Start.After(other.Start) && !tr.End.Before(other.End)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Period 班段（一天中承载若干模板的命名时间段）
type Period struct {
	ID    int64         `json:"id" db:"id"`
	Name  ShiftName     `json:"shift_name" db:"shift_name"`
	Start time.Duration `json:"start"` // 自午夜起的偏移
	End   time.Duration `json:"end"`
}

// NewPeriod 创建班段，时间窗必须与班段名称的固定窗完全一致
func NewPeriod(id int64, name ShiftName, start, end time.Duration) (*Period, error) {
	canonStart, canonEnd, ok := name.Window()
	if !ok {
		return nil, errors.InvalidInput("shift_name", string(name))
	}
	if start != canonStart || end != canonEnd {
		return nil, errors.InvalidInput("period", "时间窗与班段定义不一致")
	}
	return &Period{ID: id, Name: name, Start: start, End: end}, nil
}

// Template 班次模板（挂在班段下的岗位与时间配方）
type Template struct {
	ID         int64         `json:"id" db:"id"`
	PeriodID   int64         `json:"period_id" db:"period_id"`
	Role       Role          `json:"role" db:"role"`
	ShiftStart time.Duration `json:"shift_start"` // 自午夜起的偏移
	ShiftEnd   time.Duration `json:"shift_end"`
}

// MinTemplateDuration 模板最短时长
const MinTemplateDuration = 4 * time.Hour

// NewTemplate 创建班次模板并校验时间窗
func NewTemplate(id int64, period *Period, role Role, shiftStart, shiftEnd time.Duration) (*Template, error) {
	if !role.Valid() {
		return nil, errors.InvalidInput("role", string(role))
	}
	if shiftStart < period.Start || shiftStart >= shiftEnd || shiftEnd > period.End {
		return nil, errors.InvalidInput("template", "班次时间超出所属班段范围")
	}
	if shiftEnd-shiftStart < MinTemplateDuration {
		return nil, errors.InvalidInput("template", "班次时长不足4小时")
	}
	return &Template{ID: id, PeriodID: period.ID, Role: role, ShiftStart: shiftStart, ShiftEnd: shiftEnd}, nil
}

// DurationHours 返回模板时长（小时）
func (t *Template) DurationHours() float64 {
	return (t.ShiftEnd - t.ShiftStart).Hours()
}
