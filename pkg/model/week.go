// Package model 定义排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/lunban/lunban/pkg/errors"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// WeekFrame 周框架：锚点日期归一化成周日起始的七天窗口
// 构造后不可变
type WeekFrame struct {
	days    [7]time.Time
	dateMap map[string]time.Time // 星期名称 → 日期
}

// NewWeekFrame 由锚点日期构建周框架
// 首日为锚点当天或其之前最近的周日
func NewWeekFrame(anchor time.Time) *WeekFrame {
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	start = start.AddDate(0, 0, -int(start.Weekday()))

	f := &WeekFrame{dateMap: make(map[string]time.Time, 7)}
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		f.days[i] = d
		f.dateMap[d.Weekday().String()] = d
	}
	return f
}

// ParseWeekFrame 解析 YYYY-MM-DD 锚点日期并构建周框架
func ParseWeekFrame(anchor string) (*WeekFrame, error) {
	d, err := time.Parse(DateLayout, anchor)
	if err != nil {
		return nil, errors.InvalidInput("week_anchor", "日期格式无效，应为YYYY-MM-DD").WithCause(err)
	}
	return NewWeekFrame(d), nil
}

// Days 返回周日到周六的七个日期
func (f *WeekFrame) Days() [7]time.Time {
	return f.days
}

// Start 返回周首日（周日）
func (f *WeekFrame) Start() time.Time {
	return f.days[0]
}

// End 返回周末日（周六）
func (f *WeekFrame) End() time.Time {
	return f.days[6]
}

// DateOf 按星期名称查找日期
func (f *WeekFrame) DateOf(dayName string) (time.Time, bool) {
	d, ok := f.dateMap[dayName]
	return d, ok
}

// Contains 检查时间点是否落在本周内（按日历日）
func (f *WeekFrame) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return !day.Before(f.days[0]) && !day.After(f.days[6])
}
