package validator

import (
	"testing"
	"time"

	"github.com/lunban/lunban/pkg/model"
)

func testFrame(t *testing.T) *model.WeekFrame {
	t.Helper()
	anchor, err := time.Parse(model.DateLayout, "2024-01-14")
	if err != nil {
		t.Fatalf("解析锚点失败: %v", err)
	}
	return model.NewWeekFrame(anchor)
}

// testShift 在指定日期构造一个指定时段的班次
func testShift(t *testing.T, date string, startOffset, endOffset time.Duration, name model.ShiftName) *model.ShiftSpec {
	t.Helper()
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		t.Fatalf("解析日期失败: %v", err)
	}
	return &model.ShiftSpec{
		TemplateID: 1,
		PeriodID:   1,
		Start:      d.Add(startOffset),
		End:        d.Add(endOffset),
		ShiftName:  name,
		Role:       model.RoleServer,
		Required:   1,
	}
}

func amShift(t *testing.T, date string) *model.ShiftSpec {
	return testShift(t, date, 6*time.Hour, 15*time.Hour, model.ShiftAM)
}

func pmShift(t *testing.T, date string) *model.ShiftSpec {
	return testShift(t, date, 15*time.Hour, 23*time.Hour+30*time.Minute, model.ShiftPM)
}

func assign(talentID int64, shift *model.ShiftSpec) *model.Assignment {
	return &model.Assignment{TalentID: talentID, SlotID: shift.SlotID(), Shift: shift}
}

func testWindows(weeklyHours float64) map[int64]*model.AvailabilityWindow {
	return map[int64]*model.AvailabilityWindow{
		1: {TalentID: 1, Role: model.RoleServer, WeeklyHours: weeklyHours},
	}
}

func TestWeeklyHours(t *testing.T) {
	frame := testFrame(t)

	tests := []struct {
		name         string
		weeklyHours  float64
		working      []*model.Assignment
		countHistory bool
		want         bool
	}{
		{
			name:        "空额度内首个班次，应通过",
			weeklyHours: 40,
			want:        true,
		},
		{
			name:        "本周已用36小时，再排9小时超限，应失败",
			weeklyHours: 40,
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-15")),
				assign(1, amShift(t, "2024-01-16")),
				assign(1, amShift(t, "2024-01-17")),
				assign(1, amShift(t, "2024-01-18")),
			},
			want: false,
		},
		{
			name:        "恰好填满上限，应通过",
			weeklyHours: 18,
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-15")),
			},
			want: true,
		},
		{
			name:        "不计历史时上周班次不占额度，应通过",
			weeklyHours: 18,
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-12")), // 上周五
				assign(1, amShift(t, "2024-01-15")),
			},
			want: true,
		},
		{
			name:        "计历史时上周班次占额度，应失败",
			weeklyHours: 18,
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-12")),
				assign(1, amShift(t, "2024-01-15")),
			},
			countHistory: true,
			want:         false,
		},
		{
			name:        "他人的班次不占额度，应通过",
			weeklyHours: 18,
			working: []*model.Assignment{
				assign(2, amShift(t, "2024-01-15")),
				assign(1, amShift(t, "2024-01-15")),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewWeeklyHours(tt.countHistory)
			ctx := NewContext(1, amShift(t, "2024-01-19"), testWindows(tt.weeklyHours), tt.working, frame)
			if got := v.CanAssign(ctx); got != tt.want {
				t.Errorf("CanAssign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyHours_MissingWindow(t *testing.T) {
	frame := testFrame(t)
	v := NewWeeklyHours(false)
	ctx := NewContext(99, amShift(t, "2024-01-15"), testWindows(40), nil, frame)
	if v.CanAssign(ctx) {
		t.Error("无可用性窗口的员工应失败")
	}
}

func TestConsecutiveDays(t *testing.T) {
	frame := testFrame(t)

	// 上周一到周六连续6天历史
	history := []*model.Assignment{
		assign(1, amShift(t, "2024-01-08")),
		assign(1, amShift(t, "2024-01-09")),
		assign(1, amShift(t, "2024-01-10")),
		assign(1, amShift(t, "2024-01-11")),
		assign(1, amShift(t, "2024-01-12")),
		assign(1, amShift(t, "2024-01-13")),
	}

	tests := []struct {
		name    string
		working []*model.Assignment
		shift   *model.ShiftSpec
		want    bool
	}{
		{
			name:  "无历史，应通过",
			shift: amShift(t, "2024-01-14"),
			want:  true,
		},
		{
			name:    "历史连续6天后的第7天，应失败",
			working: history,
			shift:   amShift(t, "2024-01-14"),
			want:    false,
		},
		{
			name:    "连续5天后的第6天，应通过",
			working: history[1:],
			shift:   amShift(t, "2024-01-14"),
			want:    true,
		},
		{
			name:    "中间有休息日打断连续，应通过",
			working: append(append([]*model.Assignment{}, history[:3]...), history[4:]...), // 缺01-11
			shift:   amShift(t, "2024-01-14"),
			want:    true,
		},
		{
			name: "后续已排5天，当天成为第6天，应通过",
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-15")),
				assign(1, amShift(t, "2024-01-16")),
				assign(1, amShift(t, "2024-01-17")),
				assign(1, amShift(t, "2024-01-18")),
				assign(1, amShift(t, "2024-01-19")),
			},
			shift: amShift(t, "2024-01-14"),
			want:  true,
		},
		{
			name: "后续已排6天，当天成为第7天，应失败",
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-15")),
				assign(1, amShift(t, "2024-01-16")),
				assign(1, amShift(t, "2024-01-17")),
				assign(1, amShift(t, "2024-01-18")),
				assign(1, amShift(t, "2024-01-19")),
				assign(1, amShift(t, "2024-01-20")),
			},
			shift: amShift(t, "2024-01-14"),
			want:  false,
		},
		{
			name: "当天把前后两段接成7天，应失败",
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-12")),
				assign(1, amShift(t, "2024-01-13")),
				assign(1, amShift(t, "2024-01-15")),
				assign(1, amShift(t, "2024-01-16")),
				assign(1, amShift(t, "2024-01-17")),
				assign(1, amShift(t, "2024-01-18")),
			},
			shift: amShift(t, "2024-01-14"),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewConsecutiveDays(6)
			ctx := NewContext(1, tt.shift, testWindows(60), tt.working, frame)
			if got := v.CanAssign(ctx); got != tt.want {
				t.Errorf("CanAssign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRest(t *testing.T) {
	frame := testFrame(t)

	tests := []struct {
		name    string
		working []*model.Assignment
		shift   *model.ShiftSpec
		want    bool
	}{
		{
			name:  "前一天无班次，应通过",
			shift: amShift(t, "2024-01-15"),
			want:  true,
		},
		{
			name: "周日PM后接周一AM，仅6.5小时休息，应失败",
			working: []*model.Assignment{
				assign(1, pmShift(t, "2024-01-14")), // 23:30 结束
			},
			shift: amShift(t, "2024-01-15"), // 06:00 开始
			want:  false,
		},
		{
			name: "周日AM后接周一AM，休息15小时，应通过",
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-14")), // 15:00 结束
			},
			shift: amShift(t, "2024-01-15"),
			want:  true,
		},
		{
			name: "周日PM后接周一PM，休息15.5小时，应通过",
			working: []*model.Assignment{
				assign(1, pmShift(t, "2024-01-14")),
			},
			shift: pmShift(t, "2024-01-15"),
			want:  true,
		},
		{
			name: "次日已有AM班，补排当天PM班间隔仅6.5小时，应失败",
			working: []*model.Assignment{
				assign(1, amShift(t, "2024-01-16")),
			},
			shift: pmShift(t, "2024-01-15"),
			want:  false,
		},
		{
			name: "次日已有PM班，补排当天AM班休息24小时，应通过",
			working: []*model.Assignment{
				assign(1, pmShift(t, "2024-01-16")),
			},
			shift: amShift(t, "2024-01-15"),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRest(11 * time.Hour)
			ctx := NewContext(1, tt.shift, testWindows(60), tt.working, frame)
			if got := v.CanAssign(ctx); got != tt.want {
				t.Errorf("CanAssign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOneShiftPerDay(t *testing.T) {
	frame := testFrame(t)
	v := NewOneShiftPerDay()

	am := NewContext(1, amShift(t, "2024-01-15"), testWindows(40), nil, frame)
	pm := NewContext(1, pmShift(t, "2024-01-15"), testWindows(40), nil, frame)
	nextDay := NewContext(1, amShift(t, "2024-01-16"), testWindows(40), nil, frame)
	other := NewContext(2, pmShift(t, "2024-01-15"), testWindows(40), nil, frame)

	if !v.CanAssign(am) {
		t.Fatal("首次分配应通过")
	}
	v.Mark(am)

	if v.CanAssign(pm) {
		t.Error("同员工同日第二班应失败")
	}
	if !v.CanAssign(nextDay) {
		t.Error("同员工次日班次应通过")
	}
	if !v.CanAssign(other) {
		t.Error("其他员工同日班次应通过")
	}
}

func TestPipeline_CanAssign(t *testing.T) {
	frame := testFrame(t)
	p := DefaultPipeline(11*time.Hour, 6, false)

	// 干净上下文全部通过
	ok, rejected := p.CanAssign(NewContext(1, amShift(t, "2024-01-15"), testWindows(40), nil, frame))
	if !ok || rejected != "" {
		t.Fatalf("CanAssign() = (%v, %q), want (true, \"\")", ok, rejected)
	}

	// 休息不足时返回失败校验器的名称
	working := []*model.Assignment{assign(1, pmShift(t, "2024-01-14"))}
	ok, rejected = p.CanAssign(NewContext(1, amShift(t, "2024-01-15"), testWindows(40), working, frame))
	if ok {
		t.Fatal("休息不足应失败")
	}
	if rejected != "rest" {
		t.Errorf("失败校验器 = %q, want rest", rejected)
	}
}
