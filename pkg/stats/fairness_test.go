package stats

import (
	"math"
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

func testWindow(id int64, role model.Role, weeklyHours float64) *model.AvailabilityWindow {
	return &model.AvailabilityWindow{TalentID: id, Role: role, WeeklyHours: weeklyHours}
}

func TestFairnessAnalyzer_EqualWorkload(t *testing.T) {
	monAM := testShift(t, 1, "2024-01-15", model.ShiftAM, model.RoleServer, 1)
	tueAM := testShift(t, 1, "2024-01-16", model.ShiftAM, model.RoleServer, 1)

	windows := map[int64]*model.AvailabilityWindow{
		1: testWindow(1, model.RoleServer, 40),
		2: testWindow(2, model.RoleServer, 40),
	}
	plan := model.Plan{assign(1, monAM), assign(2, tueAM)}

	m := NewFairnessAnalyzer().Analyze(plan, windows)

	if m.WorkloadGini != 0 {
		t.Errorf("均分工时 Gini = %v, want 0", m.WorkloadGini)
	}
	if m.WorkloadStdDev != 0 {
		t.Errorf("均分工时标准差 = %v, want 0", m.WorkloadStdDev)
	}
	if m.AvgHoursPerTalent != 9 {
		t.Errorf("平均工时 = %v, want 9", m.AvgHoursPerTalent)
	}
	if m.MaxHours != 9 || m.MinHours != 9 {
		t.Errorf("工时上下界 = %v/%v, want 9/9", m.MaxHours, m.MinHours)
	}
	if m.OverallFairnessScore != 100 {
		t.Errorf("综合评分 = %v, want 100", m.OverallFairnessScore)
	}
}

func TestFairnessAnalyzer_SkewedWorkload(t *testing.T) {
	monAM := testShift(t, 1, "2024-01-15", model.ShiftAM, model.RoleServer, 2)
	tueAM := testShift(t, 1, "2024-01-16", model.ShiftAM, model.RoleServer, 1)

	windows := map[int64]*model.AvailabilityWindow{
		1: testWindow(1, model.RoleServer, 40),
		2: testWindow(2, model.RoleServer, 40),
	}
	// 员工1两个班，员工2一个班
	plan := model.Plan{assign(1, monAM), assign(2, monAM), assign(1, tueAM)}

	m := NewFairnessAnalyzer().Analyze(plan, windows)

	if m.WorkloadGini <= 0 {
		t.Errorf("倾斜工时 Gini = %v, want > 0", m.WorkloadGini)
	}
	if m.MaxHours != 18 || m.MinHours != 9 {
		t.Errorf("工时上下界 = %v/%v, want 18/9", m.MaxHours, m.MinHours)
	}
	if m.OverallFairnessScore >= 100 {
		t.Errorf("倾斜分配评分 = %v, want < 100", m.OverallFairnessScore)
	}

	// 员工统计按工时降序
	if len(m.TalentStats) != 2 {
		t.Fatalf("员工统计数 = %d, want 2", len(m.TalentStats))
	}
	if m.TalentStats[0].TalentID != 1 || m.TalentStats[0].TotalHours != 18 {
		t.Errorf("榜首 = %+v, want 员工1共18小时", m.TalentStats[0])
	}
	if m.TalentStats[0].ShiftCount != 2 {
		t.Errorf("员工1班次数 = %d, want 2", m.TalentStats[0].ShiftCount)
	}
	// 利用率 18/40
	if m.TalentStats[0].Utilization != 45 {
		t.Errorf("员工1利用率 = %v, want 45", m.TalentStats[0].Utilization)
	}
	// 平均13.5小时，员工1偏差 +33.3%
	wantDev := (18 - 13.5) / 13.5 * 100
	if math.Abs(m.TalentStats[0].Deviation-wantDev) > 1e-9 {
		t.Errorf("员工1偏差 = %v, want %v", m.TalentStats[0].Deviation, wantDev)
	}
}

func TestFairnessAnalyzer_WeekendShifts(t *testing.T) {
	satAM := testShift(t, 1, "2024-01-20", model.ShiftAM, model.RoleServer, 1)
	sunAM := testShift(t, 1, "2024-01-14", model.ShiftAM, model.RoleServer, 1)
	monAM := testShift(t, 1, "2024-01-15", model.ShiftAM, model.RoleServer, 1)

	windows := map[int64]*model.AvailabilityWindow{
		1: testWindow(1, model.RoleServer, 40),
		2: testWindow(2, model.RoleServer, 40),
	}
	// 员工1包揽周末，员工2只有工作日
	plan := model.Plan{assign(1, satAM), assign(1, sunAM), assign(2, monAM)}

	m := NewFairnessAnalyzer().Analyze(plan, windows)

	var w1, w2 int
	for _, s := range m.TalentStats {
		switch s.TalentID {
		case 1:
			w1 = s.WeekendShifts
		case 2:
			w2 = s.WeekendShifts
		}
	}
	if w1 != 2 || w2 != 0 {
		t.Errorf("周末班 = %d/%d, want 2/0", w1, w2)
	}
	if m.WeekendShiftGini <= 0 {
		t.Errorf("周末班 Gini = %v, want > 0", m.WeekendShiftGini)
	}
}

func TestFairnessAnalyzer_IdleTalentsCounted(t *testing.T) {
	monAM := testShift(t, 1, "2024-01-15", model.ShiftAM, model.RoleServer, 1)

	windows := map[int64]*model.AvailabilityWindow{
		1: testWindow(1, model.RoleServer, 40),
		2: testWindow(2, model.RoleServer, 40),
		3: testWindow(3, model.RoleServer, 40),
	}
	plan := model.Plan{assign(1, monAM)}

	m := NewFairnessAnalyzer().Analyze(plan, windows)

	// 没排到班的员工也进统计
	if len(m.TalentStats) != 3 {
		t.Fatalf("员工统计数 = %d, want 3", len(m.TalentStats))
	}
	if m.MinHours != 0 {
		t.Errorf("MinHours = %v, want 0", m.MinHours)
	}
	if m.AvgHoursPerTalent != 3 {
		t.Errorf("平均工时 = %v, want 3", m.AvgHoursPerTalent)
	}
}

func TestFairnessAnalyzer_NoTalents(t *testing.T) {
	m := NewFairnessAnalyzer().Analyze(nil, nil)
	if m.OverallFairnessScore != 100 {
		t.Errorf("空集评分 = %v, want 100", m.OverallFairnessScore)
	}
	if len(m.TalentStats) != 0 {
		t.Errorf("空集不应有员工统计: %+v", m.TalentStats)
	}
}
