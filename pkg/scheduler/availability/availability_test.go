package availability

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

func TestMaterializer_Unconstrained(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	talents := []*model.Talent{
		{ID: 1, Name: "小王", Role: model.RoleServer, WeeklyHours: 40},
	}

	windows := m.Materialize(talents, nil)
	w := windows[1]
	if w == nil {
		t.Fatal("缺少员工1的窗口")
	}
	if w.Constrained {
		t.Error("无约束员工不应标记为受限")
	}
	// 整周7天都有窗口，每天3个班段
	if len(w.Window) != 7 {
		t.Errorf("窗口天数 = %d, want 7", len(w.Window))
	}
	for day, spans := range w.Window {
		if len(spans) != 3 {
			t.Errorf("%s 的时间段数 = %d, want 3", day, len(spans))
		}
	}
	for _, name := range model.AllShiftNames() {
		if !w.AllowsShift(name) {
			t.Errorf("无约束员工应允许班段 %s", name)
		}
	}
}

func TestMaterializer_ConstrainedFlagRequiresRules(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	// 标记了受限但没有任何约束行：按无约束处理
	talents := []*model.Talent{
		{ID: 2, Name: "小李", Role: model.RoleServer, WeeklyHours: 40, Constrained: true},
	}

	windows := m.Materialize(talents, nil)
	if windows[2].Constrained {
		t.Error("无约束行的员工不应保留受限标记")
	}
	if len(windows[2].Window) != 7 {
		t.Errorf("窗口天数 = %d, want 7", len(windows[2].Window))
	}
}

func TestMaterializer_Combination(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	talents := []*model.Talent{
		{ID: 3, Name: "小张", Role: model.RoleBartender, WeeklyHours: 30, Constrained: true},
	}
	rules := []*model.ConstraintRule{
		{TalentID: 3, Kind: model.ConstraintCombination, Day: "Friday", Shift: model.ShiftPM},
		{TalentID: 3, Kind: model.ConstraintCombination, Day: "Saturday", Shift: model.ShiftPM},
	}

	w := m.Materialize(talents, rules)[3]
	if !w.Constrained {
		t.Fatal("组合约束员工应标记为受限")
	}
	if len(w.Window) != 2 {
		t.Errorf("窗口天数 = %d, want 2", len(w.Window))
	}
	if _, ok := w.Window["2024-01-19"]; !ok {
		t.Error("缺少周五的窗口")
	}
	if _, ok := w.Window["2024-01-20"]; !ok {
		t.Error("缺少周六的窗口")
	}
	if !w.AllowsShift(model.ShiftPM) {
		t.Error("应允许PM班段")
	}
	if w.AllowsShift(model.ShiftAM) {
		t.Error("不应允许AM班段")
	}
}

func TestMaterializer_ShiftRestriction(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	talents := []*model.Talent{
		{ID: 4, Name: "小赵", Role: model.RoleRunner, WeeklyHours: 20, Constrained: true},
	}
	rules := []*model.ConstraintRule{
		{TalentID: 4, Kind: model.ConstraintShiftRestriction, Shift: model.ShiftAM},
	}

	w := m.Materialize(talents, rules)[4]
	// 班段受限但整周放开
	if len(w.Window) != 7 {
		t.Errorf("窗口天数 = %d, want 7", len(w.Window))
	}
	if !w.AllowsShift(model.ShiftAM) {
		t.Error("应允许AM班段")
	}
	if w.AllowsShift(model.ShiftPM) || w.AllowsShift(model.ShiftLounge) {
		t.Error("不应允许AM以外的班段")
	}
	// 每天只有一个AM时间段
	for day, spans := range w.Window {
		if len(spans) != 1 {
			t.Errorf("%s 的时间段数 = %d, want 1", day, len(spans))
		}
	}
}

func TestMaterializer_Availability(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	talents := []*model.Talent{
		{ID: 5, Name: "小钱", Role: model.RoleHostess, WeeklyHours: 24, Constrained: true},
	}
	rules := []*model.ConstraintRule{
		{TalentID: 5, Kind: model.ConstraintAvailability, Day: "Monday"},
		{TalentID: 5, Kind: model.ConstraintAvailability, Day: "Wednesday"},
	}

	w := m.Materialize(talents, rules)[5]
	if len(w.Window) != 2 {
		t.Errorf("窗口天数 = %d, want 2", len(w.Window))
	}
	if _, ok := w.Window["2024-01-15"]; !ok {
		t.Error("缺少周一的窗口")
	}
	if _, ok := w.Window["2024-01-17"]; !ok {
		t.Error("缺少周三的窗口")
	}
	// 仅限定星期时班段放开为全量
	for _, name := range model.AllShiftNames() {
		if !w.AllowsShift(name) {
			t.Errorf("应允许班段 %s", name)
		}
	}
}

func TestIndexer_ConstrainedFirst(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	talents := []*model.Talent{
		{ID: 10, Name: "甲", Role: model.RoleServer, WeeklyHours: 40},
		{ID: 11, Name: "乙", Role: model.RoleServer, WeeklyHours: 40, Constrained: true},
		{ID: 12, Name: "丙", Role: model.RoleServer, WeeklyHours: 40},
	}
	rules := []*model.ConstraintRule{
		{TalentID: 11, Kind: model.ConstraintShiftRestriction, Shift: model.ShiftAM},
	}

	windows := m.Materialize(talents, rules)
	ix := NewIndexer(windows)

	date, _ := frame.DateOf("Monday")
	spec := &model.ShiftSpec{
		TemplateID: 1,
		PeriodID:   1,
		Start:      date.Add(6 * time.Hour),
		End:        date.Add(15 * time.Hour),
		ShiftName:  model.ShiftAM,
		Role:       model.RoleServer,
		Required:   2,
	}

	got := ix.EligibleFor(spec)
	want := []int64{11, 10, 12} // 受限员工优先，其后按ID升序
	if len(got) != len(want) {
		t.Fatalf("候选数 = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("候选[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIndexer_EligibleFor_Filters(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	talents := []*model.Talent{
		{ID: 20, Name: "甲", Role: model.RoleServer, WeeklyHours: 40},
		{ID: 21, Name: "乙", Role: model.RoleBartender, WeeklyHours: 40},       // 角色不匹配
		{ID: 22, Name: "丙", Role: model.RoleServer, WeeklyHours: 40, Constrained: true}, // 仅PM
	}
	rules := []*model.ConstraintRule{
		{TalentID: 22, Kind: model.ConstraintShiftRestriction, Shift: model.ShiftPM},
	}

	windows := m.Materialize(talents, rules)
	ix := NewIndexer(windows)

	date, _ := frame.DateOf("Tuesday")
	am := &model.ShiftSpec{
		TemplateID: 1,
		PeriodID:   1,
		Start:      date.Add(6 * time.Hour),
		End:        date.Add(15 * time.Hour),
		ShiftName:  model.ShiftAM,
		Role:       model.RoleServer,
		Required:   2,
	}

	got := ix.EligibleFor(am)
	if len(got) != 1 || got[0] != 20 {
		t.Errorf("EligibleFor(AM) = %v, want [20]", got)
	}

	pm := &model.ShiftSpec{
		TemplateID: 2,
		PeriodID:   2,
		Start:      date.Add(15 * time.Hour),
		End:        date.Add(23*time.Hour + 30*time.Minute),
		ShiftName:  model.ShiftPM,
		Role:       model.RoleServer,
		Required:   2,
	}

	got = ix.EligibleFor(pm)
	want := []int64{22, 20}
	if len(got) != len(want) {
		t.Fatalf("EligibleFor(PM) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EligibleFor(PM)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIndexer_Index(t *testing.T) {
	frame := testFrame(t)
	m := NewMaterializer(frame)

	talents := []*model.Talent{
		{ID: 30, Name: "甲", Role: model.RoleServer, WeeklyHours: 40},
	}
	windows := m.Materialize(talents, nil)
	ix := NewIndexer(windows)

	date, _ := frame.DateOf("Monday")
	spec := &model.ShiftSpec{
		TemplateID: 1,
		PeriodID:   1,
		Start:      date.Add(6 * time.Hour),
		End:        date.Add(15 * time.Hour),
		ShiftName:  model.ShiftAM,
		Role:       model.RoleServer,
		Required:   2,
	}
	slots := map[string]*model.ShiftSpec{spec.SlotID(): spec}

	eligibility := ix.Index(slots)
	if len(eligibility) != 1 {
		t.Fatalf("索引条目数 = %d, want 1", len(eligibility))
	}
	if got := eligibility[spec.SlotID()]; len(got) != 1 || got[0] != 30 {
		t.Errorf("候选 = %v, want [30]", got)
	}
}
