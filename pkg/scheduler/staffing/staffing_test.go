package staffing

import (
	"testing"
	"time"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

func TestResolver_TierFor(t *testing.T) {
	r := NewResolver(nil, nil)

	tests := []struct {
		day  string
		want Tier
	}{
		{"Monday", TierLow},
		{"Tuesday", TierLow},
		{"Wednesday", TierMed},
		{"Thursday", TierMed},
		{"Friday", TierHigh},
		{"Saturday", TierHigh},
		{"Sunday", TierHigh},
		{"Funday", TierMed}, // 未知星期回落到中档
	}

	for _, tt := range tests {
		if got := r.TierFor(tt.day); got != tt.want {
			t.Errorf("TierFor(%s) = %s, want %s", tt.day, got, tt.want)
		}
	}
}

func TestResolver_RequiredFor(t *testing.T) {
	r := NewResolver(nil, nil)

	tests := []struct {
		role model.Role
		tier Tier
		want int
	}{
		{model.RoleManager, TierLow, 1},
		{model.RoleManager, TierHigh, 1},
		{model.RoleServer, TierLow, 2},
		{model.RoleServer, TierMed, 3},
		{model.RoleServer, TierHigh, 4},
		{model.RoleHostess, TierMed, 1},
		{model.RoleHostess, TierHigh, 2},
		{model.RoleBartender, TierHigh, 3},
	}

	for _, tt := range tests {
		got, err := r.RequiredFor(tt.role, tt.tier)
		if err != nil {
			t.Errorf("RequiredFor(%s, %s) error = %v", tt.role, tt.tier, err)
			continue
		}
		if got != tt.want {
			t.Errorf("RequiredFor(%s, %s) = %d, want %d", tt.role, tt.tier, got, tt.want)
		}
	}

	_, err := r.RequiredFor(model.Role("chef"), TierLow)
	if err == nil {
		t.Fatal("未知岗位应返回错误")
	}
	if !errors.Is(err, errors.CodeUnknownRole) {
		t.Errorf("错误码 = %s, want UNKNOWN_ROLE", errors.GetCode(err))
	}
}

func testCatalog(t *testing.T) ([]*model.Period, []*model.Template) {
	t.Helper()

	am, err := model.NewPeriod(1, model.ShiftAM, 6*time.Hour, 15*time.Hour)
	if err != nil {
		t.Fatalf("创建AM班段失败: %v", err)
	}
	pm, err := model.NewPeriod(2, model.ShiftPM, 15*time.Hour, 23*time.Hour+30*time.Minute)
	if err != nil {
		t.Fatalf("创建PM班段失败: %v", err)
	}

	tplAM, err := model.NewTemplate(11, am, model.RoleServer, 6*time.Hour, 15*time.Hour)
	if err != nil {
		t.Fatalf("创建AM模板失败: %v", err)
	}
	tplPM, err := model.NewTemplate(12, pm, model.RoleServer, 15*time.Hour, 23*time.Hour+30*time.Minute)
	if err != nil {
		t.Fatalf("创建PM模板失败: %v", err)
	}

	return []*model.Period{am, pm}, []*model.Template{tplAM, tplPM}
}

func TestExpander_ExpandWeek(t *testing.T) {
	periods, templates := testCatalog(t)
	anchor, _ := time.Parse(model.DateLayout, "2024-01-14")
	frame := model.NewWeekFrame(anchor)

	e := NewExpander(nil)
	slots, err := e.ExpandWeek(frame, periods, templates)
	if err != nil {
		t.Fatalf("ExpandWeek() error = %v", err)
	}

	// 7天 × 2班段 × 1岗位
	if len(slots) != 14 {
		t.Fatalf("槽位数 = %d, want 14", len(slots))
	}

	// 槽位标识模式固定
	spec, ok := slots["11__2024-01-15__1__server"]
	if !ok {
		t.Fatal("缺少周一AM的server槽位")
	}
	if spec.ShiftName != model.ShiftAM {
		t.Errorf("ShiftName = %s, want am", spec.ShiftName)
	}
	// 周一是低档，server需2人
	if spec.Required != 2 {
		t.Errorf("Required = %d, want 2", spec.Required)
	}
	wantStart, _ := time.Parse(model.DateLayout, "2024-01-15")
	if !spec.Start.Equal(wantStart.Add(6 * time.Hour)) {
		t.Errorf("Start = %v, want %v", spec.Start, wantStart.Add(6*time.Hour))
	}

	// 周五是高档，server需4人
	friday, ok := slots["11__2024-01-19__1__server"]
	if !ok {
		t.Fatal("缺少周五AM的server槽位")
	}
	if friday.Required != 4 {
		t.Errorf("周五 Required = %d, want 4", friday.Required)
	}
}

func TestExpander_ExpandWeek_NoPeriods(t *testing.T) {
	anchor, _ := time.Parse(model.DateLayout, "2024-01-14")
	frame := model.NewWeekFrame(anchor)

	e := NewExpander(nil)
	_, err := e.ExpandWeek(frame, nil, nil)
	if err == nil {
		t.Fatal("空班段目录应返回错误")
	}
	if !errors.Is(err, errors.CodeNoPeriods) {
		t.Errorf("错误码 = %s, want NO_PERIODS", errors.GetCode(err))
	}
}

func TestExpander_ExpandWeek_UnknownRoleTemplate(t *testing.T) {
	periods, templates := testCatalog(t)
	// 绕过构造器校验直接塞入未知岗位模板
	templates = append(templates, &model.Template{
		ID:         99,
		PeriodID:   1,
		Role:       model.Role("chef"),
		ShiftStart: 6 * time.Hour,
		ShiftEnd:   15 * time.Hour,
	})

	anchor, _ := time.Parse(model.DateLayout, "2024-01-14")
	frame := model.NewWeekFrame(anchor)

	e := NewExpander(nil)
	_, err := e.ExpandWeek(frame, periods, templates)
	if !errors.Is(err, errors.CodeUnknownRole) {
		t.Errorf("错误码 = %s, want UNKNOWN_ROLE", errors.GetCode(err))
	}
}
