// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lunban/lunban/pkg/model"
)

// 排班状态
const (
	StatusDraft = "draft"
	StatusFinal = "final"
)

// WeekSchedule 周排班记录
type WeekSchedule struct {
	ID          uuid.UUID `json:"id"`
	WeekStart   string    `json:"week_start"` // 周日 (YYYY-MM-DD)
	WeekEnd     string    `json:"week_end"`   // 周六
	Status      string    `json:"status"`     // draft/final
	TotalSlots  int       `json:"total_slots"`
	FilledSlots int       `json:"filled_slots"`
	FillRate    float64   `json:"fill_rate"`
	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ScheduledShift 已落库的排班分配行
type ScheduledShift struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	TalentID   int64     `json:"talent_id"`
	SlotID     string    `json:"slot_id"`
	Date       string    `json:"date"`
	ShiftName  string    `json:"shift_name"`
	Role       string    `json:"role"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Hours      float64   `json:"hours"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScheduleRepository 周排班仓储
type ScheduleRepository struct {
	db TxRunner
}

// NewScheduleRepository 创建周排班仓储
func NewScheduleRepository(db TxRunner) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create 创建周排班记录
func (r *ScheduleRepository) Create(ctx context.Context, s *WeekSchedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `
		INSERT INTO week_schedules (
			id, week_start, week_end, status,
			total_slots, filled_slots, fill_rate,
			generated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.WeekStart, s.WeekEnd, s.Status,
		s.TotalSlots, s.FilledSlots, s.FillRate,
		s.GeneratedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建周排班记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取周排班，不存在时返回 (nil, nil)
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*WeekSchedule, error) {
	query := `
		SELECT id, week_start, week_end, status,
			total_slots, filled_slots, fill_rate,
			generated_at, created_at, updated_at
		FROM week_schedules
		WHERE id = $1
	`

	return r.scanSchedule(r.db.QueryRowContext(ctx, query, id))
}

// GetByWeekStart 按周起始日期获取周排班，不存在时返回 (nil, nil)
// 同一周只允许存在一条记录
func (r *ScheduleRepository) GetByWeekStart(ctx context.Context, weekStart string) (*WeekSchedule, error) {
	query := `
		SELECT id, week_start, week_end, status,
			total_slots, filled_slots, fill_rate,
			generated_at, created_at, updated_at
		FROM week_schedules
		WHERE week_start = $1
	`

	return r.scanSchedule(r.db.QueryRowContext(ctx, query, weekStart))
}

// UpdateStatus 更新周排班状态
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE week_schedules SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新周排班状态失败: %w", err)
	}
	return nil
}

// Delete 在同一事务中删除周排班及其全部分配行
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM scheduled_shifts WHERE schedule_id = $1", id); err != nil {
			return fmt.Errorf("删除排班分配失败: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM week_schedules WHERE id = $1", id); err != nil {
			return fmt.Errorf("删除周排班记录失败: %w", err)
		}
		return nil
	})
}

// List 列出周排班
func (r *ScheduleRepository) List(ctx context.Context, filter ListFilter) ([]*WeekSchedule, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("week_start >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("week_start <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM week_schedules %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计周排班数量失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, week_start, week_end, status,
			total_slots, filled_slots, fill_rate,
			generated_at, created_at, updated_at
		FROM week_schedules %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询周排班列表失败: %w", err)
	}
	defer rows.Close()

	var schedules []*WeekSchedule
	for rows.Next() {
		s, err := r.scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		schedules = append(schedules, s)
	}

	return schedules, total, rows.Err()
}

// SaveAssignments 在同一事务中批量落库方案分配
// 任何一行失败都整体回滚，不留下半份方案
func (r *ScheduleRepository) SaveAssignments(ctx context.Context, scheduleID uuid.UUID, plan model.Plan) error {
	query := `
		INSERT INTO scheduled_shifts (
			id, schedule_id, talent_id, slot_id, date,
			shift_name, role, start_time, end_time, hours, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("预编译排班分配语句失败: %w", err)
		}
		defer stmt.Close()

		for _, a := range plan {
			_, err := stmt.ExecContext(ctx,
				uuid.New(), scheduleID, a.TalentID, a.SlotID, a.Date(),
				string(a.Shift.ShiftName), string(a.Shift.Role),
				a.Shift.Start, a.Shift.End, a.WorkingHours(), now,
			)
			if err != nil {
				return fmt.Errorf("写入排班分配失败: %w", err)
			}
		}
		return nil
	})
}

// GetAssignments 获取周排班的全部分配行
func (r *ScheduleRepository) GetAssignments(ctx context.Context, scheduleID uuid.UUID) ([]*ScheduledShift, error) {
	query := `
		SELECT id, schedule_id, talent_id, slot_id, date,
			shift_name, role, start_time, end_time, hours, created_at
		FROM scheduled_shifts
		WHERE schedule_id = $1
		ORDER BY date, start_time, slot_id, talent_id
	`

	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("查询排班分配失败: %w", err)
	}
	defer rows.Close()

	var shifts []*ScheduledShift
	for rows.Next() {
		s := &ScheduledShift{}
		if err := rows.Scan(
			&s.ID, &s.ScheduleID, &s.TalentID, &s.SlotID, &s.Date,
			&s.ShiftName, &s.Role, &s.StartTime, &s.EndTime, &s.Hours, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描排班分配失败: %w", err)
		}
		shifts = append(shifts, s)
	}

	return shifts, rows.Err()
}

// GetHistory 查询日期窗口内已落库的分配，用作下一周生成的历史上下文
// 窗口为 [start, end)，只取已定稿的周排班
func (r *ScheduleRepository) GetHistory(ctx context.Context, start, end string) ([]*model.Assignment, error) {
	query := `
		SELECT ss.talent_id, ss.slot_id, ss.shift_name, ss.role, ss.start_time, ss.end_time
		FROM scheduled_shifts ss
		JOIN week_schedules ws ON ws.id = ss.schedule_id
		WHERE ws.status = $1 AND ss.date >= $2 AND ss.date < $3
		ORDER BY ss.start_time, ss.slot_id, ss.talent_id
	`

	rows, err := r.db.QueryContext(ctx, query, StatusFinal, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询历史排班失败: %w", err)
	}
	defer rows.Close()

	var history []*model.Assignment
	for rows.Next() {
		var (
			talentID   int64
			slotID     string
			shiftName  string
			role       string
			startTime  time.Time
			endTime    time.Time
		)
		if err := rows.Scan(&talentID, &slotID, &shiftName, &role, &startTime, &endTime); err != nil {
			return nil, fmt.Errorf("扫描历史排班失败: %w", err)
		}
		history = append(history, &model.Assignment{
			TalentID: talentID,
			SlotID:   slotID,
			Shift: &model.ShiftSpec{
				Start:     startTime,
				End:       endTime,
				ShiftName: model.ShiftName(shiftName),
				Role:      model.Role(role),
			},
		})
	}

	return history, rows.Err()
}

// scanSchedule 扫描单行周排班，无行时返回 (nil, nil)
func (r *ScheduleRepository) scanSchedule(row Scanner) (*WeekSchedule, error) {
	s := &WeekSchedule{}

	err := row.Scan(
		&s.ID, &s.WeekStart, &s.WeekEnd, &s.Status,
		&s.TotalSlots, &s.FilledSlots, &s.FillRate,
		&s.GeneratedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描周排班记录失败: %w", err)
	}

	return s, nil
}
