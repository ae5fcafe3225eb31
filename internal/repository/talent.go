// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lunban/lunban/pkg/model"
)

// TalentRepository 员工仓储
type TalentRepository struct {
	db DB
}

// NewTalentRepository 创建员工仓储
func NewTalentRepository(db DB) *TalentRepository {
	return &TalentRepository{db: db}
}

// ListActive 列出全部在职员工
func (r *TalentRepository) ListActive(ctx context.Context) ([]*model.Talent, error) {
	query := `
		SELECT talent_id, name, role, weekly_hours, constrained
		FROM talents
		WHERE active = true
		ORDER BY talent_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询员工列表失败: %w", err)
	}
	defer rows.Close()

	var talents []*model.Talent
	for rows.Next() {
		t := &model.Talent{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Role, &t.WeeklyHours, &t.Constrained); err != nil {
			return nil, fmt.Errorf("扫描员工失败: %w", err)
		}
		talents = append(talents, t)
	}

	return talents, rows.Err()
}

// GetByID 根据ID获取员工，不存在时返回 (nil, nil)
func (r *TalentRepository) GetByID(ctx context.Context, id int64) (*model.Talent, error) {
	query := `
		SELECT talent_id, name, role, weekly_hours, constrained
		FROM talents
		WHERE talent_id = $1
	`

	t := &model.Talent{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Role, &t.WeeklyHours, &t.Constrained)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询员工失败: %w", err)
	}

	return t, nil
}

// ListConstraintRules 列出全部员工的约束行
// 按员工ID排序，保证物化结果稳定
func (r *TalentRepository) ListConstraintRules(ctx context.Context) ([]*model.ConstraintRule, error) {
	query := `
		SELECT talent_id, constraint_type, COALESCE(available_day, ''), COALESCE(available_shifts, '')
		FROM talent_constraints
		ORDER BY talent_id, constraint_type, available_day, available_shifts
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询员工约束失败: %w", err)
	}
	defer rows.Close()

	var rules []*model.ConstraintRule
	for rows.Next() {
		var (
			talentID int64
			kind     string
			day      string
			shift    string
		)
		if err := rows.Scan(&talentID, &kind, &day, &shift); err != nil {
			return nil, fmt.Errorf("扫描员工约束失败: %w", err)
		}
		rules = append(rules, &model.ConstraintRule{
			TalentID: talentID,
			Kind:     model.ConstraintKind(kind),
			Day:      day,
			Shift:    model.ShiftName(shift),
		})
	}

	return rules, rows.Err()
}
