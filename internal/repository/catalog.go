// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lunban/lunban/pkg/model"
)

// CatalogRepository 班段与模板目录仓储
type CatalogRepository struct {
	db DB
}

// NewCatalogRepository 创建目录仓储
func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListPeriods 列出全部班段
// 起止时间以自午夜起的秒数存储
func (r *CatalogRepository) ListPeriods(ctx context.Context) ([]*model.Period, error) {
	query := `
		SELECT id, shift_name, start_seconds, end_seconds
		FROM periods
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询班段目录失败: %w", err)
	}
	defer rows.Close()

	var periods []*model.Period
	for rows.Next() {
		var (
			id           int64
			name         string
			startSeconds int64
			endSeconds   int64
		)
		if err := rows.Scan(&id, &name, &startSeconds, &endSeconds); err != nil {
			return nil, fmt.Errorf("扫描班段失败: %w", err)
		}
		p, err := model.NewPeriod(id, model.ShiftName(name),
			time.Duration(startSeconds)*time.Second,
			time.Duration(endSeconds)*time.Second)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

// ListTemplates 列出全部班次模板
func (r *CatalogRepository) ListTemplates(ctx context.Context, periods []*model.Period) ([]*model.Template, error) {
	periodByID := make(map[int64]*model.Period, len(periods))
	for _, p := range periods {
		periodByID[p.ID] = p
	}

	query := `
		SELECT id, period_id, role, start_seconds, end_seconds
		FROM shift_templates
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询模板目录失败: %w", err)
	}
	defer rows.Close()

	var templates []*model.Template
	for rows.Next() {
		var (
			id           int64
			periodID     int64
			role         string
			startSeconds int64
			endSeconds   int64
		)
		if err := rows.Scan(&id, &periodID, &role, &startSeconds, &endSeconds); err != nil {
			return nil, fmt.Errorf("扫描模板失败: %w", err)
		}
		period, ok := periodByID[periodID]
		if !ok {
			return nil, fmt.Errorf("模板 %d 引用了不存在的班段 %d", id, periodID)
		}
		t, err := model.NewTemplate(id, period, model.Role(role),
			time.Duration(startSeconds)*time.Second,
			time.Duration(endSeconds)*time.Second)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}
