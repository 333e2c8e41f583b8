package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/hrdesk/hri-gin/internal/model"
	"gorm.io/gorm"
)

// selectTemplate 为申请单类型选择生效的审批线模板
// 1. 收集生效期覆盖 asOf 的启用绑定, 解析到启用中的模板
// 2. 有候选时按 (priority, id) 降序取第一个
// 3. 无候选时回退到启用中的默认模板, 同样按 (priority, id) 降序
// 4. 仍然没有则返回配置错误, 绝不在没有模板的情况下继续
func (e *Engine) selectTemplate(tx *gorm.DB, formTypeID string, asOf time.Time) (*model.ApprovalLineTemplateModel, error) {
	var maps []*model.FormTypeApprovalMapModel
	err := tx.
		Where("form_type_id = ? AND is_active = ?", formTypeID, true).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to >= ?", asOf).
		Find(&maps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load form type mappings: %w", err)
	}

	var candidates []*model.ApprovalLineTemplateModel
	for _, m := range maps {
		var tpl model.ApprovalLineTemplateModel
		err := tx.Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).Where("id = ? AND is_active = ?", m.TemplateID, true).First(&tpl).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, fmt.Errorf("failed to load template %d: %w", m.TemplateID, err)
		}
		candidates = append(candidates, &tpl)
	}

	if len(candidates) == 0 {
		err := tx.Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).Where("is_default = ? AND is_active = ?", true, true).Find(&candidates).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load default templates: %w", err)
		}
	}

	if len(candidates) == 0 {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("no eligible approval line template for form type %q as of %s",
				formTypeID, asOf.Format("2006-01-02")),
		}
	}

	return pickTemplate(candidates), nil
}

// pickTemplate 确定性裁决: priority 降序, 相同 priority 时 id 更大(更新创建)者胜出
// 这是一条显式保留的策略, 而不是行序的偶然结果
func pickTemplate(candidates []*model.ApprovalLineTemplateModel) *model.ApprovalLineTemplateModel {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ID > candidates[j].ID
	})
	return candidates[0]
}
