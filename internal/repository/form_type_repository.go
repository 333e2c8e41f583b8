package repository

import (
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/hrdesk/hri-gin/internal/workflow"
	"gorm.io/gorm"
)

// formTypeRepository 申请单类型仓储, 实现 workflow.FormRegistry
type formTypeRepository struct {
	db *gorm.DB
}

// NewFormTypeRepository 创建申请单类型仓储
func NewFormTypeRepository(db *gorm.DB) workflow.FormRegistry {
	return &formTypeRepository{db: db}
}

// FormType 根据 ID 查询申请单类型, 不存在时返回 (nil, nil)
func (r *formTypeRepository) FormType(id string) (*model.FormTypeModel, error) {
	var form model.FormTypeModel
	if err := r.db.Where("id = ?", id).First(&form).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &form, nil
}
