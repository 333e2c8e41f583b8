package workflow

import (
	"fmt"
	"time"

	"github.com/hrdesk/hri-gin/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nextRequestNo 签发人类可读的申请单编号 PREFIX-YYYYMM-NNNNNN
// 计数器按 年月+类型编码 分作用域, 作用域切换时序号隐式归零
// 行级锁保证同作用域并发提交不会拿到重复编号
func (e *Engine) nextRequestNo(tx *gorm.DB, form *model.FormTypeModel, now time.Time) (string, error) {
	yearMonth := now.Format("200601")
	scopeKey := yearMonth + "-" + form.ID

	// 计数器行不存在时先占位, 已存在则忽略
	seed := &model.RequestCounterModel{ScopeKey: scopeKey, LastSeq: 0, UpdatedAt: now}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return "", fmt.Errorf("failed to seed request counter %q: %w", scopeKey, err)
	}

	// 锁定作用域行后递增
	var counter model.RequestCounterModel
	if err := forUpdate(tx).Where("scope_key = ?", scopeKey).First(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to lock request counter %q: %w", scopeKey, err)
	}

	counter.LastSeq++
	counter.UpdatedAt = now
	if err := tx.Save(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to advance request counter %q: %w", scopeKey, err)
	}

	return fmt.Sprintf("%s-%s-%06d", form.Prefix, yearMonth, counter.LastSeq), nil
}

// forUpdate 为支持行级锁的数据库加 SELECT ... FOR UPDATE
// SQLite 不支持该语法, 依赖其单写事务语义串行化
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
