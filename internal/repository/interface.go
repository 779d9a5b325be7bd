package repository

import (
	"strings"

	"gorm.io/gorm"
)

// BaseRepository 基础仓储接口
type BaseRepository interface {
	// GetDB 获取数据库实例
	GetDB() *gorm.DB
	// WithTx 使用事务
	WithTx(tx *gorm.DB) BaseRepository
}

// BaseRepo 基础仓储实现
type BaseRepo struct {
	db *gorm.DB
}

// GetDB 获取数据库实例
func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// isUniqueViolation 判断是否为唯一约束冲突（sqlite/mysql/postgres）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
