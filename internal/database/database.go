package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hrdesk/hri-gin/internal/config"
	"github.com/hrdesk/hri-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数，如果没有配置则使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb，需要手动创建表
	// GORM SQLite dialector 的名称可能是 "sqlite" 或 "sqlite3"
	if dialector == "sqlite" || dialector == "sqlite3" {
		// 手动创建 SQLite 表（使用 TEXT 替代 jsonb）
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.FormTypeModel{},
			&model.ApprovalLineTemplateModel{},
			&model.ApprovalLineStepModel{},
			&model.FormTypeApprovalMapModel{},
			&model.ActorResolutionRuleModel{},
			&model.RequestMasterModel{},
			&model.RequestStepSnapshotModel{},
			&model.RequestHistoryModel{},
			&model.RequestCounterModel{},
			&model.UserModel{},
			&model.EmployeeModel{},
			&model.UserRoleModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	statements := []struct {
		table string
		ddl   string
	}{
		{"form_types", `
			CREATE TABLE IF NOT EXISTS form_types (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				module VARCHAR(64) NOT NULL,
				prefix VARCHAR(16) NOT NULL,
				allow_draft_edit BOOLEAN NOT NULL DEFAULT 1,
				allow_withdraw BOOLEAN NOT NULL DEFAULT 1,
				requires_receive BOOLEAN NOT NULL DEFAULT 0,
				default_priority INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)
		`},
		{"approval_line_templates", `
			CREATE TABLE IF NOT EXISTS approval_line_templates (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name VARCHAR(255) NOT NULL,
				scope VARCHAR(64),
				is_active BOOLEAN NOT NULL DEFAULT 1,
				is_default BOOLEAN NOT NULL DEFAULT 0,
				priority INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)
		`},
		{"approval_line_steps", `
			CREATE TABLE IF NOT EXISTS approval_line_steps (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				template_id INTEGER NOT NULL,
				step_order INTEGER NOT NULL,
				step_type VARCHAR(32) NOT NULL,
				resolve_mode VARCHAR(32) NOT NULL,
				role_code VARCHAR(64),
				fixed_user_id VARCHAR(64),
				allow_delegate BOOLEAN NOT NULL DEFAULT 0,
				required_action VARCHAR(32),
				UNIQUE (template_id, step_order)
			)
		`},
		{"form_type_approval_maps", `
			CREATE TABLE IF NOT EXISTS form_type_approval_maps (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				form_type_id VARCHAR(64) NOT NULL,
				template_id INTEGER NOT NULL,
				effective_from DATETIME NOT NULL,
				effective_to DATETIME,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)
		`},
		{"actor_resolution_rules", `
			CREATE TABLE IF NOT EXISTS actor_resolution_rules (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				role_code VARCHAR(64) NOT NULL,
				method VARCHAR(32) NOT NULL,
				keywords TEXT,
				fallback_policy VARCHAR(32) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)
		`},
		{"request_masters", `
			CREATE TABLE IF NOT EXISTS request_masters (
				id VARCHAR(64) PRIMARY KEY,
				request_no VARCHAR(64),
				form_type_id VARCHAR(64) NOT NULL,
				requester_id VARCHAR(64) NOT NULL,
				title VARCHAR(255) NOT NULL,
				content TEXT,
				status VARCHAR(32) NOT NULL,
				current_step_order INTEGER,
				submitted_at DATETIME,
				completed_at DATETIME,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)
		`},
		{"request_step_snapshots", `
			CREATE TABLE IF NOT EXISTS request_step_snapshots (
				id VARCHAR(64) PRIMARY KEY,
				request_id VARCHAR(64) NOT NULL,
				step_order INTEGER NOT NULL,
				step_type VARCHAR(32) NOT NULL,
				actor_id VARCHAR(64) NOT NULL,
				actor_name VARCHAR(255),
				actor_org_id VARCHAR(64),
				action_status VARCHAR(32) NOT NULL,
				acted_at DATETIME,
				comment TEXT,
				created_at DATETIME NOT NULL,
				UNIQUE (request_id, step_order)
			)
		`},
		{"request_histories", `
			CREATE TABLE IF NOT EXISTS request_histories (
				id VARCHAR(64) PRIMARY KEY,
				request_id VARCHAR(64) NOT NULL,
				event_type VARCHAR(32) NOT NULL,
				from_status VARCHAR(32),
				to_status VARCHAR(32) NOT NULL,
				actor_id VARCHAR(64) NOT NULL,
				payload TEXT,
				created_at DATETIME NOT NULL
			)
		`},
		{"request_counters", `
			CREATE TABLE IF NOT EXISTS request_counters (
				scope_key VARCHAR(64) PRIMARY KEY,
				last_seq BIGINT NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL
			)
		`},
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				password_hash VARCHAR(255),
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)
		`},
		{"employees", `
			CREATE TABLE IF NOT EXISTS employees (
				user_id VARCHAR(64) PRIMARY KEY,
				org_unit_id VARCHAR(64),
				position_title VARCHAR(255),
				employment_status VARCHAR(32) NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)
		`},
		{"user_roles", `
			CREATE TABLE IF NOT EXISTS user_roles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id VARCHAR(64) NOT NULL,
				role_code VARCHAR(64) NOT NULL,
				UNIQUE (user_id, role_code)
			)
		`},
		{"audit_logs", `
			CREATE TABLE IF NOT EXISTS audit_logs (
				id VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(64) NOT NULL,
				action VARCHAR(64) NOT NULL,
				resource_type VARCHAR(32) NOT NULL,
				resource_id VARCHAR(64) NOT NULL,
				request_id VARCHAR(64),
				ip VARCHAR(45),
				user_agent TEXT,
				details TEXT,
				created_at DATETIME NOT NULL
			)
		`},
	}

	for _, s := range statements {
		if err := db.Exec(s.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.table, err)
		}
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	indexes := []string{
		// request_masters 表索引
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_request_no ON request_masters(request_no) WHERE request_no IS NOT NULL AND request_no <> ''",
		"CREATE INDEX IF NOT EXISTS idx_requests_requester ON request_masters(requester_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_requests_status ON request_masters(status)",
		"CREATE INDEX IF NOT EXISTS idx_requests_form_type ON request_masters(form_type_id)",

		// request_step_snapshots 表索引
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_request_order ON request_step_snapshots(request_id, step_order)",
		"CREATE INDEX IF NOT EXISTS idx_snapshots_actor ON request_step_snapshots(actor_id, action_status)",

		// request_histories 表索引
		"CREATE INDEX IF NOT EXISTS idx_histories_request ON request_histories(request_id, created_at)",

		// 审批线配置索引
		"CREATE INDEX IF NOT EXISTS idx_maps_form_type ON form_type_approval_maps(form_type_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_steps_template ON approval_line_steps(template_id, step_order)",
		"CREATE INDEX IF NOT EXISTS idx_rules_role_code ON actor_resolution_rules(role_code, is_active)",

		// 组织目录索引
		"CREATE INDEX IF NOT EXISTS idx_employees_org ON employees(org_unit_id, employment_status)",
		"CREATE INDEX IF NOT EXISTS idx_user_roles_role ON user_roles(role_code)",

		// audit_logs 表索引
		"CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// PostgreSQL 特定的 GIN 索引
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_requests_content_gin ON request_masters USING GIN (content)").Error; err != nil {
			return fmt.Errorf("failed to create idx_requests_content_gin: %w", err)
		}
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_histories_payload_gin ON request_histories USING GIN (payload)").Error; err != nil {
			return fmt.Errorf("failed to create idx_histories_payload_gin: %w", err)
		}
	}

	return nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}

// Reconnect 重新连接数据库
func Reconnect(cfg config.DatabaseConfig, oldDB *gorm.DB) (*gorm.DB, error) {
	// 关闭旧连接
	if oldDB != nil {
		if sqlDB, err := oldDB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	// 重新连接
	return Connect(cfg)
}
