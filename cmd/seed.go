/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/hrdesk/hri-gin/internal/config"
	"github.com/hrdesk/hri-gin/internal/database"
	"github.com/hrdesk/hri-gin/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo data",
	Long: `Seed the database with demo data for local development:
form types, approval line templates, actor resolution rules,
and a small organization directory with login passwords.

Seeding is idempotent, existing rows are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 连接数据库
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		// 3. 写入种子数据
		if err := Seed(db); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}

		log.Println("Seed data loaded successfully!")
		return nil
	},
}

// Seed 写入演示数据, 幂等
func Seed(db *gorm.DB) error {
	now := time.Now()

	// 组织目录: dana 是 HR 管理员, bob 是团队长, carol 是部门长
	users := []model.UserModel{
		{ID: "u-alice", Name: "Alice Kim", IsActive: true},
		{ID: "u-bob", Name: "Bob Lee", IsActive: true},
		{ID: "u-carol", Name: "Carol Park", IsActive: true},
		{ID: "u-dana", Name: "Dana Choi", IsActive: true},
	}
	for i := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		users[i].PasswordHash = string(hash)
		users[i].CreatedAt = now
		users[i].UpdatedAt = now
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	employees := []model.EmployeeModel{
		{UserID: "u-alice", OrgUnitID: "org-dev", PositionTitle: "Software Engineer", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-bob", OrgUnitID: "org-dev", PositionTitle: "Team Lead", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-carol", OrgUnitID: "org-dev", PositionTitle: "Department Head", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
		{UserID: "u-dana", OrgUnitID: "org-hr", PositionTitle: "HR Manager", EmploymentStatus: model.EmploymentActive, CreatedAt: now, UpdatedAt: now},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&employees).Error; err != nil {
		return fmt.Errorf("failed to seed employees: %w", err)
	}

	roles := []model.UserRoleModel{
		{UserID: "u-dana", RoleCode: "HR_ADMIN"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("failed to seed user roles: %w", err)
	}

	// 申请单类型
	forms := []model.FormTypeModel{
		{ID: "LEAVE", Name: "Leave Request", Module: "attendance", Prefix: "LV", AllowDraftEdit: true, AllowWithdraw: true, RequiresReceive: false, CreatedAt: now, UpdatedAt: now},
		{ID: "CERT", Name: "Employment Certificate", Module: "documents", Prefix: "CT", AllowDraftEdit: true, AllowWithdraw: false, RequiresReceive: true, CreatedAt: now, UpdatedAt: now},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&forms).Error; err != nil {
		return fmt.Errorf("failed to seed form types: %w", err)
	}

	// 解析规则
	rules := []model.ActorResolutionRuleModel{
		{RoleCode: "TEAM_LEAD", Method: model.ResolveMethodOrgChain, Keywords: "team lead", FallbackPolicy: model.FallbackEscalate, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{RoleCode: "DEPT_HEAD", Method: model.ResolveMethodOrgChain, Keywords: "department head", FallbackPolicy: model.FallbackHRAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{RoleCode: "HR_STAFF", Method: model.ResolveMethodFixedUser, FallbackPolicy: model.FallbackHRAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	for _, rule := range rules {
		var count int64
		db.Model(&model.ActorResolutionRuleModel{}).Where("role_code = ?", rule.RoleCode).Count(&count)
		if count == 0 {
			if err := db.Create(&rule).Error; err != nil {
				return fmt.Errorf("failed to seed resolution rule %q: %w", rule.RoleCode, err)
			}
		}
	}

	// 审批线模板: 休假单走两级审批, 证明书发放走一级审批 + HR 接收
	var tplCount int64
	db.Model(&model.ApprovalLineTemplateModel{}).Count(&tplCount)
	if tplCount == 0 {
		leaveTpl := model.ApprovalLineTemplateModel{
			Name: "Standard Leave Line", Scope: "GLOBAL", IsActive: true, IsDefault: true, Priority: 10,
			CreatedAt: now, UpdatedAt: now,
			Steps: []model.ApprovalLineStepModel{
				{StepOrder: 1, StepType: model.StepTypeApproval, ResolveMode: model.ResolveModeRoleBased, RoleCode: "TEAM_LEAD", RequiredAction: "APPROVE"},
				{StepOrder: 2, StepType: model.StepTypeApproval, ResolveMode: model.ResolveModeRoleBased, RoleCode: "DEPT_HEAD", RequiredAction: "APPROVE"},
				{StepOrder: 3, StepType: model.StepTypeReference, ResolveMode: model.ResolveModeRoleBased, RoleCode: "HR_STAFF", RequiredAction: "APPROVE"},
			},
		}
		if err := db.Create(&leaveTpl).Error; err != nil {
			return fmt.Errorf("failed to seed leave template: %w", err)
		}

		certTpl := model.ApprovalLineTemplateModel{
			Name: "Certificate Issue Line", Scope: "GLOBAL", IsActive: true, IsDefault: true, Priority: 10,
			CreatedAt: now, UpdatedAt: now,
			Steps: []model.ApprovalLineStepModel{
				{StepOrder: 1, StepType: model.StepTypeApproval, ResolveMode: model.ResolveModeRoleBased, RoleCode: "TEAM_LEAD", RequiredAction: "APPROVE"},
				{StepOrder: 2, StepType: model.StepTypeReceive, ResolveMode: model.ResolveModeRoleBased, RoleCode: "HR_STAFF", RequiredAction: "RECEIVE"},
			},
		}
		if err := db.Create(&certTpl).Error; err != nil {
			return fmt.Errorf("failed to seed certificate template: %w", err)
		}

		maps := []model.FormTypeApprovalMapModel{
			{FormTypeID: "LEAVE", TemplateID: leaveTpl.ID, EffectiveFrom: now.AddDate(0, -1, 0), IsActive: true, CreatedAt: now, UpdatedAt: now},
			{FormTypeID: "CERT", TemplateID: certTpl.ID, EffectiveFrom: now.AddDate(0, -1, 0), IsActive: true, CreatedAt: now, UpdatedAt: now},
		}
		if err := db.Create(&maps).Error; err != nil {
			return fmt.Errorf("failed to seed form type maps: %w", err)
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)

	// 添加配置标志
	seedCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.hri-gin)")
}
