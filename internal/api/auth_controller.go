package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hrdesk/hri-gin/internal/config"
	"github.com/hrdesk/hri-gin/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthController 认证控制器
type AuthController struct {
	db  *gorm.DB
	cfg *config.AuthConfig
}

// NewAuthController 创建认证控制器
func NewAuthController(db *gorm.DB, cfg *config.AuthConfig) *AuthController {
	return &AuthController{db: db, cfg: cfg}
}

// LoginRequest 登录请求
type LoginRequest struct {
	UserID   string `json:"user_id" binding:"required"`  // 用户 ID
	Password string `json:"password" binding:"required"` // 密码
}

// Login 登录, 校验密码后签发 JWT
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	var user model.UserModel
	if err := c.db.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		// 用户不存在与密码错误返回相同响应
		Error(ctx, http.StatusUnauthorized, "invalid credentials", "")
		return
	}
	if !user.IsActive {
		Error(ctx, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		Error(ctx, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	ttl := time.Duration(c.cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	token, err := IssueToken(user.ID, c.cfg.JWTSecret, ttl)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to issue token", err.Error())
		return
	}

	Success(ctx, gin.H{
		"token":      token,
		"user_id":    user.ID,
		"user_name":  user.Name,
		"expires_in": int(ttl.Seconds()),
	})
}
