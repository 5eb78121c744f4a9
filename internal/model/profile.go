package model

import (
	"time"

	"gorm.io/datatypes"
)

// Role 表示账号角色。
type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

// Profile 表示平台账号主档案
// - Username: 全局唯一，可为空（未设置）
// - IsPublic: 学生资料对第三方是否可见
// - Role: student / company / admin
// - Student/Company: 角色扩展记录，按需加载

type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    *string   `gorm:"uniqueIndex" json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        Role      `gorm:"index" json:"role"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Student *Student `gorm:"foreignKey:ProfileID" json:"student,omitempty"`
	Company *Company `gorm:"foreignKey:ProfileID" json:"company,omitempty"`
}

// Student 学生扩展记录，归属于一个 Profile。
type Student struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	ProfileID      uint              `gorm:"uniqueIndex" json:"profile_id"`
	University     string            `json:"university"`
	Degree         string            `json:"degree"`
	GraduationYear int               `json:"graduation_year"`
	ResumeURL      string            `json:"resume_url"`
	Skills         datatypes.JSONMap `json:"skills"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Session 会话令牌，把请求凭证解析为 Profile。
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"uniqueIndex" json:"token"`
	ProfileID uint      `gorm:"index" json:"profile_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
