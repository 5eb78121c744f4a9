package model

import "time"

// Company 企业主体，归属于一个 company 角色的 Profile。
// FollowerCount 为冗余计数，由关注/取关事务维护。
type Company struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProfileID     uint      `gorm:"uniqueIndex" json:"profile_id"`
	Name          string    `gorm:"index" json:"name"`
	Description   string    `json:"description"`
	Website       string    `json:"website"`
	LogoURL       string    `json:"logo_url"`
	FollowerCount int       `gorm:"index" json:"follower_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Profile 由直接查询路径 Preload 填充；Profiles 由用户名合并路径
	// 手工附加。两种形态统一经 search 包的归一化助手读取。
	Profile     *Profile     `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
	Profiles    []Profile    `gorm:"-" json:"profiles,omitempty"`
	Internships []Internship `gorm:"foreignKey:CompanyID" json:"internships,omitempty"`
}

// Internship 实习岗位，归属于一个 Company。
type Internship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CompanyID   uint      `gorm:"index" json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	IsRemote    bool      `json:"is_remote"`
	Stipend     int       `json:"stipend"`
	Openings    int       `json:"openings"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Company  *Company          `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Pairings []InternshipTopic `gorm:"foreignKey:InternshipID" json:"pairings,omitempty"`
}

// CompanyFollower 学生对企业的关注关系。
type CompanyFollower struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index;uniqueIndex:idx_student_company" json:"student_id"`
	CompanyID uint      `gorm:"index;uniqueIndex:idx_student_company" json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}
