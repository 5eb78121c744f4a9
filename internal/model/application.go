package model

import "time"

// ApplicationStatus 投递状态。
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationReviewed ApplicationStatus = "reviewed"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application 学生对实习岗位的投递，(student, internship) 全局唯一。
type Application struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	StudentID    uint              `gorm:"index;uniqueIndex:idx_student_internship" json:"student_id"`
	InternshipID uint              `gorm:"index;uniqueIndex:idx_student_internship" json:"internship_id"`
	Status       ApplicationStatus `json:"status"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Internship *Internship `gorm:"foreignKey:InternshipID" json:"internship,omitempty"`
}
