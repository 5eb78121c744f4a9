package model

import "time"

// Topic 主题标签，通过 InternshipTopic 关联实习岗位。
type Topic struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"index" json:"name"`
	Slug          string    `gorm:"uniqueIndex" json:"slug"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	FollowerCount int       `gorm:"index" json:"follower_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Pairings []InternshipTopic `gorm:"foreignKey:TopicID" json:"pairings,omitempty"`
}

// InternshipTopic 岗位与主题的关联，RelevanceScore 由打标流程产出，取值 0~1。
type InternshipTopic struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InternshipID   uint      `gorm:"index;uniqueIndex:idx_internship_topic" json:"internship_id"`
	TopicID        uint      `gorm:"index;uniqueIndex:idx_internship_topic" json:"topic_id"`
	RelevanceScore float64   `json:"relevance_score"`
	CreatedAt      time.Time `json:"created_at"`

	Internship *Internship `gorm:"foreignKey:InternshipID" json:"internship,omitempty"`
	Topic      *Topic      `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
}

// TopicFollower 学生对主题的关注关系。
type TopicFollower struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index;uniqueIndex:idx_student_topic" json:"student_id"`
	TopicID   uint      `gorm:"index;uniqueIndex:idx_student_topic" json:"topic_id"`
	CreatedAt time.Time `json:"created_at"`
}
