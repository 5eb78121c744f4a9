package model

import (
	"time"

	"gorm.io/datatypes"
)

// RawPostingStatus 合作板块抓取数据的处理状态。
type RawPostingStatus string

const (
	RawPostingPending   RawPostingStatus = "pending"
	RawPostingProcessed RawPostingStatus = "processed"
	RawPostingRejected  RawPostingStatus = "rejected"
)

// RawPosting 从合作实习板块抓取的原始岗位，按 source + external_id 去重，
// 等待打标流程转化为正式 Internship。
type RawPosting struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Source      string            `gorm:"index;uniqueIndex:idx_source_external" json:"source"`
	ExternalID  string            `gorm:"uniqueIndex:idx_source_external" json:"external_id"`
	CompanyName string            `json:"company_name"`
	Title       string            `json:"title"`
	Summary     string            `json:"summary"`
	Content     string            `json:"content"`
	URL         string            `json:"url"`
	PublishedAt time.Time         `json:"published_at"`
	Status      RawPostingStatus  `gorm:"index" json:"status"`
	Reason      string            `json:"reason"`
	RawPayload  datatypes.JSONMap `json:"raw_payload"`
	Trace       datatypes.JSONMap `json:"trace"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
