package model

import "time"

// Draft is a saved, never-dispatched submission.
type Draft struct {
	ID               string                     `json:"id" gorm:"primaryKey;size:36"`
	UserID           string                     `json:"user_id" gorm:"size:64;index"`
	ContentType      ContentType                `json:"content_type" gorm:"size:32"`
	Title            string                     `json:"title"`
	Description      *string                    `json:"description,omitempty"`
	VideoURL         *string                    `json:"video_url,omitempty"`
	VideoURLs        []string                   `json:"video_urls,omitempty" gorm:"serializer:json"`
	ImageURLs        []string                   `json:"image_urls,omitempty" gorm:"serializer:json"`
	ArticleContent   *string                    `json:"article_content,omitempty"`
	CoverURL         *string                    `json:"cover_url,omitempty"`
	Visibility       string                     `json:"visibility,omitempty" gorm:"size:32"`
	Topics           []string                   `json:"topics,omitempty" gorm:"serializer:json"`
	AccountIDs       []string                   `json:"account_ids,omitempty" gorm:"serializer:json"`
	AccountConfigs   map[string]ContentOverride `json:"account_configs,omitempty" gorm:"serializer:json"`
	DistributionMode DistributionMode           `json:"distribution_mode,omitempty" gorm:"size:32"`
	ScheduledAt      *time.Time                 `json:"scheduled_at,omitempty"`
	CreatedAt        time.Time                  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time                  `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Draft) TableName() string { return "drafts" }
