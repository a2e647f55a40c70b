package models

import (
	"time"

	"gorm.io/datatypes"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// CampaignVariant is one A/B arm. Weights are relative; a variant with
// weight 2 receives twice the share of a weight-1 variant.
type CampaignVariant struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Weight int    `json:"weight"`
}

// CampaignAudience selects recipients by role and/or explicit user ids.
type CampaignAudience struct {
	Roles   []string `json:"roles,omitempty"`
	UserIDs []string `json:"user_ids,omitempty"`
}

type Campaign struct {
	BaseModel
	Name     string               `gorm:"not null" json:"name"`
	Type     string               `gorm:"not null" json:"type"`
	Category NotificationCategory `gorm:"not null;default:'system'" json:"category"`
	Priority NotificationPriority `gorm:"not null;default:'normal'" json:"priority"`
	Status   CampaignStatus       `gorm:"not null;default:'draft';index" json:"status"`

	ScheduledFor *time.Time                            `gorm:"index" json:"scheduled_for,omitempty"`
	Audience     datatypes.JSONType[CampaignAudience]  `json:"audience"`
	Variants     datatypes.JSONType[[]CampaignVariant] `json:"variants"`

	SentCount   int64      `gorm:"default:0" json:"sent_count"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedBy   string     `gorm:"type:uuid" json:"created_by"`
}

// Due reports whether a scheduled campaign should start.
func (c *Campaign) Due(now time.Time) bool {
	return c.Status == CampaignStatusScheduled &&
		(c.ScheduledFor == nil || !c.ScheduledFor.After(now))
}
