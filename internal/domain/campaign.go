package domain

import "time"

// Campaign is a fundraising campaign that may own marketing notification lists.
type Campaign struct {
	ID                string             `json:"id" db:"id"`
	Title             string             `json:"title" db:"title"`
	NotificationLists []NotificationList `json:"notification_lists,omitempty"`
}

// NotificationList links a campaign to a list hosted by the marketing
// provider. ID is the provider's list id.
type NotificationList struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
