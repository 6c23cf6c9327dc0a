package model

import "time"

// StatsResponse is the API response for aggregate channel statistics.
type StatsResponse struct {
	TotalChannels    int               `json:"totalChannels"`
	TotalMembers     int64             `json:"totalMembers"`
	EstimatedMembers int64             `json:"estimatedMembers"`
	Categories       map[Category]int  `json:"categories"`
	Sources          map[SourceTag]int `json:"sources"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

// ChannelListResponse is the API response for a category listing.
type ChannelListResponse struct {
	Category Category  `json:"category"`
	Label    string    `json:"label"`
	Channels []Channel `json:"channels"`
}

// CategoryInfo describes a category for menus.
type CategoryInfo struct {
	Key   Category `json:"key"`
	Label string   `json:"label"`
	Count int      `json:"count"`
}
