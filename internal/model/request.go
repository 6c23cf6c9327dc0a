package model

import "time"

// AddChannelRequest is the body of POST /api/channels.
type AddChannelRequest struct {
	Identifier string `json:"identifier"`
}

// TopicSweepRequest is the body of POST /api/discovery/topic.
type TopicSweepRequest struct {
	Category string `json:"category"`
}

// RunAccepted is returned when a background run has been scheduled.
type RunAccepted struct {
	RunID     string `json:"runId"`
	StatusURL string `json:"statusUrl"`
}

// PublishResponse reports a recommendation post that was sent.
type PublishResponse struct {
	Channel *Channel `json:"channel"`
	Target  string   `json:"target"`
}

// ChannelExport is a full dump of the store.
type ChannelExport struct {
	ExportedAt time.Time `json:"exportedAt"`
	Count      int       `json:"count"`
	Channels   []Channel `json:"channels"`
}
