package model

import (
	"strings"
	"time"
)

// Category is one of the fixed topical buckets a channel is filed under.
type Category string

const (
	CategoryBusiness      Category = "business"
	CategoryTechnology    Category = "technology"
	CategoryNews          Category = "news"
	CategoryEntertainment Category = "entertainment"
	CategoryEducation     Category = "education"
	CategorySport         Category = "sport"
)

// Categories lists every category in classification order.
var Categories = []Category{
	CategoryBusiness,
	CategoryTechnology,
	CategoryNews,
	CategoryEntertainment,
	CategoryEducation,
	CategorySport,
}

// Valid reports whether c is one of the six known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// SourceTag records how a channel was discovered. It is provenance, not quality.
type SourceTag string

const (
	SourceManual         SourceTag = "manual"
	SourceCuratedPopular SourceTag = "curated-popular"
	SourceTopicSweep     SourceTag = "topic-sweep"
)

// SourceTags lists every provenance value.
var SourceTags = []SourceTag{SourceManual, SourceCuratedPopular, SourceTopicSweep}

// Channel is a verified public Telegram chat persisted by the store.
type Channel struct {
	ID                  int64     `json:"id"`
	Identifier          string    `json:"identifier"`
	DisplayName         string    `json:"displayName"`
	Category            Category  `json:"category"`
	Population          int64     `json:"population"`
	PopulationEstimated bool      `json:"populationEstimated"`
	SourceTag           SourceTag `json:"sourceTag"`
	Verified            bool      `json:"verified"`
	AddedAt             time.Time `json:"addedAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Link returns the public t.me URL of the channel.
func (c *Channel) Link() string {
	return "https://t.me/" + c.Identifier
}

// NormalizeIdentifier trims whitespace, strips the @ and t.me prefixes and
// lower-cases the result. Identifiers are compared only in this form.
func NormalizeIdentifier(raw string) string {
	id := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		id = strings.TrimPrefix(id, prefix)
	}
	id = strings.TrimPrefix(id, "t.me/")
	id = strings.TrimPrefix(id, "telegram.me/")
	id = strings.TrimPrefix(id, "@")
	return strings.ToLower(strings.TrimSpace(id))
}
