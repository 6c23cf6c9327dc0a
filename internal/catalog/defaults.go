package catalog

import "github.com/mathieu-neron/channelfinder/internal/model"

// DefaultFile is the built-in catalog used when no CATALOG_PATH is set.
var DefaultFile = File{
	Categories: []CategorySpec{
		{
			Key:   model.CategoryBusiness,
			Label: "💰 Business",
			Seeds: []string{
				"entrepreneurs", "business", "startup", "forbes", "bloomberg", "entrepreneur",
				"businessinsider", "motivation", "success", "millionaire", "investing", "finance",
			},
			Keywords: []string{"business", "entrepreneur", "startup", "money", "invest", "trade", "crypto", "bitcoin"},
		},
		{
			Key:   model.CategoryTechnology,
			Label: "📱 Technology",
			Seeds: []string{
				"tech", "programming", "coding", "developers", "github", "stackoverflow",
				"techcrunch", "verge", "wired", "engadget", "arstechnica",
			},
			Keywords: []string{"tech", "programming", "code", "developer", "software", "ai", "ml"},
		},
		{
			Key:   model.CategoryNews,
			Label: "📰 News",
			Seeds: []string{
				"news", "bbcnews", "cnn", "reuters", "guardian", "nytimes",
				"breaking", "worldnews", "dailynews", "newsroom", "headlines",
			},
			Keywords: []string{"news", "breaking", "world", "daily", "headline", "update"},
		},
		{
			Key:   model.CategoryEntertainment,
			Label: "🎵 Entertainment",
			Seeds: []string{
				"music", "movies", "netflix", "entertainment", "hollywood",
				"celebrity", "gossip", "trending", "viral", "funny",
			},
			Keywords: []string{"music", "movie", "entertainment", "fun", "viral", "meme"},
		},
		{
			Key:   model.CategoryEducation,
			Label: "🎓 Education",
			Seeds: []string{
				"education", "learning", "courses", "university", "students",
				"knowledge", "academy", "school", "teaching", "study",
			},
			Keywords: []string{"education", "learn", "course", "university", "school", "knowledge"},
		},
		{
			Key:   model.CategorySport,
			Label: "⚽ Sport",
			Seeds: []string{
				"espn", "sports", "football", "soccer", "basketball",
				"tennis", "fifa", "olympics", "champions", "premier",
			},
			Keywords: []string{"sport", "football", "soccer", "basketball", "tennis", "game"},
		},
	},
	Popular: []string{
		"business", "entrepreneur", "startup", "investing", "crypto", "motivation", "success",
		"tech", "programming", "coding", "developers", "techcrunch", "github",
		"news", "breaking", "world", "daily", "bbcnews", "cnn", "worldnews", "headlines",
		"music", "movies", "entertainment", "funny", "trending", "viral",
		"education", "learning", "courses", "university", "knowledge",
		"sports", "football", "soccer", "basketball", "espn", "champions",
		"bitcoin", "trading", "travel", "food",
	},
	Default: model.CategoryEntertainment,
}

// Default returns the built-in catalog. It panics only if DefaultFile is
// itself invalid, which the package tests guard against.
func Default() *Catalog {
	c, err := New(DefaultFile)
	if err != nil {
		panic(err)
	}
	return c
}
