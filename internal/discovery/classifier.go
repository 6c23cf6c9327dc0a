package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mathieu-neron/channelfinder/internal/catalog"
	"github.com/mathieu-neron/channelfinder/internal/model"
)

// shortToken matches keywords too short to be safe as substrings ("ai" is
// inside "daily" and "email"). They must touch a word edge on at least one
// side, so "openai" and "ai_hub" match while "daily" does not.
var shortToken = regexp.MustCompile(`^[a-z]{1,2}$`)

type rule struct {
	category model.Category
	re       *regexp.Regexp
}

// Classifier files a channel under the first category whose keyword pattern
// matches. Rule order is the catalog order and acts as the tie-break.
type Classifier struct {
	rules    []rule
	fallback model.Category
}

// NewClassifier compiles the catalog keyword sets.
func NewClassifier(cat *catalog.Catalog) (*Classifier, error) {
	c := &Classifier{fallback: cat.Fallback()}

	for _, category := range cat.Order() {
		keywords := cat.Keywords(category)
		parts := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			if shortToken.MatchString(kw) {
				kw = `(?:^|[^a-z])` + kw + `|` + kw + `(?:[^a-z]|$)`
			}
			parts = append(parts, "(?:"+kw+")")
		}

		re, err := regexp.Compile(strings.Join(parts, "|"))
		if err != nil {
			return nil, fmt.Errorf("compile keywords for %s: %w", category, err)
		}
		c.rules = append(c.rules, rule{category: category, re: re})
	}

	return c, nil
}

// Classify returns the category for a username and display name.
func (c *Classifier) Classify(identifier, displayName string) model.Category {
	text := strings.ToLower(identifier + " " + displayName)
	for _, r := range c.rules {
		if r.re.MatchString(text) {
			return r.category
		}
	}
	return c.fallback
}
