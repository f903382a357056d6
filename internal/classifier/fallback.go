package classifier

import "strings"

// DefaultKeywords are the urgency stems used when the model is unusable.
var DefaultKeywords = []string{
	"trap", "stuck", "hurt", "injury", "emergency", "medical",
	"bleeding", "flood", "collapsed", "drowning", "fire", "help",
	"urgent", "dying", "death", "severe", "critical", "immediate",
	"rescue", "danger", "unsafe", "life", "threatening",
}

var defaultKeywordClassifier = NewKeywordClassifier(nil)

// KeywordClassifier marks a description urgent when it contains any keyword.
// Matching is plain substring containment on lower-cased text, so "lifeguard"
// matches "life".
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier lower-cases and copies keywords. An empty list selects
// DefaultKeywords.
func NewKeywordClassifier(keywords []string) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		kws = append(kws, k)
	}

	return &KeywordClassifier{keywords: kws}
}

// Classify is pure and total.
func (c *KeywordClassifier) Classify(description string) bool {
	lower := strings.ToLower(description)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Keywords returns a copy of the configured keywords.
func (c *KeywordClassifier) Keywords() []string {
	out := make([]string, len(c.keywords))
	copy(out, c.keywords)
	return out
}

// FallbackClassify classifies with DefaultKeywords.
func FallbackClassify(description string) bool {
	return defaultKeywordClassifier.Classify(description)
}
