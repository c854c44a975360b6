package chat

import (
	"strings"

	"github.com/basakil/brm-chatbot/pkg/config"
)

// Category is the bucket a chat message falls into before a reply is chosen
type Category string

const (
	CategoryLoan    Category = "loan"
	CategoryError   Category = "error"
	CategoryDefault Category = "default"
)

var (
	DefaultLoanMarkers  = []string{"대출", "금리"}
	DefaultErrorMarkers = []string{"오류"}
)

type rule struct {
	category Category
	markers  []string
}

// Classifier maps free text to a Category with an ordered chain of substring
// tests. Matching is case-sensitive and the input is never normalized.
// The first rule with a matching marker wins: loan, then error, else default.
type Classifier struct {
	rules []rule
}

// NewClassifier builds a classifier from loan/rate and error markers.
// Empty markers are dropped so they cannot match every message.
func NewClassifier(loanMarkers, errorMarkers []string) *Classifier {
	return &Classifier{
		rules: []rule{
			{category: CategoryLoan, markers: nonEmpty(loanMarkers)},
			{category: CategoryError, markers: nonEmpty(errorMarkers)},
		},
	}
}

// NewClassifierFromConfig reads "markers.loan" and "markers.error" from the chat sub-config
func NewClassifierFromConfig(cfg *config.Config) *Classifier {
	return NewClassifier(
		cfg.GetStringsWithDefault("markers.loan", DefaultLoanMarkers),
		cfg.GetStringsWithDefault("markers.error", DefaultErrorMarkers),
	)
}

// Classify returns exactly one Category for message
func (c *Classifier) Classify(message string) Category {
	if message == "" {
		return CategoryDefault
	}
	for _, r := range c.rules {
		for _, marker := range r.markers {
			if strings.Contains(message, marker) {
				return r.category
			}
		}
	}
	return CategoryDefault
}

func nonEmpty(markers []string) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}
