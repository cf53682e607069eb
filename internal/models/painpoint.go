package models

import (
	"strings"
	"time"
)

// Fallback values used whenever a classification field is absent or unusable.
const (
	UnknownIndustry      = "unknown"
	NeutralSentiment     = "neutral"
	NoExplanation        = "No explanation provided."
	ClassificationFailed = "Classification failed; default values were applied."
	TestMarker           = "[test]"
	MaxConfidenceScore   = 100
	TimestampLayout      = "2006-01-02T15:04:05.000Z"
)

// Target selects which collection a submission is written to.
type Target string

const (
	TargetPrimary Target = "primary"
	TargetPublic  Target = "public"
)

// Classification is the structured output produced for a submission.
type Classification struct {
	Industry              string `json:"industry"`
	Sentiment             string `json:"sentiment"`
	ConfidenceScore       int    `json:"confidenceScore"`
	ConfidenceExplanation string `json:"confidenceExplanation"`
}

// Normalized returns a copy with every empty field replaced by its fallback
// and the score clamped to [0,100].
func (c Classification) Normalized() Classification {
	if strings.TrimSpace(c.Industry) == "" {
		c.Industry = UnknownIndustry
	}
	if strings.TrimSpace(c.Sentiment) == "" {
		c.Sentiment = NeutralSentiment
	}
	if strings.TrimSpace(c.ConfidenceExplanation) == "" {
		c.ConfidenceExplanation = NoExplanation
	}
	c.ConfidenceScore = ClampScore(c.ConfidenceScore)
	return c
}

// DefaultClassification is returned when classification cannot be performed.
func DefaultClassification() Classification {
	return Classification{
		Industry:              UnknownIndustry,
		Sentiment:             NeutralSentiment,
		ConfidenceScore:       0,
		ConfidenceExplanation: ClassificationFailed,
	}
}

// ClampScore bounds a confidence score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxConfidenceScore {
		return MaxConfidenceScore
	}
	return score
}

// PainPointSubmission is the client payload accepted by both ingest paths.
type PainPointSubmission struct {
	Description *string `json:"description"`
}

// PainPointRecord is a persisted, classified submission.
type PainPointRecord struct {
	ID                    string `json:"id" db:"id"`
	Description           string `json:"description" db:"description"`
	Industry              string `json:"industry" db:"industry"`
	Sentiment             string `json:"sentiment" db:"sentiment"`
	ConfidenceScore       int    `json:"confidenceScore" db:"confidence_score"`
	ConfidenceExplanation string `json:"confidenceExplanation" db:"confidence_explanation"`
	CreatedAt             string `json:"createdAt" db:"created_at"`
	IsTest                bool   `json:"isTest,omitempty" db:"is_test"`
	IsAnonymous           bool   `json:"isAnonymous,omitempty" db:"is_anonymous"`
}

// Classification returns the classification fields of the record.
func (r *PainPointRecord) Classification() Classification {
	return Classification{
		Industry:              r.Industry,
		Sentiment:             r.Sentiment,
		ConfidenceScore:       r.ConfidenceScore,
		ConfidenceExplanation: r.ConfidenceExplanation,
	}
}

// PublicAnalysis is the reduced view returned on the public path; the
// explanation is withheld.
type PublicAnalysis struct {
	Industry        string `json:"industry"`
	Sentiment       string `json:"sentiment"`
	ConfidenceScore int    `json:"confidenceScore"`
}

// PublicView strips the record down to what anonymous callers may see.
func (r *PainPointRecord) PublicView() PublicAnalysis {
	return PublicAnalysis{
		Industry:        r.Industry,
		Sentiment:       r.Sentiment,
		ConfidenceScore: r.ConfidenceScore,
	}
}

// ContainsTestMarker reports whether the description carries the test marker,
// compared case-insensitively.
func ContainsTestMarker(description string) bool {
	return strings.Contains(strings.ToLower(description), TestMarker)
}

// FormatTimestamp renders t as a fixed-width UTC ISO-8601 string so that
// lexical order matches chronological order.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
