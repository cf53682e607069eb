package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassificationNormalized(t *testing.T) {
	got := Classification{ConfidenceScore: 140}.Normalized()

	assert.Equal(t, UnknownIndustry, got.Industry)
	assert.Equal(t, NeutralSentiment, got.Sentiment)
	assert.Equal(t, NoExplanation, got.ConfidenceExplanation)
	assert.Equal(t, 100, got.ConfidenceScore)

	kept := Classification{Industry: "SaaS", Sentiment: "Frustration", ConfidenceScore: 82, ConfidenceExplanation: "clear pain"}
	assert.Equal(t, kept, kept.Normalized())
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-3))
	assert.Equal(t, 55, ClampScore(55))
	assert.Equal(t, 100, ClampScore(101))
}

func TestContainsTestMarker(t *testing.T) {
	assert.True(t, ContainsTestMarker("App crashes daily [TEST]"))
	assert.True(t, ContainsTestMarker("[test] billing"))
	assert.True(t, ContainsTestMarker("mixed [TeSt] case"))
	assert.False(t, ContainsTestMarker("App crashes daily"))
	assert.False(t, ContainsTestMarker("test without brackets"))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2026-03-04T04:06:07.000Z", FormatTimestamp(ts))

	earlier := FormatTimestamp(time.Date(2026, 3, 4, 4, 6, 7, 5_000_000, time.UTC))
	later := FormatTimestamp(time.Date(2026, 3, 4, 4, 6, 7, 120_000_000, time.UTC))
	assert.Less(t, earlier, later)
}

func TestRecordViews(t *testing.T) {
	rec := &PainPointRecord{Industry: "Retail", Sentiment: "Anger", ConfidenceScore: 70, ConfidenceExplanation: "why"}

	assert.Equal(t, PublicAnalysis{Industry: "Retail", Sentiment: "Anger", ConfidenceScore: 70}, rec.PublicView())
	assert.Equal(t, "why", rec.Classification().ConfidenceExplanation)
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "foo@example.com", NormalizeEmail("  Foo@Example.com "))
	assert.True(t, ValidEmail("foo@example.com"))
	assert.False(t, ValidEmail("foo@example"))
	assert.False(t, ValidEmail("not an email"))
}
