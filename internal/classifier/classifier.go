// Package classifier turns a pain point description into a Classification.
// It never fails outward: every provider, transport or parse failure yields
// the default classification.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"painsignal/internal/extract"
	"painsignal/internal/llm"
	"painsignal/internal/metrics"
	"painsignal/internal/models"
	"painsignal/internal/prompt"

	"go.uber.org/zap"
)

// ErrClassification wraps every failure absorbed by the classifier.
var ErrClassification = errors.New("classification failed")

// Options bound the model call.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Result is either a successful classification or a failure reason. A failed
// Result still carries the default classification.
type Result struct {
	Classification models.Classification
	Err            error
}

// OK reports whether the model produced a usable object.
func (r Result) OK() bool { return r.Err == nil }

func ok(c models.Classification) Result {
	return Result{Classification: c}
}

func failed(err error) Result {
	return Result{
		Classification: models.DefaultClassification(),
		Err:            fmt.Errorf("%w: %w", ErrClassification, err),
	}
}

// Classifier orchestrates the LLM call. It holds no per-request state.
type Classifier struct {
	provider llm.Provider
	opts     Options
	logger   *zap.Logger
}

// New creates a classifier. A nil provider means no credential is configured;
// every call then returns the default classification.
func New(provider llm.Provider, opts Options, logger *zap.Logger) *Classifier {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}
	return &Classifier{
		provider: provider,
		opts:     opts,
		logger:   logger,
	}
}

// Classify returns a complete classification for text.
func (c *Classifier) Classify(ctx context.Context, text string) models.Classification {
	res := c.Run(ctx, text)
	if !res.OK() {
		c.logger.Warn("Classification failed, using defaults", zap.Error(res.Err))
		metrics.Classifications.WithLabelValues("failed").Inc()
	} else {
		metrics.Classifications.WithLabelValues("ok").Inc()
	}
	return res.Classification
}

// Run performs the classification and reports how it went.
func (c *Classifier) Run(ctx context.Context, text string) Result {
	if c.provider == nil {
		return failed(llm.ErrMissingAPIKey)
	}

	raw, err := c.provider.Complete(ctx, llm.Request{
		Messages:    prompt.Build(text),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return failed(err)
	}

	obj, err := extract.Object(raw)
	if err != nil {
		c.logger.Debug("Unparseable model response", zap.String("response", raw))
		return failed(err)
	}

	return ok(Coerce(obj))
}

// Coerce maps an untyped model object onto a Classification. Fields of the
// wrong type are replaced by their fallback.
func Coerce(obj map[string]any) models.Classification {
	out := models.Classification{
		Industry:              stringField(obj, "industry"),
		Sentiment:             stringField(obj, "sentiment"),
		ConfidenceScore:       scoreField(obj, "confidenceScore"),
		ConfidenceExplanation: stringField(obj, "confidenceExplanation"),
	}
	return out.Normalized()
}

func stringField(obj map[string]any, key string) string {
	s, ok := obj[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func scoreField(obj map[string]any, key string) int {
	f, ok := obj[key].(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= models.MaxConfidenceScore {
		return models.MaxConfidenceScore
	}
	if f <= 0 {
		return 0
	}
	return models.ClampScore(int(math.Round(f)))
}
