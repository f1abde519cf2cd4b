package embedder

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"

	"github.com/turtacn/ScenarioIQ/pkg/errors"
	"github.com/turtacn/ScenarioIQ/pkg/vectormath"
)

// LocalConfig holds every tuneable parameter of the local feature-hashing
// encoder.
type LocalConfig struct {
	// Dim is the output vector dimension.
	Dim int `json:"dim" yaml:"dim"`

	// NgramMax is the largest token n-gram hashed as a feature.  1 hashes
	// single tokens only; 2 adds adjacent pairs, which lets the encoder
	// distinguish "thermal runaway" from "thermal cycling".
	NgramMax int `json:"ngram_max" yaml:"ngram_max"`

	// BigramWeight is the feature weight of n-grams with n > 1 relative to
	// single tokens.
	BigramWeight float32 `json:"bigram_weight" yaml:"bigram_weight"`
}

// NewLocalConfig returns a LocalConfig with the standard parameters for the
// given dimension.
func NewLocalConfig(dim int) LocalConfig {
	return LocalConfig{
		Dim:          dim,
		NgramMax:     2,
		BigramWeight: 0.6,
	}
}

// Validate checks the configuration.
func (c LocalConfig) Validate() error {
	if c.Dim < 8 {
		return errors.New(errors.ErrCodeEmbeddingInitFailed,
			"local encoder dimension must be at least 8").
			WithDetail("dim out of range")
	}
	if c.NgramMax < 1 || c.NgramMax > 3 {
		return errors.New(errors.ErrCodeEmbeddingInitFailed,
			"local encoder ngram_max must be in [1, 3]")
	}
	return nil
}

// LocalEncoder is a deterministic feature-hashing text encoder.  Tokens and
// adjacent n-grams are hashed into Dim buckets with a sign bit (signed
// hashing keeps the expected bucket mean at zero), and the result is
// unit-normalised.  Identical text always produces an identical vector, with
// no model files, network calls, or warm-up beyond construction.
type LocalEncoder struct {
	cfg LocalConfig
}

// NewLocalEncoder constructs an encoder; cfg must already be validated.
func NewLocalEncoder(cfg LocalConfig) *LocalEncoder {
	return &LocalEncoder{cfg: cfg}
}

// Dim returns the output dimension.
func (e *LocalEncoder) Dim() int { return e.cfg.Dim }

// Embed maps text to its feature-hashed unit vector.  Empty or
// whitespace-only text is rejected rather than embedded as the zero vector,
// which would silently score 0 against everything.
func (e *LocalEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEmbeddingFailed, "context cancelled")
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, errors.New(errors.ErrCodeEmbeddingInputEmpty,
			"cannot embed empty text")
	}

	vec := make([]float32, e.cfg.Dim)
	e.accumulate(vec, tokens, 1, 1.0)
	for n := 2; n <= e.cfg.NgramMax; n++ {
		e.accumulate(vec, tokens, n, e.cfg.BigramWeight)
	}

	return vectormath.Normalize(vec), nil
}

// EmbedBatch embeds each text in order.  Any failure aborts the batch; the
// caller retries or degrades as appropriate for its signal.
func (e *LocalEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "batch embed failed").
				WithDetail("index " + strconv.Itoa(i))
		}
		out[i] = vec
	}
	return out, nil
}

// accumulate hashes every n-gram of the given size into vec.
func (e *LocalEncoder) accumulate(vec []float32, tokens []string, n int, weight float32) {
	for i := 0; i+n <= len(tokens); i++ {
		feature := strings.Join(tokens[i:i+n], " ")
		idx, sign := hashFeature(feature, len(vec))
		vec[idx] += sign * weight
	}
}

// hashFeature maps a feature string to a bucket index and a ±1 sign.  The
// low bit of the 64-bit FNV-1a hash carries the sign; the remaining bits
// pick the bucket.
func hashFeature(feature string, dim int) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	sign := float32(1)
	if sum&1 == 1 {
		sign = -1
	}
	return int((sum >> 1) % uint64(dim)), sign
}

// tokenize lower-cases the text and splits on any non-letter, non-digit run.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
