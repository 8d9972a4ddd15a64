package tokenizer

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// charsPerToken approximates English BPE density when no encoding is available.
const charsPerToken = 4

// Counter counts tokens with the tiktoken encoding of a model. When the
// encoding cannot be loaded it falls back to a character-based estimate.
type Counter struct {
	enc *tiktoken.Tiktoken
}

func NewCounter(model string, logger *zap.Logger) *Counter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if logger != nil {
			logger.Warn("token encoding unavailable, estimating", zap.String("model", model), zap.Error(err))
		}
		return &Counter{}
	}
	return &Counter{enc: enc}
}

func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate returns ceil(runes / charsPerToken).
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
