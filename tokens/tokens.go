// Package tokens estimates prompt sizes for OpenAI models with tiktoken
// encodings, so callers can check a request against a context window before
// sending it.
package tokens

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/deeplooplabs/ai-client/openai"
)

// Chat framing overhead, as documented for the cl100k/o200k chat models.
const (
	tokensPerMessage = 3
	tokensPerName    = 1
	tokensPerReply   = 3
	tokensPerTool    = 7
)

// Counter counts tokens, caching one codec per encoding
type Counter struct {
	mu     sync.RWMutex
	codecs map[tokenizer.Encoding]tokenizer.Codec
}

// NewCounter creates an empty counter
func NewCounter() *Counter {
	return &Counter{codecs: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

var defaultCounter = NewCounter()

// CountText counts the tokens of text with the default counter
func CountText(model, text string) (int, error) {
	return defaultCounter.CountText(model, text)
}

// CountMessages counts a chat prompt with the default counter
func CountMessages(model string, messages []openai.Message) (int, error) {
	return defaultCounter.CountMessages(model, messages)
}

// EncodingFor returns the tiktoken encoding used by model.
// Unknown models get o200k_base, the encoding of every current model family.
func EncodingFor(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5"),
		strings.HasPrefix(model, "text-embedding"):
		return tokenizer.Cl100kBase
	case strings.HasPrefix(model, "text-davinci"),
		strings.HasPrefix(model, "code-"):
		return tokenizer.P50kBase
	case model == "davinci", model == "curie", model == "babbage", model == "ada":
		return tokenizer.R50kBase
	default:
		return tokenizer.O200kBase
	}
}

func (c *Counter) codec(model string) (tokenizer.Codec, error) {
	enc := EncodingFor(model)

	c.mu.RLock()
	codec, ok := c.codecs[enc]
	c.mu.RUnlock()
	if ok {
		return codec, nil
	}

	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", enc, err)
	}

	c.mu.Lock()
	c.codecs[enc] = codec
	c.mu.Unlock()
	return codec, nil
}

// CountText counts the tokens of text under model's encoding
func (c *Counter) CountText(model, text string) (int, error) {
	codec, err := c.codec(model)
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CountMessages counts the prompt tokens a chat completion request with
// these messages consumes, including per-message framing and reply priming.
func (c *Counter) CountMessages(model string, messages []openai.Message) (int, error) {
	codec, err := c.codec(model)
	if err != nil {
		return 0, err
	}

	count := func(s string) int {
		if s == "" {
			return 0
		}
		ids, _, _ := codec.Encode(s)
		return len(ids)
	}

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += count(msg.Role)
		total += count(msg.Content)
		if msg.Name != "" {
			total += count(msg.Name) + tokensPerName
		}
		for _, tc := range msg.ToolCalls {
			if tc.Function == nil {
				continue
			}
			total += count(tc.Function.Name) + count(tc.Function.Arguments) + 3
		}
	}
	return total + tokensPerReply, nil
}

// CountTools counts the tokens that function tool definitions add to a prompt
func (c *Counter) CountTools(model string, tools []openai.Tool) (int, error) {
	codec, err := c.codec(model)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, tool := range tools {
		ids, _, _ := codec.Encode(tool.Function.Name + tool.Function.Description)
		total += len(ids) + tokensPerTool
		if tool.Function.Parameters != nil {
			params, err := json.Marshal(tool.Function.Parameters)
			if err != nil {
				return 0, fmt.Errorf("marshal parameters of %s: %w", tool.Function.Name, err)
			}
			ids, _, _ := codec.Encode(string(params))
			total += len(ids)
		}
	}
	return total, nil
}
