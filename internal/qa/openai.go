package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIModel adapts an OpenAI-compatible chat-completion endpoint into an
// extractive QA model: the completion is instructed to reply with a JSON
// object holding a verbatim span from the passage plus a confidence.
// DeepSeek and local gateways work through the same adapter via baseURL.
type OpenAIModel struct {
	model string
	opts  []option.RequestOption
}

// NewOpenAIModel builds the adapter. An empty baseURL uses the SDK default
// (api.openai.com).
func NewOpenAIModel(model, apiKey, baseURL string) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if model == "" {
		return nil, errors.New("openai model name missing")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIModel{model: model, opts: opts}, nil
}

const spanInstruction = `You are an extractive question answering engine. You receive a question and a passage. Reply with only a JSON object of the form {"answer": "<the shortest span copied verbatim from the passage that answers the question>", "confidence": <number between 0 and 1>}. If the passage does not answer the question, reply {"answer": "", "confidence": 0}.`

type spanPayload struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// Extract implements Model.
func (m *OpenAIModel) Extract(ctx context.Context, question, passage string) (Span, error) {
	client := openai.NewClient(m.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(spanInstruction),
			openai.UserMessage(fmt.Sprintf("Question: %s\n\nPassage: %s", question, passage)),
		},
	})
	if err != nil {
		return Span{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Span{}, errors.New("chat completion returned no choices")
	}

	content := stripFences(resp.Choices[0].Message.Content)
	var payload spanPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Span{}, fmt.Errorf("decoding span payload %q: %w", content, err)
	}
	return Span{Text: strings.TrimSpace(payload.Answer), Confidence: payload.Confidence}, nil
}

// stripFences removes the ```json ... ``` wrapper some models insist on
// despite the instruction.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
