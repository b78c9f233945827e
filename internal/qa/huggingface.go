package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"newsqa/pkg/logger"
	"newsqa/pkg/resilience"
)

// HFModel calls the HuggingFace inference API for extractive question
// answering: POST {endpoint}/models/{model} with a question/context pair
// returns the best span and its score.
type HFModel struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
	log      *slog.Logger
}

// NewHFModel builds the client. A nil httpClient uses http.DefaultClient;
// call timeouts come from the request context.
func NewHFModel(endpoint, model, apiKey string, httpClient *http.Client) *HFModel {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HFModel{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		http:     httpClient,
		log:      logger.WithComponent("qa.huggingface"),
	}
}

type hfRequest struct {
	Inputs hfInputs `json:"inputs"`
}

type hfInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type hfAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

type hfErrorBody struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Extract implements Model. Client errors (4xx) are marked permanent so the
// retry layer fails fast; 5xx stays retryable because the API answers 503
// while a cold model container warms up.
func (m *HFModel) Extract(ctx context.Context, question, passage string) (Span, error) {
	payload, err := json.Marshal(hfRequest{Inputs: hfInputs{Question: question, Context: passage}})
	if err != nil {
		return Span{}, fmt.Errorf("encoding inference request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", m.endpoint, m.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Span{}, fmt.Errorf("building inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return Span{}, fmt.Errorf("calling inference api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Span{}, fmt.Errorf("reading inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfErrorBody
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		err := fmt.Errorf("inference api %s: %s", resp.Status, msg)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return Span{}, resilience.Permanent(err)
		}
		if apiErr.EstimatedTime > 0 {
			m.log.Info("model warming up", "model", m.model, "estimated_time_s", apiErr.EstimatedTime)
		}
		return Span{}, err
	}

	return decodeSpan(body)
}

// decodeSpan accepts both response shapes the API uses: a single answer
// object, or a list with the best answer first.
func decodeSpan(body []byte) (Span, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var answers []hfAnswer
		if err := json.Unmarshal(trimmed, &answers); err != nil {
			return Span{}, fmt.Errorf("decoding inference response: %w", err)
		}
		if len(answers) == 0 {
			return Span{}, fmt.Errorf("inference response contained no answers")
		}
		return Span{Text: strings.TrimSpace(answers[0].Answer), Confidence: answers[0].Score}, nil
	}
	var answer hfAnswer
	if err := json.Unmarshal(trimmed, &answer); err != nil {
		return Span{}, fmt.Errorf("decoding inference response: %w", err)
	}
	return Span{Text: strings.TrimSpace(answer.Answer), Confidence: answer.Score}, nil
}
