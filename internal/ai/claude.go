package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/logging"
	"github.com/nhle/taskflow/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// Claude suggests tasks through the Claude Messages API. Replies are kept
// in a History so repeated calls in one session see what was
// already proposed. Any API or decoding failure falls back to the
// configured fallback suggester.
type Claude struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
	history   *History
	fallback  Suggester
	logger    *zap.Logger
}

// ClaudeOption configures a Claude suggester.
type ClaudeOption func(*Claude)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) ClaudeOption {
	return func(cl *Claude) { cl.client = c }
}

// WithEndpoint overrides the Messages API URL.
func WithEndpoint(url string) ClaudeOption {
	return func(cl *Claude) { cl.endpoint = url }
}

// WithFallback sets the suggester used when the API call fails.
func WithFallback(s Suggester) ClaudeOption {
	return func(cl *Claude) { cl.fallback = s }
}

// WithLogger sets the logger for fallback warnings.
func WithLogger(l *zap.Logger) ClaudeOption {
	return func(cl *Claude) { cl.logger = l }
}

// NewClaude creates a Claude suggester. An empty modelName or non-positive
// maxTokens select the defaults.
func NewClaude(apiKey, modelName string, maxTokens int, opts ...ClaudeOption) *Claude {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	c := &Claude{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		endpoint:  apiURL,
		client:    &http.Client{},
		history:   NewHistory(DefaultHistoryLimit),
		fallback:  NewHeuristic(nil, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Reset clears the conversation history.
func (c *Claude) Reset() {
	c.history.Reset()
}

// Suggest asks the model for new tasks that complement tasks.
func (c *Claude) Suggest(ctx context.Context, tasks []model.Task) ([]model.Suggestion, error) {
	if c.apiKey == "" {
		return c.fallback.Suggest(ctx, tasks)
	}

	c.history.Add(RoleUser, suggestPrompt)

	resp, err := c.callAPI(ctx, buildSystemPrompt(tasks))
	if err != nil {
		c.history.DropLast()
		c.logger.Warn("claude suggestions failed, using fallback", zap.Error(err))
		return c.fallback.Suggest(ctx, tasks)
	}

	text := responseText(resp)
	suggestions, err := parseSuggestions(text)
	if err != nil {
		c.history.DropLast()
		c.logger.Warn("claude suggestions unreadable, using fallback", zap.Error(err))
		return c.fallback.Suggest(ctx, tasks)
	}
	c.history.Add(RoleAssistant, text)

	var out []model.Suggestion
	for _, s := range suggestions {
		if len(out) == MaxSuggestions {
			break
		}
		if s.Title == "" || coveredBy(s.Title, tasks) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

const suggestPrompt = "Suggest up to 3 new tasks I have not created yet. " +
	"Do not repeat tasks you already suggested. Respond with only a JSON array " +
	"of objects with the fields title, description, priority (low, medium or high), " +
	"estimated_duration and category."

// buildSystemPrompt describes the current task list to the model.
func buildSystemPrompt(tasks []model.Task) string {
	var sb strings.Builder

	sb.WriteString("You are a task management assistant that proposes ")
	sb.WriteString("small, concrete tasks to help the user stay organized.\n\n")
	sb.WriteString("Current task data:\n")
	sb.WriteString(buildTaskSummary(tasks))
	sb.WriteString("\n\nKeep titles under six words.")

	return sb.String()
}

// buildTaskSummary lists status counts and the titles of open tasks.
func buildTaskSummary(tasks []model.Task) string {
	if len(tasks) == 0 {
		return "No tasks available."
	}

	counts := make(map[model.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total tasks: %d\n", len(tasks))
	fmt.Fprintf(&sb, "By status: pending=%d, in-progress=%d, completed=%d\n",
		counts[model.StatusPending], counts[model.StatusInProgress], counts[model.StatusCompleted])

	sb.WriteString("Open tasks:")
	for _, t := range tasks {
		if t.IsCompleted() {
			continue
		}
		fmt.Fprintf(&sb, "\n- %s (due %s)", t.Title, t.DueDate)
	}

	return sb.String()
}

// callAPI makes a single request to the Claude Messages API.
func (c *Claude) callAPI(ctx context.Context, system string) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  c.buildAPIMessages(),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// buildAPIMessages converts the history into API messages. Consecutive
// turns from the same role, left behind by trimming, are merged.
func (c *Claude) buildAPIMessages() []apiMessage {
	msgs := c.history.Messages()
	out := make([]apiMessage, 0, len(msgs))
	for _, m := range msgs {
		block := apiContentBlock{Type: "text", Text: m.Content}
		if n := len(out); n > 0 && out[n-1].Role == string(m.Role) {
			out[n-1].Content = append(out[n-1].Content, block)
			continue
		}
		out = append(out, apiMessage{Role: string(m.Role), Content: []apiContentBlock{block}})
	}
	return out
}

func responseText(resp *apiResponse) string {
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "")
}

type suggestionPayload struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Priority          string `json:"priority"`
	EstimatedDuration string `json:"estimated_duration"`
	Category          string `json:"category"`
}

// parseSuggestions extracts the JSON array from a model reply, tolerating
// surrounding prose or code fences.
func parseSuggestions(text string) ([]model.Suggestion, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in reply")
	}

	var payload []suggestionPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}

	out := make([]model.Suggestion, 0, len(payload))
	for _, p := range payload {
		out = append(out, model.Suggestion{
			Kind:              model.SuggestionNewTask,
			Title:             strings.TrimSpace(p.Title),
			Message:           p.Description,
			Priority:          normalizePriority(p.Priority),
			EstimatedDuration: p.EstimatedDuration,
			Category:          p.Category,
		})
	}
	return out, nil
}

func normalizePriority(p string) model.Priority {
	switch model.Priority(strings.ToLower(strings.TrimSpace(p))) {
	case model.PriorityHigh:
		return model.PriorityHigh
	case model.PriorityLow:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
