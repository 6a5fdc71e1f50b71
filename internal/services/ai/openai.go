package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

const (
	guidanceSystemPrompt = `You are Napoleon, a personal productivity coach. Give practical, specific guidance.
When you need more information from the user before you can help, ask one clear question.
Respond with valid JSON only: {"content": "<your reply>", "isQuestion": <true if your reply asks the user a question>}.`

	refineSystemPrompt = "You are an intelligent productivity assistant. Respond with valid JSON only."
	messageSystemPrompt = "You are an upbeat productivity coach. Reply with two or three sentences of plain text."
)

// OpenAIProvider implements Provider using OpenAI's chat completions API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	}, opts...)

	return &OpenAIProvider{
		client:    openai.NewClient(all...),
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// complete sends one chat completion and returns the first choice's content
func (p *OpenAIProvider) complete(ctx context.Context, operation string, messages []openai.ChatCompletionMessageParamUnion, jsonOut bool) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		// Temperature omitted - some models only support their default value
	}
	if jsonOut {
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	requestID := ExtractRequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("message_count", len(messages)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		return "", wrapCallError(operation, err)
	}
	if len(resp.Choices) == 0 {
		return "", &models.NetworkError{Op: operation, Err: errors.New(ErrNoChoicesInResponse)}
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// Chat answers the conversation and classifies the reply as a question or a resolution
func (p *OpenAIProvider) Chat(ctx context.Context, history []ChatMessage, profile *models.Profile) (*ChatResponse, error) {
	system := guidanceSystemPrompt
	if about := profileContext(profile); about != "" {
		system += "\n\nAbout the user:\n" + about
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, msg := range history {
		switch msg.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	content, err := p.complete(ctx, "guidance_chat", messages, true)
	if err != nil {
		return nil, err
	}
	return parseChatReply(content), nil
}

// parseChatReply reads the JSON reply. Models that ignore the format get their
// raw text back with the question flag inferred from a trailing "?".
func parseChatReply(content string) *ChatResponse {
	var reply struct {
		Content    string `json:"content"`
		IsQuestion bool   `json:"isQuestion"`
	}
	if raw, ok := extractJSONObject(content); ok {
		if err := json.Unmarshal([]byte(raw), &reply); err == nil && strings.TrimSpace(reply.Content) != "" {
			return &ChatResponse{Content: strings.TrimSpace(reply.Content), IsQuestion: reply.IsQuestion}
		}
	}
	text := strings.TrimSpace(content)
	return &ChatResponse{Content: text, IsQuestion: strings.HasSuffix(text, "?")}
}

// extractJSONObject returns the outermost {...} span of s
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// DailyMessage summarises today's plan
func (p *OpenAIProvider) DailyMessage(ctx context.Context, tasks []*models.Task, profile *models.Profile) (string, error) {
	var b strings.Builder
	if len(tasks) == 0 {
		b.WriteString("The user has nothing scheduled today.\n")
	} else {
		b.WriteString("Today's tasks in order:\n")
		b.WriteString(describeTasks(tasks))
	}
	if about := profileContext(profile); about != "" {
		b.WriteString("\nAbout the user:\n")
		b.WriteString(about)
	}
	b.WriteString("\nWrite a short message that helps the user start the day with focus.")

	content, err := p.complete(ctx, "daily_message", []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(messageSystemPrompt),
		openai.UserMessage(b.String()),
	}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// MotivationalMessage encourages the user based on habit tracking progress
func (p *OpenAIProvider) MotivationalMessage(ctx context.Context, progress Progress, profile *models.Profile) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Habit tracking over the last %d day(s):\n", progress.Days)
	fmt.Fprintf(&b, "- Current streak: %d day(s)\n", progress.CurrentStreak)
	if progress.WeeklyAverage != nil {
		fmt.Fprintf(&b, "- Average daily completion: %d%%\n", *progress.WeeklyAverage)
	}
	if progress.MostConsistent != "" {
		fmt.Fprintf(&b, "- Most consistent habit: %s\n", progress.MostConsistent)
	}
	if about := profileContext(profile); about != "" {
		b.WriteString("\nAbout the user:\n")
		b.WriteString(about)
	}
	b.WriteString("\nWrite a motivational message that acknowledges this progress.")

	content, err := p.complete(ctx, "motivational_message", []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(messageSystemPrompt),
		openai.UserMessage(b.String()),
	}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// RefineOrder asks the model to reorder tasks that are already sorted by due date and priority
func (p *OpenAIProvider) RefineOrder(ctx context.Context, tasks []*models.Task, profile *models.Profile) ([]string, error) {
	if len(tasks) < 2 {
		return taskIDs(tasks), nil
	}

	content, err := p.complete(ctx, "refine_order", []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(refineSystemPrompt),
		openai.UserMessage(buildRefinePrompt(tasks, profile)),
	}, true)
	if err != nil {
		return nil, err
	}

	order, err := parseRefinedOrder(content, tasks)
	if err != nil {
		return nil, &models.NetworkError{Op: "refine_order", Err: err}
	}
	return order, nil
}

func buildRefinePrompt(tasks []*models.Task, profile *models.Profile) string {
	var b strings.Builder
	b.WriteString("Here is the user's task list, sorted by due date and priority:\n")
	b.WriteString(describeTasks(tasks))
	if about := profileContext(profile); about != "" {
		b.WriteString("\nThe user has provided the following context for prioritization:\n")
		b.WriteString(about)
	}
	b.WriteString(`
Refine the task order if needed, considering:
- Deadlines (tasks due sooner should generally come first).
- Priority (High > Medium > Low).
- Alignment with the user's goals and focus areas.
- Balancing effort and workload.

Respond as {"order": [{"id": "<task id>", "reason": "<why it is in this position>"}]} including every task exactly once.`)
	return b.String()
}

// parseRefinedOrder keeps only known IDs, drops duplicates, and appends any
// task the model left out in its original position order.
func parseRefinedOrder(content string, tasks []*models.Task) ([]string, error) {
	var reply struct {
		Order []struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"order"`
	}
	raw, ok := extractJSONObject(content)
	if !ok {
		return nil, fmt.Errorf("refinement reply is not JSON")
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse refinement reply: %w", err)
	}

	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	seen := make(map[string]bool, len(tasks))
	order := make([]string, 0, len(tasks))
	for _, item := range reply.Order {
		if known[item.ID] && !seen[item.ID] {
			seen[item.ID] = true
			order = append(order, item.ID)
		}
	}
	for _, t := range tasks {
		if !seen[t.ID] {
			order = append(order, t.ID)
		}
	}
	return order, nil
}

func describeTasks(tasks []*models.Task) string {
	var b strings.Builder
	for i, t := range tasks {
		goals := make([]string, 0, len(t.Goals))
		for _, g := range t.Goals {
			goals = append(goals, string(g))
		}
		fmt.Fprintf(&b, "%d. [id=%s] %s (Due: %s, Priority: %s, Type: %s, Estimated: %gh, Goals: %s)\n",
			i+1, t.ID, t.Name, t.DueDate, t.Priority, t.TaskType, t.EstimatedTime, strings.Join(goals, ", "))
	}
	return b.String()
}

func profileContext(p *models.Profile) string {
	if p == nil {
		return ""
	}
	var lines []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add("Name", p.Username)
	add("About", p.About)
	add("Short-term goals", p.ShortTermGoals)
	add("Medium-term goals", p.MediumTermGoals)
	add("Long-term goals", p.LongTermGoals)
	return strings.Join(lines, "\n")
}

func taskIDs(tasks []*models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
