package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/yukikurage/taskboard-api/internal/constants"
)

// TaskGenerator turns free text into suggested tasks.
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

type AIService struct {
	client *openai.Client
	now    func() time.Time
}

// GeneratedTask is a suggested task payload. It is never persisted by the
// generator; clients submit the ones they keep through task creation.
type GeneratedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		now:    time.Now,
	}
}

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	today := s.now().UTC().Format(constants.DateLayout)
	prompt := fmt.Sprintf(`You extract actionable tasks from text.

Today is %s.

Text:
%s

Return a JSON array of tasks in this exact shape:
[
  {
    "title": "short task title",
    "description": "task details",
    "category": "project or area, or General",
    "priority": "Low, Medium or High",
    "date": "scheduled day as YYYY-MM-DD",
    "time": "display time such as 14:00, or empty"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative dates such as "tomorrow" or "next week" to concrete dates; use today when no date is given
- Return only JSON, without any explanation`, today, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a markdown code fence the model sometimes wraps JSON in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
