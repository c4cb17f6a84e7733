package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeLLMServer отвечает content для модели из replies; остальные модели получают 500.
type fakeLLMServer struct {
	mu       sync.Mutex
	replies  map[string]string
	requests []chatRequest
}

func (s *fakeLLMServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		content, ok := s.replies[req.Model]
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}
}

func newTestClient(t *testing.T, replies map[string]string, models ...string) (LLMClient, *fakeLLMServer) {
	t.Helper()
	fake := &fakeLLMServer{replies: replies}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	return NewLLMClient("test-key", srv.URL+"/v1", models, 0.4, 5*time.Second, zerolog.Nop()), fake
}

const roadmapJSON = `{
  "reasoning": "Solid base, weak in system design.",
  "estimatedTimeline": "3 months",
  "successProbability": "Moderate, depends on mock interview practice.",
  "keyMilestones": [{"milestone": "150 DSA problems", "targetDate": "Month 1"}],
  "roadmapBreakdown": [{"period": "Month 1", "title": "DSA", "tasks": ["Arrays", "Graphs"]}]
}`

func TestSummarize(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"primary": `{"summary": "  Expect two DSA rounds and one HR round.  "}`,
	}, "primary")

	summary, err := client.Summarize(context.Background(), "Acme", []string{"Round 1: Trees\nRound 2: N/A\nRound 3: N/A"})

	require.NoError(t, err)
	assert.Equal(t, "Expect two DSA rounds and one HR round.", summary)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Acme")
	assert.Contains(t, req.Messages[1].Content, "Round 1: Trees")
}

func TestSummarize_StripsMarkdownFence(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"primary": "```json\n{\"summary\": \"Focus on graphs.\"}\n```",
	}, "primary")

	summary, err := client.Summarize(context.Background(), "Acme", []string{"block"})

	require.NoError(t, err)
	assert.Equal(t, "Focus on graphs.", summary)
}

func TestSummarize_EmptySummaryIsInvalid(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{"primary": `{"summary": ""}`}, "primary")

	_, err := client.Summarize(context.Background(), "Acme", []string{"block"})

	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestComplete_FallsBackToNextModel(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"backup": `{"summary": "From the backup model."}`,
	}, "primary", "backup")

	summary, err := client.Summarize(context.Background(), "Acme", []string{"block"})

	require.NoError(t, err)
	assert.Equal(t, "From the backup model.", summary)
	require.Len(t, fake.requests, 2)
	assert.Equal(t, "primary", fake.requests[0].Model)
	assert.Equal(t, "backup", fake.requests[1].Model)
}

func TestComplete_AllModelsFail(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{}, "primary", "backup")

	_, err := client.Summarize(context.Background(), "Acme", []string{"block"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all models failed")
}

func TestNotConfigured(t *testing.T) {
	client := NewLLMClient("", "", []string{"primary"}, 0.4, time.Second, zerolog.Nop())

	_, err := client.Summarize(context.Background(), "Acme", []string{"block"})
	assert.True(t, errors.Is(err, ErrLLMNotConfigured))

	_, err = client.GenerateRoadmap(context.Background(), RoadmapPromptInput{})
	assert.True(t, errors.Is(err, ErrLLMNotConfigured))
}

func TestGenerateRoadmap(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{"primary": roadmapJSON}, "primary")

	roadmap, err := client.GenerateRoadmap(context.Background(), RoadmapPromptInput{
		CGPA:              "8.5",
		Branch:            "CSE",
		College:           "NIT Trichy",
		TargetCompany:     "Acme",
		Role:              "SDE",
		ExperienceContext: "Student from IIT (CGPA: 9, Branch: CSE) applied for SDE.",
	})

	require.NoError(t, err)
	assert.Equal(t, "3 months", roadmap.EstimatedTimeline)
	require.Len(t, roadmap.KeyMilestones, 1)
	assert.Equal(t, []string{"Arrays", "Graphs"}, roadmap.RoadmapBreakdown[0].Tasks)

	prompt := fake.requests[0].Messages[1].Content
	assert.Contains(t, prompt, "CGPA: 8.5")
	assert.Contains(t, prompt, "Student from IIT")
}

func TestGenerateRoadmap_RejectsIncompleteSchema(t *testing.T) {
	tests := map[string]string{
		"missing timeline":   `{"reasoning":"r","successProbability":"p","keyMilestones":[],"roadmapBreakdown":[]}`,
		"missing milestones": `{"reasoning":"r","estimatedTimeline":"t","successProbability":"p","roadmapBreakdown":[]}`,
		"incomplete period":  `{"reasoning":"r","estimatedTimeline":"t","successProbability":"p","keyMilestones":[],"roadmapBreakdown":[{"period":"Month 1"}]}`,
		"not json":           `I cannot help with that.`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, map[string]string{"primary": content}, "primary")

			_, err := client.GenerateRoadmap(context.Background(), RoadmapPromptInput{TargetCompany: "Acme"})

			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSONResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONResponse(`Here you go: {"a":1} hope it helps`))
	assert.Equal(t, `plain`, cleanJSONResponse("  plain "))
}
