package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lubobali/mergeAI/pkg/llm"
)

func TestSummaryAgent_Summarize(t *testing.T) {
	var gotTemperature float64
	mock := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
			gotTemperature = temperature
			return "Sales were highest in the West region. The East trailed by 40%.", nil
		},
	}
	agent := NewSummaryAgent(mock, zap.NewNop())

	summary, err := agent.Summarize(context.Background(), "sales by region",
		[]string{"region", "total"},
		[]map[string]any{{"region": "West", "total": 100.0}, {"region": "East", "total": 60.0}})

	require.NoError(t, err)
	assert.Equal(t, "Sales were highest in the West region. The East trailed by 40%.", summary)
	assert.InDelta(t, 0.3, gotTemperature, 0.0001)
}

func TestSummaryAgent_StripsThinking(t *testing.T) {
	mock := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
			return "<think>the rows show one region</think>\nOnly one region appears in the result.", nil
		},
	}
	agent := NewSummaryAgent(mock, zap.NewNop())

	summary, err := agent.Summarize(context.Background(), "q", []string{"region"},
		[]map[string]any{{"region": "West"}})

	require.NoError(t, err)
	assert.Equal(t, "Only one region appears in the result.", summary)
}

func TestSummaryAgent_ErrorsPropagate(t *testing.T) {
	mock := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
			return "", assert.AnError
		},
	}
	agent := NewSummaryAgent(mock, zap.NewNop())

	_, err := agent.Summarize(context.Background(), "q", []string{"a"}, []map[string]any{{"a": 1}})
	assert.Error(t, err)
}

func TestSummaryAgent_EmptyResponseIsError(t *testing.T) {
	mock := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
			return "<think>nothing useful</think>", nil
		},
	}
	agent := NewSummaryAgent(mock, zap.NewNop())

	_, err := agent.Summarize(context.Background(), "q", []string{"a"}, []map[string]any{{"a": 1}})
	assert.Error(t, err)
}
