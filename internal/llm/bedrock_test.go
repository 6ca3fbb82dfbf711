package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(5),
			TotalTokens:  aws.Int32(17),
		},
	}
}

func TestBedrockClientComplete(t *testing.T) {
	api := &fakeConverse{out: textOutput("  hello there  ")}
	client := NewBedrockClient(api, "anthropic.test-model")

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"be brief", " "},
		Messages:    []Message{{Role: RoleSystem, Content: "extra rule"}, {Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: ""}},
		MaxTokens:   200,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, int32(17), resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.StopReason)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.test-model", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 2)
	assert.Len(t, api.input.Messages, 1)
	assert.Equal(t, int32(200), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
}

func TestBedrockClientRequestModelOverrides(t *testing.T) {
	api := &fakeConverse{out: textOutput("ok")}
	client := NewBedrockClient(api, "default")
	_, err := client.Complete(context.Background(), Request{Model: "override", Messages: []Message{{Role: RoleUser, Content: "x"}}, Temperature: -1})
	require.NoError(t, err)
	assert.Equal(t, "override", aws.ToString(api.input.ModelId))
	assert.Nil(t, api.input.InferenceConfig)
}

func TestBedrockClientErrors(t *testing.T) {
	_, err := NewBedrockClient(&fakeConverse{}, "").Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.ErrorContains(t, err, "model id is required")

	_, err = NewBedrockClient(&fakeConverse{}, "m").Complete(context.Background(), Request{Messages: []Message{{Role: "robot", Content: "x"}}})
	assert.ErrorContains(t, err, "unsupported role")

	_, err = NewBedrockClient(&fakeConverse{}, "m").Complete(context.Background(), Request{})
	assert.ErrorContains(t, err, "at least one message")

	api := &fakeConverse{err: errors.New("throttled")}
	_, err = NewBedrockClient(api, "m").Complete(context.Background(), UserPrompt("", "x", 0, 0))
	assert.ErrorContains(t, err, "throttled")

	empty := &fakeConverse{out: textOutput("   ")}
	_, err = NewBedrockClient(empty, "m").Complete(context.Background(), UserPrompt("", "x", 0, 0))
	assert.ErrorContains(t, err, "no text")

	assert.Panics(t, func() { NewBedrockClient(nil, "m") })
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), " ", "")
	assert.ErrorContains(t, err, "api key is required")
}
