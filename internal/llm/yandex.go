package llm

import (
	"context"

	"github.com/Morwran/yagpt"
	"github.com/pkg/errors"
)

// YandexClient talks to YandexGPT. It has no function calling, so the agent
// runs without tools when this provider is selected.
type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init yandex iam")
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create iam token")
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init yagpt")
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, toYandexMessages(messages))
	if err != nil {
		return Response{}, errors.Wrap(err, "yagpt completion failed")
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, errors.New("yagpt returned empty response")
	}
	out := Response{Content: resp.Alternatives[0].Message.Content, Model: yagpt.YaModelLite}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)
	return out, nil
}

// toYandexMessages drops tool traffic left in the history by a
// tool-capable provider; YandexGPT only accepts system/user/assistant.
func toYandexMessages(messages []Message) []yagpt.Message {
	out := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleTool || m.Content == "" {
			continue
		}
		out = append(out, yagpt.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
