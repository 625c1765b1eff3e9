package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/failsafe-go/failsafe-go"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/infra/openai"
)

const sentimentPromptTemplate = `You are a sentiment analyzer. The user message is a post written in %s.
Translate it to English, then rate the sentiment of the English translation the way the VADER analyzer does.

Reply with a JSON object only:
{"neg": <0..1>, "neu": <0..1>, "pos": <0..1>, "compound": <-1..1>}

neg, neu and pos are proportions that sum to 1. compound is the normalized overall polarity:
-1 is most negative, 0 is neutral, 1 is most positive.`

// sentimentRepo implements the Sentiment repository with an OpenAI-compatible model
type sentimentRepo struct {
	client         *openai.Client
	sourceLanguage string
	executor       failsafe.Executor[domain.PolarityScores]
}

// NewSentimentRepo creates a Sentiment repository
func NewSentimentRepo(client *openai.Client, sourceLanguage string) repo.SentimentRepo {
	if client == nil {
		return nil
	}
	return newSentimentRepo(client, sourceLanguage, defaultRetryConfig)
}

func newSentimentRepo(client *openai.Client, sourceLanguage string, retry retryConfig) *sentimentRepo {
	return &sentimentRepo{
		client:         client,
		sourceLanguage: sourceLanguage,
		executor:       failsafe.With(newRetryPolicy[domain.PolarityScores](retry)),
	}
}

// TranslateAndScore translates text to English and scores its polarity
func (r *sentimentRepo) TranslateAndScore(ctx context.Context, text string) (domain.PolarityScores, error) {
	return r.executor.WithContext(ctx).Get(func() (domain.PolarityScores, error) {
		out, err := r.client.Chat(ctx, openai.ChatRequest{
			System:    fmt.Sprintf(sentimentPromptTemplate, r.sourceLanguage),
			User:      text,
			MaxTokens: 100,
			JSON:      true,
		})
		if err != nil {
			return domain.PolarityScores{}, err
		}
		return parsePolarityScores(out)
	})
}

// parsePolarityScores reads the model reply; a missing compound score is an error
func parsePolarityScores(out string) (domain.PolarityScores, error) {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")

	var reply struct {
		Neg      float64  `json:"neg"`
		Neu      float64  `json:"neu"`
		Pos      float64  `json:"pos"`
		Compound *float64 `json:"compound"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &reply); err != nil {
		return domain.PolarityScores{}, fmt.Errorf("malformed sentiment reply %q: %w", out, err)
	}
	if reply.Compound == nil {
		return domain.PolarityScores{}, fmt.Errorf("sentiment reply without compound score: %q", out)
	}

	scores := domain.PolarityScores{
		Neg:      reply.Neg,
		Neu:      reply.Neu,
		Pos:      reply.Pos,
		Compound: *reply.Compound,
	}
	return scores.Clamp(), nil
}
