package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesConfig(t *testing.T) {
	path := writeRules(t, `
sentiment_compound: -0.05
exclude_paragraphs_by_badwords:
  - "Subscribe"
  - ""
skip_messages_by_badwords: ["advert"]
rewriter_requests:
  - keep it short
sign: "Our channel"
`)

	rules, err := LoadRulesConfig(path)
	require.NoError(t, err)

	require.NotNil(t, rules.SentimentCompound)
	assert.InDelta(t, -0.05, *rules.SentimentCompound, 1e-9)
	assert.Equal(t, []string{"Subscribe"}, rules.ExcludeParagraphsByBadwords)
	assert.Equal(t, []string{"advert"}, rules.SkipMessagesByBadwords)
	assert.Equal(t, []string{"keep it short"}, rules.RewriterRequests)
	assert.Equal(t, "Our channel", rules.Sign)
	assert.Equal(t, path, rules.Source)
}

func TestLoadRulesConfig_ThresholdAbsent(t *testing.T) {
	rules, err := LoadRulesConfig(writeRules(t, "sign: x\n"))
	require.NoError(t, err)
	assert.Nil(t, rules.SentimentCompound)
}

func TestLoadRulesConfig_ExplicitPathMissing(t *testing.T) {
	_, err := LoadRulesConfig("/nonexistent/rules.yaml")
	assert.Error(t, err)
}

func TestLoadRulesConfig_Malformed(t *testing.T) {
	_, err := LoadRulesConfig(writeRules(t, "sign: [unterminated\n"))
	assert.Error(t, err)
}
