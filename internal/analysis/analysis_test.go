package analysis

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/infrastructure/llm"
)

type call struct {
	prompt    string
	maxTokens int
}

// recordingCompleter answers with the first reply whose key is contained in the prompt.
type recordingCompleter struct {
	mu       sync.Mutex
	calls    []call
	replies  map[string]string
	fallback string
}

func (r *recordingCompleter) Complete(_ context.Context, prompt string, maxTokens int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{prompt: prompt, maxTokens: maxTokens})
	for key, reply := range r.replies {
		if strings.Contains(prompt, key) {
			return reply
		}
	}
	return r.fallback
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("obligation ", n))
}

func TestSummarizeUsesCompliancePathWhenActionsExist(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{fallback: "Banks must report."}
	s := NewSummarizer(c, 10, nil)

	out := s.Summarize(context.Background(), words(25), "KYC Directions", `[{"function":"Compliance","task":"update KYC"}]`)

	assert.Equal(t, "Banks must report.", out)
	require.Len(t, c.calls, 4)
	for i, part := range c.calls[:3] {
		assert.Contains(t, part.prompt, "PART "+string(rune('1'+i)))
		assert.Equal(t, chunkSummaryTokens, part.maxTokens)
	}
	final := c.calls[3]
	assert.Equal(t, finalSummaryTokens, final.maxTokens)
	assert.Contains(t, final.prompt, "clearly reflects any regulatory obligations")
	assert.NotContains(t, final.prompt, AdministrativeNote)
}

func TestSummarizeUsesAdministrativePathWithoutActions(t *testing.T) {
	t.Parallel()

	for _, actions := range []string{"", "[]", "garbage", "```json\n[]\n```"} {
		c := &recordingCompleter{fallback: "ok"}
		NewSummarizer(c, 400, nil).Summarize(context.Background(), "Tender opens 1 May.", "Tender", actions)

		require.Len(t, c.calls, 2, actions)
		assert.Contains(t, c.calls[1].prompt, AdministrativeNote, actions)
	}
}

func TestSummarizeDegradesOnFailures(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{fallback: llm.FailureSentinel}
	out := NewSummarizer(c, 5, nil).Summarize(context.Background(), words(12), "T", "[]")

	assert.Equal(t, NoSummaryAvailable, out)
	require.Len(t, c.calls, 4)
	final := c.calls[3].prompt
	assert.Equal(t, 3, strings.Count(final, NoMaterialContent))
}

func TestSummarizeEmptyTextStillMakesFinalCall(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{fallback: "Administrative circular."}
	out := NewSummarizer(c, 400, nil).Summarize(context.Background(), "RESERVE BANK OF INDIA\nTel: 1\n", "T", "")

	assert.Equal(t, "Administrative circular.", out)
	assert.Len(t, c.calls, 1)
}

func TestSummarizeJoinsPartialsInOrder(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{
		replies: map[string]string{
			"PART 1": "first part",
			"PART 2": "second part",
			"Combine": "combined",
		},
	}
	out := NewSummarizer(c, 2, nil).Summarize(context.Background(), "a b c d", "T", "")

	assert.Equal(t, "combined", out)
	assert.Contains(t, c.calls[2].prompt, "first part\nsecond part")
}

func TestExtractAccumulatesAcrossChunks(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{
		replies: map[string]string{
			"PART 1": "```json\n[{\"function\":\"Compliance\",\"task\":\"File return\",\"due_by\":\"30 June\",\"references\":[\"Para 3\",\"Annex\"]}]\n```",
			"PART 2": llm.FailureSentinel,
			"PART 3": "Sure! Here you go: {\"function\":\"Risk\",\"task\":\"Review limits\",\"due_by\":null,\"references\":5}",
			"PART 4": "There are no actions.",
			"PART 5": "[\"stray\", {\"function\":\"compliance\",\"task\":\"file  return\",\"due_by\":\"30 june\"}]",
		},
	}
	e := NewActionExtractor(c, 2, domain.ActionPolicyKeep, nil)

	items, raw := e.Extract(context.Background(), words(10), "Master Direction")

	require.Len(t, c.calls, 5)
	for _, cl := range c.calls {
		assert.Equal(t, actionTokens, cl.maxTokens)
		assert.Contains(t, cl.prompt, "Master Direction")
	}
	require.Len(t, items, 3)
	assert.Equal(t, domain.ActionItem{Function: "Compliance", Task: "File return", DueBy: "30 June", References: "Para 3; Annex"}, items[0])
	assert.Equal(t, domain.ActionItem{Function: "Risk", Task: "Review limits", DueBy: "", References: "5"}, items[1])
	assert.Equal(t, "compliance", items[2].Function)
	assert.True(t, strings.HasPrefix(raw, `[{"function":"Compliance","task":"File return","due_by":"30 June","references":"Para 3; Annex"}`))
}

func TestExtractDedupePolicy(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{
		replies: map[string]string{
			"PART 1": `[{"function":"Compliance","task":"File return","due_by":"30 June"}]`,
			"PART 2": `[{"function":" compliance ","task":"file  RETURN","due_by":"30 june","references":"x"},{"function":"Ops","task":"Other"}]`,
		},
	}
	items, _ := NewActionExtractor(c, 2, domain.ActionPolicyDedupe, nil).Extract(context.Background(), words(4), "T")

	require.Len(t, items, 2)
	assert.Equal(t, "Ops", items[1].Function)
}

func TestExtractAllFailuresYieldsEmptyArray(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{fallback: llm.FailureSentinel}
	items, raw := NewActionExtractor(c, 3, "bogus", nil).Extract(context.Background(), words(7), "T")

	assert.Empty(t, items)
	assert.Equal(t, "[]", raw)
	assert.Len(t, c.calls, 3)
}

func TestExtractEmptyTextMakesNoCalls(t *testing.T) {
	t.Parallel()

	c := &recordingCompleter{fallback: "[]"}
	items, raw := NewActionExtractor(c, 400, domain.ActionPolicyKeep, nil).Extract(context.Background(), "", "T")

	assert.Empty(t, items)
	assert.Equal(t, "[]", raw)
	assert.Empty(t, c.calls)
}

func TestHasActions(t *testing.T) {
	t.Parallel()

	assert.True(t, HasActions(`[{"function":"a"}]`))
	assert.True(t, HasActions("```json\n[1]\n```"))
	assert.False(t, HasActions(`[]`))
	assert.False(t, HasActions(`{"function":"a"}`))
	assert.False(t, HasActions(""))
}
