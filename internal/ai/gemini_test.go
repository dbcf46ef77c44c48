package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func candidateResponse(reason genai.FinishReason, text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: reason,
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestBuildResultComplete(t *testing.T) {
	res := buildResult(candidateResponse(genai.FinishReasonStop, "all the notes"))
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, "all the notes", res.Text)
	assert.False(t, res.SafetyFlagged)
}

func TestBuildResultMaxTokens(t *testing.T) {
	res := buildResult(candidateResponse(genai.FinishReasonMaxTokens, "cut off"))
	assert.Equal(t, StatusTruncated, res.Status)
	assert.Equal(t, "cut off", res.Text)
	assert.False(t, res.SafetyFlagged)
}

func TestBuildResultSafetyFinishKeepsPartialText(t *testing.T) {
	for _, reason := range []genai.FinishReason{genai.FinishReasonSafety, genai.FinishReasonProhibitedContent} {
		res := buildResult(candidateResponse(reason, "partial notes text"))
		assert.Equal(t, StatusTruncated, res.Status, string(reason))
		assert.Equal(t, "partial notes text", res.Text, string(reason))
		assert.True(t, res.SafetyFlagged, string(reason))
	}
}

func TestBuildResultSafetyRatingFlags(t *testing.T) {
	rsp := candidateResponse(genai.FinishReasonStop, "edgy but complete")
	rsp.Candidates[0].SafetyRatings = []*genai.SafetyRating{
		{Probability: genai.HarmProbabilityNegligible},
		{Probability: genai.HarmProbabilityMedium},
	}
	res := buildResult(rsp)
	assert.Equal(t, StatusComplete, res.Status)
	assert.True(t, res.SafetyFlagged)
}

func TestBuildResultPromptBlocked(t *testing.T) {
	rsp := &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
			BlockReason: genai.BlockedReasonSafety,
		},
	}
	res := buildResult(rsp)
	assert.Equal(t, StatusBlocked, res.Status)
	assert.True(t, res.SafetyFlagged)
	assert.Equal(t, string(genai.BlockedReasonSafety), res.BlockReason)
	assert.Empty(t, res.Text)
}

func TestBuildResultNoCandidates(t *testing.T) {
	res := buildResult(&genai.GenerateContentResponse{})
	assert.Equal(t, StatusOther, res.Status)
}
