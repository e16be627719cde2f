package gemini

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"changelog-digest/internal/pipeline"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil response", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, ""},
		{
			"joins text parts",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("Hooks "), genai.Blob{MIMEType: "image/png"}, genai.Text("were added.\n")}},
			}}},
			"Hooks were added.",
		},
		{
			"first candidate only",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("one")}}},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("two")}}},
			}},
			"one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseText(tt.resp))
		})
	}
}

func TestClassify(t *testing.T) {
	err := classify(&googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"})
	assert.ErrorIs(t, err, pipeline.ErrRateLimited)

	var se *pipeline.SummarizeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, Provider, se.Provider)

	err = classify(&googleapi.Error{Code: http.StatusInternalServerError})
	assert.ErrorIs(t, err, pipeline.ErrRemoteFailure)

	err = classify(errors.New("connection reset"))
	assert.ErrorIs(t, err, pipeline.ErrRemoteFailure)
	require.True(t, errors.As(err, &se))
	assert.Zero(t, se.StatusCode)
}
