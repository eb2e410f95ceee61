package anthropic

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridescan/stridescan/internal/resilience"
)

func apiError(status int) *sdk.Error {
	return &sdk.Error{
		StatusCode: status,
		Request: &http.Request{
			Method: http.MethodPost,
			URL:    &url.URL{Scheme: "https", Host: "api.anthropic.com", Path: "/v1/messages"},
		},
		Response: &http.Response{StatusCode: status, Header: http.Header{}},
	}
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "first"},
			{Type: "text", Text: ""},
			{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first\nsecond", resp.Text())

	var nilResp *MessageResponse
	assert.Equal(t, "", nilResp.Text())
}

func TestClassifyError_RateLimit(t *testing.T) {
	err := classifyError(apiError(429))

	require.True(t, resilience.IsRateLimit(err))
}

func TestClassifyError_RateLimitWithHeaderHint(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "17")
	apierr := apiError(429)
	apierr.Response = &http.Response{Header: header}

	err := classifyError(apierr)

	var rle *resilience.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 17*time.Second, rle.RetryAfter)
	assert.Equal(t, 429, rle.StatusCode)
}

func TestClassifyError_NonRateLimitNotRetryable(t *testing.T) {
	for _, status := range []int{400, 401, 403, 500, 529} {
		err := classifyError(apiError(status))
		assert.False(t, resilience.IsRateLimit(err), "status %d", status)
	}
}
