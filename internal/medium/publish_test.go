package medium

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/blacktop/medium-mcp/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSuccess(t *testing.T) {
	f, srv := newFakeMedium(t)
	f.post = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/u1/posts", r.URL.Path)
		writeJSON(w, http.StatusCreated, `{"data":{"id":"p1","url":"https://medium.com/p/p1"}}`)
	}
	p := NewPublisher(newTestClient(t, srv.URL))

	res := p.Publish(context.Background(), Input{Title: "T", Content: "C", PublishStatus: "public"})
	require.True(t, res.Success, res.Error)
	assert.JSONEq(t, `{"id":"p1","url":"https://medium.com/p/p1"}`, string(res.Post))
	assert.Contains(t, res.Message, "T")
	assert.Contains(t, res.Message, "public")
	assert.Equal(t, "https://medium.com/p/p1", res.PostURL())
	assert.Empty(t, res.Error)

	body := f.lastBody()
	assert.Equal(t, "public", body["publishStatus"])
	assert.NotContains(t, body, "tags")
}

func TestPublishSendsNormalizedTags(t *testing.T) {
	f, srv := newFakeMedium(t)
	p := NewPublisher(newTestClient(t, srv.URL))

	res := p.Publish(context.Background(), Input{
		Title:   "T",
		Content: "C",
		Tags:    []string{"a", "", "  b  ", "c", "d", "e", "f"},
	})
	require.True(t, res.Success, res.Error)

	body := f.lastBody()
	assert.Equal(t, []any{"a", "b", "c", "d", "e"}, body["tags"])
	assert.Equal(t, "draft", body["publishStatus"])
	assert.Equal(t, "markdown", body["contentFormat"])
}

func TestPublishNoUserIDSkipsPost(t *testing.T) {
	f, srv := newFakeMedium(t)
	f.me = func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, `{"data":{}}`) }
	p := NewPublisher(newTestClient(t, srv.URL))

	res := p.Publish(context.Background(), Input{Title: "T", Content: "C"})
	assert.False(t, res.Success)
	assert.Equal(t, "Could not retrieve Medium user ID.", res.Error)
	assert.Zero(t, f.postCalls.Load())
}

func TestPublishServerErrorsExhaustBudget(t *testing.T) {
	f, srv := newFakeMedium(t)
	f.post = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"message":"upstream overloaded"}`)
	}
	p := NewPublisher(newTestClient(t, srv.URL))

	res := p.Publish(context.Background(), Input{Title: "T", Content: "C"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "upstream overloaded")
	assert.Contains(t, res.Error, "503")
	assert.EqualValues(t, 3, f.postCalls.Load())
	assert.EqualValues(t, 1, f.meCalls.Load())
}

func TestPublishIdentityAndWriteHaveSeparateBudgets(t *testing.T) {
	f, srv := newFakeMedium(t)
	f.me = func(w http.ResponseWriter, r *http.Request) {
		if f.meCalls.Load() < 3 {
			writeJSON(w, http.StatusInternalServerError, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"id":"u1"}}`)
	}
	f.post = func(w http.ResponseWriter, r *http.Request) {
		if f.postCalls.Load() < 3 {
			writeJSON(w, http.StatusInternalServerError, `{}`)
			return
		}
		writeJSON(w, http.StatusCreated, `{"data":{"id":"p1"}}`)
	}
	p := NewPublisher(newTestClient(t, srv.URL))

	res := p.Publish(context.Background(), Input{Title: "T", Content: "C"})
	require.True(t, res.Success, res.Error)
	assert.EqualValues(t, 3, f.meCalls.Load())
	assert.EqualValues(t, 3, f.postCalls.Load())
}

func TestPublishValidationFailureMakesNoCalls(t *testing.T) {
	f, srv := newFakeMedium(t)
	p := NewPublisher(newTestClient(t, srv.URL))

	res := p.Publish(context.Background(), Input{Title: "", Content: "C"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "title")
	assert.Zero(t, f.meCalls.Load())
	assert.Zero(t, f.postCalls.Load())
}

func TestPublishDuplicatesAreNotDeduplicated(t *testing.T) {
	f, srv := newFakeMedium(t)
	p := NewPublisher(newTestClient(t, srv.URL))
	in := Input{Title: "Same", Content: "Same body"}

	first := p.Publish(context.Background(), in)
	second := p.Publish(context.Background(), in)
	require.True(t, first.Success)
	require.True(t, second.Success)

	var a, b struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(first.Post, &a))
	require.NoError(t, json.Unmarshal(second.Post, &b))
	assert.NotEqual(t, a.ID, b.ID)
	assert.EqualValues(t, 2, f.postCalls.Load())
}

func TestPublishMalformedSuccessBody(t *testing.T) {
	f, srv := newFakeMedium(t)
	f.post = func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusCreated, `not json`) }
	p := NewPublisher(newTestClient(t, srv.URL))

	res := p.Publish(context.Background(), Input{Title: "T", Content: "C"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Unexpected error:")
	assert.EqualValues(t, 1, f.postCalls.Load())
}

func TestPublishRecoversFromPanic(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		panic("boom")
	})}
	c, err := NewClient(Config{Token: "tok", BaseURL: "http://medium.invalid/v1", HTTPClient: hc})
	require.NoError(t, err)
	failures := metrics.PublishResults.WithLabelValues("failure")
	before := testutil.ToFloat64(failures)

	var res PublishResult
	require.NotPanics(t, func() {
		res = NewPublisher(c).Publish(context.Background(), Input{Title: "T", Content: "C"})
	})
	assert.False(t, res.Success)
	assert.Equal(t, "Unexpected error: boom", res.Error)
	assert.Empty(t, res.Post)
	assert.Equal(t, before+1, testutil.ToFloat64(failures))
}

func TestPublishUnconfigured(t *testing.T) {
	var p *Publisher
	res := p.Publish(context.Background(), Input{Title: "T", Content: "C"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Unexpected error:")
}

func TestPublishConcurrentCalls(t *testing.T) {
	f, srv := newFakeMedium(t)
	p := NewPublisher(newTestClient(t, srv.URL))

	const n = 8
	results := make(chan PublishResult, n)
	for i := 0; i < n; i++ {
		go func() {
			results <- p.Publish(context.Background(), Input{Title: "T", Content: "C"})
		}()
	}
	for i := 0; i < n; i++ {
		res := <-results
		assert.True(t, res.Success, res.Error)
	}
	assert.EqualValues(t, n, f.postCalls.Load())
}
