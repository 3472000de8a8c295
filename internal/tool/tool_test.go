package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/blacktop/medium-mcp/internal/medium"
	"github.com/blacktop/medium-mcp/internal/metrics"
	"github.com/blacktop/medium-mcp/internal/syndicate"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, in medium.Input) medium.PublishResult {
	return m.Called(ctx, in).Get(0).(medium.PublishResult)
}

type mockAnnouncer struct {
	mock.Mock
}

func (m *mockAnnouncer) Name() string { return "mastodon" }

func (m *mockAnnouncer) Announce(ctx context.Context, a syndicate.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = Name
	req.Params.Arguments = args
	return req
}

func decode(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestHandleSuccess(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in medium.Input) bool {
		return in.Title == "T" && in.Content == "C" && len(in.Tags) == 2 && in.CanonicalURL == nil
	})).Return(medium.Succeeded(json.RawMessage(`{"id":"p1","url":"https://medium.com/p/p1"}`), "Post 'T' created successfully as draft"))

	h := New(pub)
	res, err := h.Handle(context.Background(), callRequest(map[string]any{
		"title":   "T",
		"content": "C",
		"tags":    []any{"a", "b"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	out := decode(t, res)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, map[string]any{"id": "p1", "url": "https://medium.com/p/p1"}, out["post"])
	assert.Contains(t, out["message"], "created successfully")
	assert.NotContains(t, out, "error")
	assert.NotContains(t, out, "announced")
	pub.AssertExpectations(t)
}

func TestHandleFailure(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(medium.Failed("Could not retrieve Medium user ID."))

	res, err := New(pub).Handle(context.Background(), callRequest(map[string]any{"title": "T", "content": "C"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	out := decode(t, res)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Could not retrieve Medium user ID.", out["error"])
	assert.NotContains(t, out, "post")
}

func TestHandleBadArguments(t *testing.T) {
	pub := &mockPublisher{}
	failures := metrics.PublishResults.WithLabelValues("failure")
	before := testutil.ToFloat64(failures)

	res, err := New(pub).Handle(context.Background(), callRequest(map[string]any{
		"title":   "T",
		"content": "C",
		"tags":    []any{"ok", 7},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	out := decode(t, res)
	assert.Contains(t, out["error"], "tags validation failed")
	assert.Equal(t, before+1, testutil.ToFloat64(failures))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestHandleAnnouncesNormalizedTags(t *testing.T) {
	post := json.RawMessage(`{"id":"p1","url":"https://medium.com/p/p1"}`)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(medium.Succeeded(post, "ok"))

	ann := &mockAnnouncer{}
	ann.On("Announce", mock.Anything, syndicate.Announcement{
		Title: "T",
		URL:   "https://medium.com/p/p1",
		Tags:  []string{"a", "b", "c", "d", "e"},
	}).Return(nil).Once()

	res, err := New(pub, ann).Handle(context.Background(), callRequest(map[string]any{
		"title":          "  T ",
		"content":        "C",
		"publish_status": " Public ",
		"tags":           []any{" a", "", "b", "c ", "d", "e", "f", "g"},
	}))
	require.NoError(t, err)
	out := decode(t, res)
	assert.Equal(t, []any{"mastodon"}, out["announced"])
	ann.AssertExpectations(t)
}

func TestHandleAnnouncesPublicPosts(t *testing.T) {
	post := json.RawMessage(`{"id":"p1","url":"https://medium.com/p/p1"}`)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(medium.Succeeded(post, "ok"))

	ann := &mockAnnouncer{}
	ann.On("Announce", mock.Anything, syndicate.Announcement{
		Title: "T",
		URL:   "https://medium.com/p/p1",
		Tags:  []string{"go"},
	}).Return(nil).Once()

	res, err := New(pub, ann).Handle(context.Background(), callRequest(map[string]any{
		"title":          "T",
		"content":        "C",
		"publish_status": "public",
		"tags":           []any{"go"},
	}))
	require.NoError(t, err)
	out := decode(t, res)
	assert.Equal(t, []any{"mastodon"}, out["announced"])
	ann.AssertExpectations(t)
}

func TestHandleAnnouncementFailureKeepsSuccess(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(medium.Succeeded(json.RawMessage(`{"url":"https://medium.com/p/1"}`), "ok"))
	ann := &mockAnnouncer{}
	ann.On("Announce", mock.Anything, mock.Anything).Return(errors.New("rate limited"))

	res, err := New(pub, ann).Handle(context.Background(), callRequest(map[string]any{
		"title": "T", "content": "C", "publish_status": "public",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	out := decode(t, res)
	assert.Equal(t, true, out["success"])
	assert.NotContains(t, out, "announced")
}

func TestHandleDoesNotAnnounceDrafts(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(medium.Succeeded(json.RawMessage(`{"url":"https://medium.com/p/1"}`), "ok"))
	ann := &mockAnnouncer{}

	for _, status := range []string{"", "draft", "unlisted"} {
		_, err := New(pub, ann).Handle(context.Background(), callRequest(map[string]any{
			"title": "T", "content": "C", "publish_status": status,
		}))
		require.NoError(t, err)
	}
	ann.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)
}

func TestInputFromArgs(t *testing.T) {
	in, err := InputFromArgs(map[string]any{
		"title":            "T",
		"content":          "C",
		"publish_status":   "unlisted",
		"content_format":   "html",
		"tags":             "go, mcp",
		"canonical_url":    "",
		"notify_followers": "true",
		"license":          "cc-40-by",
	})
	require.NoError(t, err)
	assert.Equal(t, "unlisted", in.PublishStatus)
	assert.Equal(t, "html", in.ContentFormat)
	assert.Equal(t, []string{"go", " mcp"}, in.Tags)
	require.NotNil(t, in.CanonicalURL)
	assert.Equal(t, "", *in.CanonicalURL)
	require.NotNil(t, in.License)
	assert.True(t, in.NotifyFollowers)

	in, err = InputFromArgs(map[string]any{"title": "T", "content": "C", "canonical_url": nil})
	require.NoError(t, err)
	assert.Nil(t, in.CanonicalURL)
	assert.Nil(t, in.License)
	assert.Nil(t, in.Tags)
	assert.False(t, in.NotifyFollowers)
}

func TestInputFromArgsTypeErrors(t *testing.T) {
	tests := map[string]map[string]any{
		"title":            {"title": 5},
		"notify_followers": {"notify_followers": "maybe"},
		"tags":             {"tags": 3.5},
		"license":          {"license": true},
	}
	for field, args := range tests {
		_, err := InputFromArgs(args)
		var verr medium.ValidationError
		require.True(t, errors.As(err, &verr), field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestDefinition(t *testing.T) {
	def := Definition()
	assert.Equal(t, Name, def.Name)
	assert.ElementsMatch(t, []string{"title", "content"}, def.InputSchema.Required)
	for _, p := range []string{"title", "content", "publish_status", "content_format", "tags", "canonical_url", "notify_followers", "license"} {
		assert.Contains(t, def.InputSchema.Properties, p)
	}
}
