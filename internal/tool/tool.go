package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/medium"
	"github.com/blacktop/medium-mcp/internal/metrics"
	"github.com/blacktop/medium-mcp/internal/syndicate"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Name is the tool name advertised to agents.
const Name = "medium_create_post"

// Publisher is the core publish pipeline.
type Publisher interface {
	Publish(ctx context.Context, in medium.Input) medium.PublishResult
}

// Result is the JSON document returned to the agent.
type Result struct {
	medium.PublishResult
	Announced []string `json:"announced,omitempty"`
}

// Handler serves the medium_create_post tool.
type Handler struct {
	publisher  Publisher
	announcers []syndicate.Announcer
}

// New returns a Handler. Announcers are notified about public posts only.
func New(publisher Publisher, announcers ...syndicate.Announcer) *Handler {
	return &Handler{publisher: publisher, announcers: announcers}
}

// Register adds the tool to s.
func (h *Handler) Register(s *server.MCPServer) {
	s.AddTool(Definition(), h.Handle)
}

// Definition describes the tool and its parameters.
func Definition() mcp.Tool {
	return mcp.NewTool(Name,
		mcp.WithDescription("Create a Medium post. Posts are created as drafts unless publish_status says otherwise. "+
			"Calling twice with the same content creates two posts."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the post"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Content in markdown or HTML"),
		),
		mcp.WithString("publish_status",
			mcp.Description("'draft', 'public', or 'unlisted'"),
			mcp.Enum(string(medium.VisibilityDraft), string(medium.VisibilityPublic), string(medium.VisibilityUnlisted)),
			mcp.DefaultString(string(medium.VisibilityDraft)),
		),
		mcp.WithString("content_format",
			mcp.Description("'markdown' or 'html'"),
			mcp.Enum(string(medium.FormatMarkdown), string(medium.FormatHTML)),
			mcp.DefaultString(string(medium.FormatMarkdown)),
		),
		mcp.WithArray("tags",
			mcp.Description(fmt.Sprintf("Up to %d tags; extra tags are dropped", medium.MaxTags)),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("canonical_url",
			mcp.Description("Canonical link if cross-posting"),
		),
		mcp.WithBoolean("notify_followers",
			mcp.Description("Whether to notify followers"),
			mcp.DefaultBool(false),
		),
		mcp.WithString("license",
			mcp.Description("License type, e.g. all-rights-reserved or cc-40-by"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Handle runs one tool call. Domain failures are reported in the result, never
// as a protocol error.
func (h *Handler) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := InputFromArgs(req.GetArguments())
	if err != nil {
		logutil.With("request_id", uuid.NewString()).Errorf("invalid tool arguments: %v", err)
		metrics.PublishResults.WithLabelValues("failure").Inc()
		return encode(Result{PublishResult: medium.Failed(err.Error())})
	}

	res := Result{PublishResult: h.publisher.Publish(ctx, in)}
	if !res.Success || len(h.announcers) == 0 {
		return encode(res)
	}
	// A successful publish implies the input normalized cleanly.
	if pr, _, err := medium.Normalize(in); err == nil && pr.Visibility == medium.VisibilityPublic {
		res.Announced = h.announce(ctx, pr, res.PublishResult)
	}
	return encode(res)
}

func (h *Handler) announce(ctx context.Context, pr medium.PublishRequest, res medium.PublishResult) []string {
	url := res.PostURL()
	if url == "" {
		logutil.Warnf("post record has no url; skipping announcements")
		return nil
	}
	announced, err := syndicate.Dispatch(ctx, h.announcers, syndicate.Announcement{
		Title: pr.Title,
		URL:   url,
		Tags:  pr.Tags,
	})
	if err != nil {
		logutil.Warnf("announce post: %v", err)
	}
	return announced
}

func encode(res Result) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(res)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"success":false,"error":%q}`, "Unexpected error: "+err.Error()))
		res.Success = false
	}
	out := mcp.NewToolResultText(string(data))
	out.IsError = !res.Success
	return out, nil
}

// InputFromArgs coerces raw tool arguments into a medium.Input.
func InputFromArgs(args map[string]any) (medium.Input, error) {
	var (
		in  medium.Input
		err error
	)
	if in.Title, err = stringArg(args, "title"); err != nil {
		return medium.Input{}, err
	}
	if in.Content, err = stringArg(args, "content"); err != nil {
		return medium.Input{}, err
	}
	if in.PublishStatus, err = stringArg(args, "publish_status"); err != nil {
		return medium.Input{}, err
	}
	if in.ContentFormat, err = stringArg(args, "content_format"); err != nil {
		return medium.Input{}, err
	}
	if in.Tags, err = tagsArg(args, "tags"); err != nil {
		return medium.Input{}, err
	}
	if in.CanonicalURL, err = optionalStringArg(args, "canonical_url"); err != nil {
		return medium.Input{}, err
	}
	if in.License, err = optionalStringArg(args, "license"); err != nil {
		return medium.Input{}, err
	}
	if in.NotifyFollowers, err = boolArg(args, "notify_followers"); err != nil {
		return medium.Input{}, err
	}
	return in, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", medium.ValidationError{Field: key, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key string) (*string, error) {
	if v, ok := args[key]; !ok || v == nil {
		return nil, nil
	}
	s, err := stringArg(args, key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func boolArg(args map[string]any, key string) (bool, error) {
	switch v := args[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, medium.ValidationError{Field: key, Reason: fmt.Sprintf("expected a boolean, got %q", v)}
		}
		return b, nil
	default:
		return false, medium.ValidationError{Field: key, Reason: fmt.Sprintf("expected a boolean, got %T", v)}
	}
}

// tagsArg accepts a JSON array of strings or a single comma-separated string.
func tagsArg(args map[string]any, key string) ([]string, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case string:
		return strings.Split(v, ","), nil
	case []any:
		tags := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, medium.ValidationError{Field: key, Reason: fmt.Sprintf("tag %d: expected a string, got %T", i, item)}
			}
			tags = append(tags, s)
		}
		return tags, nil
	default:
		return nil, medium.ValidationError{Field: key, Reason: fmt.Sprintf("expected an array of strings, got %T", v)}
	}
}
