package medium

import "encoding/json"

// ContentFormat is the markup the post body is written in.
type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
)

// Visibility is the publish status of the created post.
type Visibility string

const (
	VisibilityDraft    Visibility = "draft"
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
)

// MaxTags is the upstream limit on tags per post.
const MaxTags = 5

// Input carries the caller-supplied fields before normalization.
// Nil pointers mean the caller did not provide the field.
type Input struct {
	Title           string
	Content         string
	ContentFormat   string
	PublishStatus   string
	Tags            []string
	CanonicalURL    *string
	NotifyFollowers bool
	License         *string
}

// PublishRequest is a validated, normalized publish request.
type PublishRequest struct {
	Title           string
	Content         string
	ContentFormat   ContentFormat
	Visibility      Visibility
	Tags            []string
	CanonicalURL    *string
	NotifyFollowers bool
	License         *string
}

// Payload is the create-post body sent upstream. Unset optional fields are
// omitted from the encoded JSON.
type Payload struct {
	Title           string        `json:"title"`
	ContentFormat   ContentFormat `json:"contentFormat"`
	Content         string        `json:"content"`
	PublishStatus   Visibility    `json:"publishStatus"`
	NotifyFollowers bool          `json:"notifyFollowers"`
	Tags            []string      `json:"tags,omitempty"`
	CanonicalURL    *string       `json:"canonicalUrl,omitempty"`
	License         *string       `json:"license,omitempty"`
}

// Payload assembles the upstream write body.
func (r PublishRequest) Payload() Payload {
	p := Payload{
		Title:           r.Title,
		ContentFormat:   r.ContentFormat,
		Content:         r.Content,
		PublishStatus:   r.Visibility,
		NotifyFollowers: r.NotifyFollowers,
		CanonicalURL:    r.CanonicalURL,
		License:         r.License,
	}
	if len(r.Tags) > 0 {
		p.Tags = append([]string(nil), r.Tags...)
	}
	return p
}

// User is the acting account returned by GET /me.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
}

// PublishResult is the outcome of a publish invocation. Exactly one of
// (Post, Message) or Error is meaningful, selected by Success.
type PublishResult struct {
	Success bool            `json:"success"`
	Post    json.RawMessage `json:"post,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(post json.RawMessage, message string) PublishResult {
	return PublishResult{Success: true, Post: post, Message: message}
}

// Failed builds a failed result.
func Failed(message string) PublishResult {
	return PublishResult{Success: false, Error: message}
}

// PostURL returns the "url" field of the post record, if any.
func (r PublishResult) PostURL() string {
	if len(r.Post) == 0 {
		return ""
	}
	var rec struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(r.Post, &rec); err != nil {
		return ""
	}
	return rec.URL
}
