package medium

import (
	"fmt"
	"strings"
)

// Normalize validates caller input and shapes it into a PublishRequest.
// Lossy corrections (such as dropping tags past MaxTags) are not errors;
// they are returned as warnings for the caller to log.
func Normalize(in Input) (PublishRequest, []string, error) {
	var warnings []string

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return PublishRequest{}, nil, ValidationError{Field: "title", Reason: "title is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return PublishRequest{}, nil, ValidationError{Field: "content", Reason: "content is required"}
	}

	format, err := normalizeFormat(in.ContentFormat)
	if err != nil {
		return PublishRequest{}, nil, err
	}
	visibility, err := normalizeVisibility(in.PublishStatus)
	if err != nil {
		return PublishRequest{}, nil, err
	}

	tags, dropped := normalizeTags(in.Tags)
	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("trimming tags to maximum %d (dropped %d)", MaxTags, dropped))
	}

	return PublishRequest{
		Title:           title,
		Content:         in.Content,
		ContentFormat:   format,
		Visibility:      visibility,
		Tags:            tags,
		CanonicalURL:    optional(in.CanonicalURL),
		NotifyFollowers: in.NotifyFollowers,
		License:         optional(in.License),
	}, warnings, nil
}

func normalizeFormat(raw string) (ContentFormat, error) {
	switch f := ContentFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatMarkdown, nil
	case FormatMarkdown, FormatHTML:
		return f, nil
	default:
		return "", ValidationError{Field: "content_format", Reason: fmt.Sprintf("unsupported format %q (want markdown or html)", raw)}
	}
}

func normalizeVisibility(raw string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(raw))); v {
	case "":
		return VisibilityDraft, nil
	case VisibilityDraft, VisibilityPublic, VisibilityUnlisted:
		return v, nil
	default:
		return "", ValidationError{Field: "publish_status", Reason: fmt.Sprintf("unsupported status %q (want draft, public or unlisted)", raw)}
	}
}

// normalizeTags trims each tag, drops empty ones and keeps the first MaxTags.
// It returns the number of non-empty tags that were cut.
func normalizeTags(raw []string) ([]string, int) {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil, 0
	}
	if len(tags) > MaxTags {
		return tags[:MaxTags:MaxTags], len(tags) - MaxTags
	}
	return tags, 0
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
