package medium

import (
	"context"
	"errors"
	"fmt"

	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/metrics"
	"github.com/google/uuid"
)

// Publisher runs the publish pipeline: normalize, resolve the acting user,
// create the post. Every outcome is returned as a PublishResult.
type Publisher struct {
	client *Client
}

// NewPublisher wraps client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish creates a post from in. It never panics or returns an error; failures
// are reported through PublishResult.Error. Identical calls create identical
// posts twice; no deduplication is attempted.
func (p *Publisher) Publish(ctx context.Context, in Input) (result PublishResult) {
	log := logutil.With("request_id", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("unexpected panic creating post: %v", r)
			result = Failed(fmt.Sprintf("Unexpected error: %v", r))
		}
		if result.Success {
			metrics.PublishResults.WithLabelValues("success").Inc()
		} else {
			metrics.PublishResults.WithLabelValues("failure").Inc()
		}
	}()

	req, warnings, err := Normalize(in)
	if err != nil {
		log.Errorf("invalid publish request: %v", err)
		return Failed(failureMessage(err))
	}
	for _, w := range warnings {
		log.Warnf("%s", w)
	}

	if p == nil || p.client == nil {
		return Failed(failureMessage(errors.New("publisher is not configured")))
	}

	user, err := p.client.Me(ctx)
	if err != nil {
		log.Errorf("resolve user: %v", err)
		return Failed(failureMessage(err))
	}
	log.Debugf("resolved user id=%s username=%s", user.ID, user.Username)

	post, err := p.client.CreatePost(ctx, user.ID, req.Payload())
	if err != nil {
		var uerr *UpstreamError
		if errors.As(err, &uerr) {
			log.Errorf("create post failed after %d attempt(s): %v", uerr.Attempts, err)
		} else {
			log.Errorf("create post: %v", err)
		}
		return Failed(failureMessage(err))
	}

	msg := fmt.Sprintf("Post '%s' created successfully as %s", req.Title, req.Visibility)
	log.Infof("%s", msg)
	return Succeeded(post, msg)
}
