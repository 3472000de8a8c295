package mastodon

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blacktop/medium-mcp/internal/config"
	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/syndicate"
	mastodonapi "github.com/mattn/go-mastodon"
)

const (
	envServer       = "ANNOUNCE_MASTODON_SERVER"
	envAccessToken  = "ANNOUNCE_MASTODON_ACCESS_TOKEN"
	envClientID     = "ANNOUNCE_MASTODON_CLIENT_ID"
	envClientSecret = "ANNOUNCE_MASTODON_CLIENT_SECRET"

	providerName   = "mastodon"
	requestTimeout = 30 * time.Second
	statusLimit    = 500
)

// Config contains the settings needed to reach a Mastodon server.
type Config struct {
	Server       string
	AccessToken  string
	ClientID     string
	ClientSecret string
}

// Client announces posts as public toots.
type Client struct {
	client *mastodonapi.Client
}

// New constructs a Mastodon announcer from environment configuration.
func New(ctx context.Context) (syndicate.Announcer, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg), nil
}

// NewWithConfig constructs a Mastodon announcer from explicit settings.
func NewWithConfig(cfg Config) *Client {
	mastodonClient := mastodonapi.NewClient(&mastodonapi.Config{
		Server:       cfg.Server,
		AccessToken:  cfg.AccessToken,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	mastodonClient.Timeout = requestTimeout

	return &Client{client: mastodonClient}
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Announce posts the title, link and hashtags as a public status.
func (c *Client) Announce(ctx context.Context, a syndicate.Announcement) error {
	status, err := c.client.PostStatus(ctx, &mastodonapi.Toot{
		Status:     a.Text(statusLimit, true),
		Visibility: "public",
	})
	if err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	if status != nil {
		logutil.Debugf("mastodon status created: id=%s url=%s", status.ID, status.URL)
	}
	return nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Server:       strings.TrimSpace(os.Getenv(envServer)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		ClientID:     strings.TrimSpace(os.Getenv(envClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
	}

	var missing []string
	if cfg.Server == "" {
		missing = append(missing, envServer)
	}
	if cfg.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}

	if len(missing) > 0 {
		return Config{}, config.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}
