package bluesky

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blacktop/medium-mcp/internal/config"
	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/syndicate"
	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	envHandle      = "ANNOUNCE_BLUESKY_HANDLE"
	envAppPassword = "ANNOUNCE_BLUESKY_APP_PASSWORD"
	envPDSURL      = "ANNOUNCE_BLUESKY_PDS_URL"

	providerName   = "bluesky"
	requestTimeout = 30 * time.Second
	postLimit      = 300

	DefaultPDSURL = "https://bsky.social"
)

// Config holds the account used for announcements.
type Config struct {
	Handle      string
	AppPassword string
	PDSURL      string
}

// Client announces posts on Bluesky. A session is created per announcement,
// so a Client holds no mutable auth state.
type Client struct {
	cfg  Config
	http *http.Client
}

// New constructs a Bluesky announcer from environment configuration.
func New(ctx context.Context) (syndicate.Announcer, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, nil), nil
}

// NewWithConfig constructs a Bluesky announcer. A nil httpClient uses a
// client with the default request timeout.
func NewWithConfig(cfg Config, httpClient *http.Client) *Client {
	if cfg.PDSURL == "" {
		cfg.PDSURL = DefaultPDSURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// Announce logs in and creates a post whose URL is a link facet.
func (c *Client) Announce(ctx context.Context, a syndicate.Announcement) error {
	userAgent := "medium-mcp/1"
	xrpcClient := &xrpc.Client{
		Client:    c.http,
		Host:      c.cfg.PDSURL,
		UserAgent: &userAgent,
	}

	session, err := atproto.ServerCreateSession(ctx, xrpcClient, &atproto.ServerCreateSession_Input{
		Identifier: c.cfg.Handle,
		Password:   c.cfg.AppPassword,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	text := a.Text(postLimit, false)
	post := &bsky.FeedPost{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Text:      text,
		Facets:    linkFacets(text, a.URL),
	}

	out, err := atproto.RepoCreateRecord(ctx, xrpcClient, &atproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.post",
		Repo:       session.Did,
		Record: &util.LexiconTypeDecoder{
			Val: post,
		},
	})
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	logutil.Debugf("bluesky record created: uri=%s", out.Uri)

	return nil
}

// linkFacets marks the byte range of url inside text as a link.
func linkFacets(text, url string) []*bsky.RichtextFacet {
	if url == "" {
		return nil
	}
	start := strings.LastIndex(text, url)
	if start < 0 {
		return nil
	}
	return []*bsky.RichtextFacet{{
		Index: &bsky.RichtextFacet_ByteSlice{
			ByteStart: int64(start),
			ByteEnd:   int64(start + len(url)),
		},
		Features: []*bsky.RichtextFacet_Features_Elem{{
			RichtextFacet_Link: &bsky.RichtextFacet_Link{
				LexiconTypeID: "app.bsky.richtext.facet#link",
				Uri:           url,
			},
		}},
	}}
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Handle:      strings.TrimSpace(os.Getenv(envHandle)),
		AppPassword: strings.TrimSpace(os.Getenv(envAppPassword)),
		PDSURL:      strings.TrimSpace(os.Getenv(envPDSURL)),
	}
	if cfg.PDSURL == "" {
		cfg.PDSURL = DefaultPDSURL
	}

	var missing []string
	if cfg.Handle == "" {
		missing = append(missing, envHandle)
	}
	if cfg.AppPassword == "" {
		missing = append(missing, envAppPassword)
	}

	if len(missing) > 0 {
		return Config{}, config.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}
