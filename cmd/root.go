/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/blacktop/medium-mcp/internal/config"
	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/medium"
	"github.com/blacktop/medium-mcp/internal/server"
	"github.com/blacktop/medium-mcp/internal/syndicate"
	"github.com/blacktop/medium-mcp/internal/syndicate/bluesky"
	"github.com/blacktop/medium-mcp/internal/syndicate/mastodon"
	"github.com/blacktop/medium-mcp/internal/syndicate/twitter"
	"github.com/blacktop/medium-mcp/internal/tool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var (
	addrFlag    string
	verboseFlag bool

	version = "dev"
)

var announcerConstructors = map[string]func(context.Context) (syndicate.Announcer, error){
	"bluesky":  bluesky.New,
	"mastodon": mastodon.New,
	"twitter":  twitter.New,
}

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medium-mcp",
		Short: "Serve a Medium publishing tool over MCP",
		Long: "medium-mcp exposes the medium_create_post tool to agents over streamable HTTP. " +
			"Set MEDIUM_INTEGRATION_TOKEN before starting; the server refuses to start without it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runRoot,
		Example: `  MEDIUM_INTEGRATION_TOKEN=... medium-mcp
  medium-mcp --addr 127.0.0.1:8080 --verbose`,
		Version: version,
	}

	cmd.Flags().StringVar(&addrFlag, "addr", server.DefaultAddr, "Address to bind the MCP endpoint to")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "V", false, "Enable debug logging")
	cmd.Flags().SortFlags = false

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	logutil.SetVerbose(verboseFlag)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := medium.NewClient(medium.Config{
		Token:       cfg.Token,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.RequestTimeout,
		MaxAttempts: cfg.MaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("create medium client: %w", err)
	}

	targets, err := normalizeTargets(cfg.AnnounceTargets)
	if err != nil {
		return err
	}
	announcers, err := buildAnnouncers(ctx, targets)
	if err != nil {
		return err
	}
	if len(announcers) > 0 {
		logutil.Infof("announcing public posts to %s", strings.Join(targets, ", "))
	}

	mcp := mcpserver.NewMCPServer("medium-mcp", version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	tool.New(medium.NewPublisher(client), announcers...).Register(mcp)

	return server.New(addrFlag, mcp).Run(ctx)
}

func normalizeTargets(values []string) ([]string, error) {
	result := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, raw := range values {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "" {
			continue
		}
		if raw == "all" {
			return sortedTargets([]string{"twitter", "mastodon", "bluesky"}), nil
		}
		if _, ok := announcerConstructors[raw]; !ok {
			return nil, fmt.Errorf("unsupported announce target %q", raw)
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		result = append(result, raw)
	}
	return sortedTargets(result), nil
}

func sortedTargets(targets []string) []string {
	out := append([]string(nil), targets...)
	sort.Strings(out)
	return out
}

func buildAnnouncers(ctx context.Context, targets []string) ([]syndicate.Announcer, error) {
	announcers := make([]syndicate.Announcer, 0, len(targets))
	var errs []error
	for _, target := range targets {
		constructor, ok := announcerConstructors[target]
		if !ok {
			errs = append(errs, fmt.Errorf("target %q is not implemented", target))
			continue
		}
		announcer, err := constructor(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
			continue
		}
		announcers = append(announcers, announcer)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return announcers, nil
}
