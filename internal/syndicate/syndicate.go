package syndicate

import (
	"context"
	"errors"
	"fmt"

	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/metrics"
)

// Dispatch announces a to each announcer in order. It returns the names of
// the networks that accepted the announcement and the joined errors of
// those that did not.
func Dispatch(ctx context.Context, announcers []Announcer, a Announcement) ([]string, error) {
	var (
		announced []string
		errs      []error
	)
	for _, announcer := range announcers {
		logutil.Debugf("announcing to %s: %s", announcer.Name(), a.URL)
		if err := announcer.Announce(ctx, a); err != nil {
			metrics.Announcements.WithLabelValues(announcer.Name(), "error").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", announcer.Name(), err))
			continue
		}
		metrics.Announcements.WithLabelValues(announcer.Name(), "success").Inc()
		logutil.Infof("announced to %s", announcer.Name())
		announced = append(announced, announcer.Name())
	}

	if len(errs) > 0 {
		return announced, errors.Join(errs...)
	}
	return announced, nil
}
