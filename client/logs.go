package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/videotoaudio/extract-client/job"
)

// Logs returns a page of the service's execution history, newest
// first, optionally filtered to api runs, web runs or errors
func (c *DefaultClient) Logs(ctx context.Context, filter LogFilter, limit int) (job.LogsPage, error) {
	c.ensure()

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var page job.LogsPage
	err := c.getResource(ctx, &page, filter.path(), query)
	if err != nil {
		return job.LogsPage{}, err
	}

	return page, nil
}

// LogStats returns the service's aggregate job counters
func (c *DefaultClient) LogStats(ctx context.Context) (job.LogStats, error) {
	c.ensure()

	var stats job.LogStats
	err := c.getResource(ctx, &stats, "/logs/stats", nil)
	if err != nil {
		return job.LogStats{}, err
	}

	return stats, nil
}
