// Package cli holds operator subcommands of the fretehub binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/fretehub/fretehub/internal/analytics"
	"github.com/fretehub/fretehub/jobs"
)

// Inspector is the subset of *asynq.Inspector the CLI reads.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI enqueues maintenance tasks and reports queue state by hand.
type JobsCLI struct {
	client    *jobs.Client
	inspector Inspector
	stdout    io.Writer
	stderr    io.Writer
}

// NewJobsCLI connects to the queue at redisAddr.
func NewJobsCLI(redis asynq.RedisClientOpt) *JobsCLI {
	return NewJobsCLIWith(jobs.NewClient(redis), asynq.NewInspector(redis), os.Stdout, os.Stderr)
}

// NewJobsCLIWith builds the CLI over explicit dependencies.
func NewJobsCLIWith(client *jobs.Client, inspector Inspector, stdout, stderr io.Writer) *JobsCLI {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &JobsCLI{client: client, inspector: inspector, stdout: stdout, stderr: stderr}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// Run executes `jobs <warmup|bump|stats> [flags]` and returns the exit code.
func (c *JobsCLI) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		c.usage()
		return 2
	}
	switch args[0] {
	case "warmup":
		return c.warmup(ctx, args[1:])
	case "bump":
		return c.bump(ctx, args[1:])
	case "stats":
		return c.stats(args[1:])
	default:
		c.usage()
		return 2
	}
}

func (c *JobsCLI) usage() {
	_, _ = fmt.Fprintln(c.stderr, "usage: fretehub jobs <warmup [-month YYYY-MM] | bump [-reason text] | stats [-json]>")
}

func (c *JobsCLI) warmup(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("jobs warmup", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	month := fs.String("month", "", "reference month YYYY-MM (default: current)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *month != "" {
		if _, err := analytics.ParseMonth(*month, nil); err != nil {
			_, _ = fmt.Fprintf(c.stderr, "jobs warmup: %v\n", err)
			return 1
		}
	}
	if err := c.client.EnqueueDashboardWarmup(ctx, *month); err != nil {
		_, _ = fmt.Fprintf(c.stderr, "jobs warmup: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(c.stdout, "enqueued %s\n", jobs.TaskDashboardWarmup)
	return 0
}

func (c *JobsCLI) bump(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("jobs bump", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	reason := fs.String("reason", "manual", "reason recorded in the worker log")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := c.client.EnqueueCacheBump(ctx, *reason); err != nil {
		_, _ = fmt.Fprintf(c.stderr, "jobs bump: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(c.stdout, "enqueued %s\n", jobs.TaskCacheBump)
	return 0
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string   `json:"queue"`
	Pending   int      `json:"pending"`
	Active    int      `json:"active"`
	Scheduled int      `json:"scheduled"`
	Retry     int      `json:"retry"`
	Next      []string `json:"next_scheduled,omitempty"`
}

func (c *JobsCLI) stats(args []string) int {
	fs := flag.NewFlagSet("jobs stats", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if c.inspector == nil {
		_, _ = fmt.Fprintln(c.stderr, "jobs stats: inspector not configured")
		return 1
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	switch {
	case errors.Is(err, asynq.ErrQueueNotFound):
	case err != nil:
		_, _ = fmt.Fprintf(c.stderr, "jobs stats: %v\n", err)
		return 1
	case info != nil:
		stats.Pending, stats.Active, stats.Scheduled, stats.Retry = info.Pending, info.Active, info.Scheduled, info.Retry
	}
	if scheduled, err := c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(5), asynq.Page(1)); err == nil {
		for _, task := range scheduled {
			stats.Next = append(stats.Next, fmt.Sprintf("%s at %s", task.Type, task.NextProcessAt.Format("2006-01-02 15:04")))
		}
	}

	if *asJSON {
		if err := json.NewEncoder(c.stdout).Encode(stats); err != nil {
			_, _ = fmt.Fprintf(c.stderr, "jobs stats: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(c.stdout, "queue %s: pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	for _, next := range stats.Next {
		_, _ = fmt.Fprintf(c.stdout, "  %s\n", next)
	}
	return 0
}
