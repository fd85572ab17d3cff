// Package probe checks that configured providers answer a trivial prompt.
package probe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/careercrew/internal/orchestrator"
	"github.com/aristath/careercrew/internal/provider"
)

// Prompt is the connectivity test sent to every provider.
const Prompt = "Hello, just testing API connectivity. Respond with 'API Working'"

// Options bounds a check run.
type Options struct {
	Concurrency int                      // Providers probed at once, default 4
	Timeout     time.Duration            // Per provider, default 30s
	Classifier  *orchestrator.Classifier // Labels failures, default classifier if nil
}

// Result is the outcome for one provider.
type Result struct {
	Provider provider.Handle
	Output   string
	Err      error
	Class    orchestrator.Class
	Duration time.Duration
}

// OK reports whether the provider answered.
func (r Result) OK() bool { return r.Err == nil }

// Check probes every handle and returns results in input order. A failing
// provider never stops the others.
func Check(ctx context.Context, inv provider.Invoker, handles []provider.Handle, opts Options) []Result {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Classifier == nil {
		opts.Classifier = orchestrator.DefaultClassifier()
	}

	results := make([]Result, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, h := range handles {
		g.Go(func() error {
			results[i] = probeOne(gctx, inv, h, opts)
			return nil // Failures are reported per provider
		})
	}
	_ = g.Wait()
	return results
}

func probeOne(ctx context.Context, inv provider.Invoker, h provider.Handle, opts Options) Result {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	out, err := inv.Invoke(ctx, h, provider.Prompt{User: Prompt})
	r := Result{Provider: h, Output: strings.TrimSpace(out), Err: err, Duration: time.Since(start)}
	if err != nil {
		r.Class = opts.Classifier.Classify(err)
	}
	return r
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
)

const maxDetail = 60

// WriteTable renders results as a table followed by a summary line.
func WriteTable(w io.Writer, results []Result) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PROVIDER", "MODEL", "STATUS", "TIME", "DETAIL")

	for _, r := range results {
		status, detail := styleOK.Render("working"), r.Output
		if !r.OK() {
			status = styleFail.Render(r.Class.String())
			detail = r.Err.Error()
		}
		if len(detail) > maxDetail {
			detail = detail[:maxDetail-3] + "..."
		}
		t.Row(r.Provider.Name, r.Provider.Model, status, r.Duration.Round(time.Millisecond).String(), detail)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d/%d providers working\n", len(results)-Failed(results), len(results))
	return err
}
