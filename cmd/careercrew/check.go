package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/careercrew/internal/probe"
	"github.com/aristath/careercrew/internal/provider"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check [provider...]",
		Short: "Send a short prompt to each provider and report which answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			handles, err := a.selectHandles(args)
			if err != nil {
				return err
			}

			results := probe.Check(cmd.Context(), a.provider(), handles, probe.Options{
				Concurrency: concurrency,
				Timeout:     timeout,
				Classifier:  a.cfg.Classifier(),
			})
			if err := probe.WriteTable(a.stdout, results); err != nil {
				return err
			}
			if n := probe.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d providers failed", n, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "providers probed at once")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-provider timeout")
	return cmd
}

// selectHandles returns the named providers, or all of them when names is
// empty.
func (a *app) selectHandles(names []string) ([]provider.Handle, error) {
	if len(names) == 0 {
		return a.cfg.Handles(), nil
	}
	handles := make([]provider.Handle, 0, len(names))
	for _, name := range names {
		h, err := a.cfg.Handle(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}
