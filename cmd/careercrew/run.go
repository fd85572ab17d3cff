package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/careercrew/internal/orchestrator"
	"github.com/aristath/careercrew/internal/tui"
)

// errNoUserInfo is returned when the run has nothing to analyse.
var errNoUserInfo = errors.New("no user info provided")

func newRunCmd(a *app) *cobra.Command {
	var (
		input  string
		output string
		noTUI  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a career report from the terminal",
		Long: `Run the seven-task crew once and save the report.

With a terminal on stdin and no --input, a profile form collects the user
info and a live view follows the run. Otherwise the user info is read from
--input, or from stdin when --input is "-" or omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interactive := input == "" && !noTUI && a.isTerminal()
			if interactive {
				a.quiet()
			}

			eng, err := a.engine()
			if err != nil {
				return err
			}

			var report *orchestrator.Report
			if interactive {
				report, err = a.runInteractive(cmd.Context(), eng)
			} else {
				report, err = a.runPlain(cmd.Context(), eng, input)
			}
			if err != nil {
				return err
			}
			return a.saveReport(report, output)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", `file holding the user info, "-" for stdin`)
	cmd.Flags().StringVarP(&output, "output", "o", "career_report.md", `report destination, "-" for stdout only`)
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "read user info from stdin even on a terminal")
	return cmd
}

func (a *app) runInteractive(ctx context.Context, eng *orchestrator.Engine) (*orchestrator.Report, error) {
	profile, err := tui.RunProfileForm(ctx)
	if err != nil {
		return nil, err
	}
	userInfo := profile.UserInfo()
	if userInfo == "" {
		return nil, errNoUserInfo
	}
	return tui.Run(ctx, a.bus, func(ctx context.Context) *orchestrator.Report {
		return eng.ExecuteAll(ctx, userInfo)
	})
}

func (a *app) runPlain(ctx context.Context, eng *orchestrator.Engine, input string) (*orchestrator.Report, error) {
	userInfo, err := a.readUserInfo(input)
	if err != nil {
		return nil, err
	}

	a.logger.Info("starting career analysis", "tasks", len(eng.Tasks()), "input_len", len(userInfo))
	return eng.ExecuteAll(ctx, userInfo), nil
}

// readUserInfo reads the user info from path, or from stdin for "" and "-".
func (a *app) readUserInfo(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading user info: %w", err)
	}

	userInfo := strings.TrimSpace(string(data))
	if userInfo == "" {
		return "", errNoUserInfo
	}
	return userInfo, nil
}

// saveReport prints the report and writes it to path unless path is "-".
func (a *app) saveReport(report *orchestrator.Report, path string) error {
	fmt.Fprintln(a.stdout, report.Text)

	switch {
	case report.Status == orchestrator.StatusEmergency:
		fmt.Fprintf(a.stderr, "Emergency report produced: %v\n", report.Err)
	case report.Degraded():
		fmt.Fprintf(a.stderr, "Report is %s: %d section(s) use fallback content\n",
			report.Status, report.Placeholders())
	}

	if path == "" || path == "-" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(report.Text), 0644); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	fmt.Fprintf(a.stderr, "Report saved to %s\n", path)
	return nil
}
