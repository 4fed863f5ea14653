package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/daemon"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Run the ingestion daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Signal a running daemon to shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			pidPath := daemon.PIDFilePath(cfg)
			data, err := os.ReadFile(pidPath)
			if os.IsNotExist(err) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read pid file: %w", err)
			}
			pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
			if err != nil || pid <= 0 {
				return fmt.Errorf("pid file %s is malformed", pidPath)
			}
			proc, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("find daemon process: %w", err)
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
					fmt.Fprintf(stdout, "Daemon is not running (stale pid file %s)\n", pidPath)
					return nil
				}
				return fmt.Errorf("signal daemon: %w", err)
			}
			fmt.Fprintf(stdout, "Sent stop signal to daemon (pid %d)\n", pid)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, workflow, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newStatusPrinter(cmd.OutOrStdout())

			client, err := ctx.dialDaemon(cmd.Context())
			if err != nil {
				return renderOfflineStatus(cmd, ctx, printer)
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			renderDaemonStatus(cmd, ctx, status, printer)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func renderDaemonStatus(cmd *cobra.Command, ctx *commandContext, status *api.DaemonStatus, p *statusPrinter) {
	stdout := cmd.OutOrStdout()

	p.section("Daemon")
	runningKind, runningMsg := statusError, "stopped"
	if status.Running {
		runningKind = statusOK
		runningMsg = fmt.Sprintf("running (pid %d)", status.PID)
	}
	p.line("State", runningKind, runningMsg)
	p.line("API", statusInfo, ctx.apiAddr())
	p.line("Catalog", statusInfo, status.DatabasePath)
	p.line("Vectors", statusInfo, status.VectorDirPath)
	p.line("Log file", statusInfo, status.LogFilePath)
	p.blank()

	if len(status.Preflight) > 0 {
		p.section("Preflight")
		for _, finding := range status.Preflight {
			kind := statusWarn
			if finding.Fatal {
				kind = statusError
			}
			p.line(finding.Name, kind, finding.Detail)
		}
		p.blank()
	}

	p.section("Workflow")
	workflowKind, workflowMsg := statusWarn, "stopped"
	if status.Workflow.Running {
		workflowKind, workflowMsg = statusOK, "running"
	}
	p.line("Dispatcher", workflowKind, workflowMsg)
	for _, stage := range status.Workflow.StageHealth {
		kind, detail := statusOK, "Ready"
		if !stage.Ready {
			kind = statusWarn
			detail = stage.Detail
			if detail == "" {
				detail = "not ready"
			}
		}
		p.line(formatStatusLabel(stage.Name), kind, detail)
	}
	if status.Workflow.LastError != "" {
		p.line("Last error", statusError, status.Workflow.LastError)
	}
	p.blank()

	p.section("Queue")
	rows := buildQueueStatusRows(status.Workflow.QueueStats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return
	}
	fmt.Fprintln(stdout, renderTable([]tableColumn{{title: "Status"}, {title: "Count", align: alignRight}}, rows))
}

// renderOfflineStatus reports what can be known without a daemon: the
// configured locations and queue counts straight from the catalog.
func renderOfflineStatus(cmd *cobra.Command, ctx *commandContext, p *statusPrinter) error {
	stdout := cmd.OutOrStdout()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	p.section("Daemon")
	p.line("State", statusWarn, "not running (start it with `sermonhub start`)")
	p.line("API", statusInfo, ctx.apiAddr())
	p.line("Catalog", statusInfo, cfg.DatabasePath())
	p.blank()

	store, err := catalog.Open(cfg)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	p.section("Queue")
	rows := buildQueueStatusRows(api.MergeQueueStats(stats))
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return nil
	}
	fmt.Fprintln(stdout, renderTable([]tableColumn{{title: "Status"}, {title: "Count", align: alignRight}}, rows))
	return nil
}
