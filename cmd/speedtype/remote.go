package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/service"
	"github.com/verte-zerg/speedtype/internal/stats"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/submit"
)

const (
	remoteTimeout        = 15 * time.Second
	defaultHistoryWindow = 10
)

var (
	leaderboardLimit int

	statsLang   string
	statsSince  string
	statsLast   int
	statsWindow int
	statsPlot   bool
)

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users stored on the score server",
		Args:  cobra.NoArgs,
		RunE:  runUsersCmd,
	}
}

func runUsersCmd(cmd *cobra.Command, _ []string) error {
	client, err := remoteClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	users, err := client.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	return stats.RenderUsers(cmd.OutOrStdout(), users)
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top scores from the score server",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().IntVar(&leaderboardLimit, "limit", service.DefaultLeaderboardLimit, "number of entries")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	client, err := remoteClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	entries, err := client.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return stats.RenderLeaderboard(cmd.OutOrStdout(), entries)
}

// remoteClient resolves the server URL from the flag or the config file.
func remoteClient(cmd *cobra.Command) (*submit.Client, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyServerConfig(cmd, fileCfg)
	return submit.New(serverURL), nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local session history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsWindow, "window", defaultHistoryWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlot, "plot", false, "draw a line chart instead of sparklines")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := historyConfig(statsLang, statsSince, statsLast)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(report.Sessions) == 0 {
		logErrln("No sessions recorded yet. Run speedtype to practice.")
		return nil
	}
	out := cmd.OutOrStdout()
	render := report.Render
	if statsPlot {
		render = report.RenderPlot
	}
	if err := render(out, statsWindow); err != nil {
		return fmt.Errorf("failed to render history: %w", err)
	}
	if report.Best != nil {
		if _, err := fmt.Fprintf(out, "Best  score %d (%.0f WPM, %s)\n",
			report.Best.Score, report.Best.Results.WPM, report.Best.EndedAt.Local().Format("2006-01-02")); err != nil {
			return err
		}
	}
	if report.Pending > 0 {
		logErrf("%d session(s) were not accepted by the score server\n", report.Pending)
	}
	return nil
}

func historyConfig(lang, since string, last int) (model.HistoryConfig, error) {
	cfg := model.HistoryConfig{Lang: lang, Last: last}
	if last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}
