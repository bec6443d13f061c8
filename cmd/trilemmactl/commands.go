package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trilemma/internal/config"
	"trilemma/internal/stats"
	api "trilemma/pkg/trilemma"
)

const defaultConfigPath = "tournament.yaml"

// loadConfig reads path when given, otherwise starts from the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config.Load(path)
}

// applyRunFlags overrides config values with the flags that were set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("seed") {
		if cfg.Seed, err = flags.GetInt64("seed"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("min-rounds") {
		if cfg.Rounds.Min, err = flags.GetInt("min-rounds"); err != nil {
			return err
		}
	}
	if flags.Changed("max-rounds") {
		if cfg.Rounds.Max, err = flags.GetInt("max-rounds"); err != nil {
			return err
		}
	}
	if flags.Changed("record") {
		if cfg.Record, err = flags.GetBool("record"); err != nil {
			return err
		}
	}
	return nil
}

func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("config", "", "roster config YAML path (defaults to the 90-slot reference population)")
	flags.Int64("seed", 1, "rng seed")
	flags.Int("workers", 4, "concurrent matches (1 runs sequentially)")
	flags.Int("min-rounds", 90, "minimum rounds per match")
	flags.Int("max-rounds", 110, "maximum rounds per match")
	flags.Bool("record", false, "keep per-match totals (matches.csv)")
	flags.Bool("json", false, "emit JSON instead of the text report")
}

func (a *app) newRunCmd() *cobra.Command {
	var (
		runID   string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one tournament and print the standings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			client, err := a.newClient(cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			req := api.RunRequest{Config: cfg, RunID: runID, Verbose: verbose}
			if !jsonOut {
				req.MatchLog = a.out
			}
			summary, err := client.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if jsonOut {
				return a.writeJSON(map[string]any{
					"run_id":        summary.RunID,
					"population":    summary.PopulationSize,
					"match_count":   summary.MatchCount,
					"artifacts_dir": summary.ArtifactsDir,
					"standings":     summary.Standings,
					"summary":       summary.Summary,
				})
			}
			if verbose || cfg.Verbose {
				if _, err := fmt.Fprintln(a.out); err != nil {
					return err
				}
			}
			if err := stats.WriteReport(a.out, summary.Standings); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "run_id=%s matches=%d artifacts=%s\n", summary.RunID, summary.MatchCount, summary.ArtifactsDir)
			return err
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&runID, "run-id", "", "explicit run id (defaults to a new uuid)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every match result")
	return cmd
}

func (a *app) newSeriesCmd() *cobra.Command {
	var (
		seriesID   string
		replicates int
	)
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Replay one roster under consecutive seeds and summarise per strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			client, err := a.newClient(cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Series(cmd.Context(), api.SeriesRequest{
				Config:     cfg,
				SeriesID:   seriesID,
				Replicates: replicates,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return a.writeJSON(map[string]any{
					"series_id": summary.SeriesID,
					"run_ids":   summary.RunIDs,
					"stats":     summary.Stats,
					"graphs":    summary.Graphs,
				})
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "series_id=%s replicates=%d\n", summary.SeriesID, len(summary.RunIDs))
			fmt.Fprintln(tw, "STRATEGY\tMEAN\tSTD\tMIN\tMAX\tWINS")
			for _, st := range summary.Stats {
				fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%d\n", st.Name, st.Mean, st.Std, st.Min, st.Max, st.Wins)
			}
			return tw.Flush()
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&seriesID, "series-id", "", "explicit series id (defaults to a new uuid)")
	cmd.Flags().IntVar(&replicates, "replicates", 5, "number of tournaments to play")
	return cmd
}

func (a *app) newRunsCmd() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := a.newClient(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.Runs(cmd.Context(), api.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut {
				type runsItem struct {
					RunID        string  `json:"run_id"`
					CreatedAtUTC string  `json:"created_at_utc"`
					Seed         int64   `json:"seed"`
					Population   int     `json:"population_size"`
					MatchCount   int     `json:"match_count"`
					Winner       string  `json:"winner"`
					WinnerScore  float64 `json:"winner_score"`
				}
				items := make([]runsItem, 0, len(runs))
				for _, r := range runs {
					items = append(items, runsItem{
						RunID:        r.RunID,
						CreatedAtUTC: r.CreatedAtUTC,
						Seed:         r.Seed,
						Population:   r.Population,
						MatchCount:   r.MatchCount,
						Winner:       r.Winner,
						WinnerScore:  r.WinnerScore,
					})
				}
				return a.writeJSON(items)
			}
			if len(runs) == 0 {
				_, err := fmt.Fprintln(a.out, "no runs found")
				return err
			}
			for _, r := range runs {
				if _, err := fmt.Fprintf(a.out, "run_id=%s created_at=%s seed=%d pop=%d matches=%d rounds=%d-%d winner=%s score=%s\n",
					r.RunID,
					r.CreatedAtUTC,
					r.Seed,
					r.Population,
					r.MatchCount,
					r.MinRounds,
					r.MaxRounds,
					r.Winner,
					stats.FormatScore(r.WinnerScore),
				); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs list as JSON")
	return cmd
}

func (a *app) newStandingsCmd() *cobra.Command {
	var (
		runID   string
		latest  bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Print the ranked results of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			standings, err := client.Standings(cmd.Context(), api.StandingsRequest{RunID: runID, Latest: latest})
			if err != nil {
				return err
			}
			if jsonOut {
				return a.writeJSON(standings)
			}
			return stats.WriteReport(a.out, standings)
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "use the most recent run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit standings as JSON")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	cmd.MarkFlagsOneRequired("run-id", "latest")
	return cmd
}

func (a *app) newMatchesCmd() *cobra.Command {
	var (
		runID  string
		latest bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Print the recorded match results of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			matches, err := client.Matches(cmd.Context(), api.MatchesRequest{RunID: runID, Latest: latest, Limit: limit})
			if err != nil {
				return err
			}
			for _, m := range matches {
				if err := stats.WriteMatchLog(a.out, m); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "use the most recent run")
	cmd.Flags().IntVar(&limit, "limit", 0, "max matches to print (0 prints all)")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	cmd.MarkFlagsOneRequired("run-id", "latest")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		runID  string
		latest bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to an output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			exported, err := client.Export(cmd.Context(), api.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
			return err
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "export the most recent run from run index")
	cmd.Flags().StringVar(&outDir, "out", "", "export output directory (defaults to --exports-dir)")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	cmd.MarkFlagsOneRequired("run-id", "latest")
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a run from the store and the artifacts directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Delete(cmd.Context(), runID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "deleted run_id=%s\n", runID)
			return err
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	_ = cmd.MarkFlagRequired("run-id")
	return cmd
}

func (a *app) newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List registered strategies and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient(cmd, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STRATEGY\tALIASES")
			for _, info := range client.Strategies() {
				aliases := "-"
				if len(info.Aliases) > 0 {
					aliases = strings.Join(info.Aliases, ",")
				}
				fmt.Fprintf(tw, "%s\t%s\n", info.Name, aliases)
			}
			return tw.Flush()
		},
	}
}

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tournament configuration files",
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.out, "wrote %s\n", path)
			return err
		},
	}
	initCmd.Flags().StringVar(&path, "path", defaultConfigPath, "output path")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	var checkPath string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(checkPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "ok population=%d rounds=%d-%d\n", cfg.PopulationSize(), cfg.Rounds.Min, cfg.Rounds.Max)
			return err
		},
	}
	validateCmd.Flags().StringVar(&checkPath, "path", defaultConfigPath, "config path")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
