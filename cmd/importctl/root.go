package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/padraicbc/f1picks/config"
	bundb "github.com/padraicbc/f1picks/db"
	"github.com/padraicbc/f1picks/importer"
	applog "github.com/padraicbc/f1picks/logger"
	"github.com/padraicbc/f1picks/openf1"
	"github.com/padraicbc/f1picks/store"
)

// app is built once the flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *importer.Engine
	close  func()
}

func newRootCmd() *cobra.Command {
	var a app
	root := &cobra.Command{
		Use:          "importctl",
		Short:        "Import OpenF1 results and rescore predictions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(cmd, viper.GetViper())
			return a.open(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.close != nil {
				a.close()
			}
		},
	}

	root.PersistentFlags().String("openf1-base-url", "", "OpenF1 API base URL")
	root.PersistentFlags().Duration("openf1-timeout", 0, "timeout per OpenF1 request")
	root.PersistentFlags().Int("score-workers", 0, "predictions scored in parallel")
	root.PersistentFlags().Bool("debug", false, "verbose logging")

	root.AddCommand(
		newSessionsCmd(&a),
		newRaceCmd(&a),
		newQualifyingCmd(&a),
		newRescoreCmd(&a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	a.cfg = config.LoadTools()
	flags := cmd.Flags()
	if v, _ := flags.GetString("openf1-base-url"); v != "" {
		a.cfg.OpenF1BaseURL = strings.TrimRight(v, "/")
	}
	if v, _ := flags.GetDuration("openf1-timeout"); v > 0 {
		a.cfg.OpenF1Timeout = v
	}
	if v, _ := flags.GetInt("score-workers"); v > 0 {
		a.cfg.ScoreWorkers = v
	}
	if v, _ := flags.GetBool("debug"); v {
		a.cfg.Debug = true
	}

	logger, err := applog.NewConsole(a.cfg.Debug)
	if err != nil {
		return err
	}
	a.logger = logger

	db := bundb.Setup(a.cfg)
	st := store.New(db)
	f1 := openf1.New(
		openf1.WithBaseURL(a.cfg.OpenF1BaseURL),
		openf1.WithTimeout(a.cfg.OpenF1Timeout),
		openf1.WithLogger(logger),
	)
	a.engine = importer.New(st, f1, importer.WithLogger(logger), importer.WithWorkers(a.cfg.ScoreWorkers))
	a.close = func() {
		_ = db.Close()
		_ = logger.Sync()
	}
	return nil
}

func raceArg(args []string) (int, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid race id %q", args[0])
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions RACE_ID",
		Short: "List OpenF1 race sessions that may belong to a race",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raceID, err := raceArg(args)
			if err != nil {
				return err
			}
			candidates, err := a.engine.MatchSessions(ctx(cmd), raceID)
			if err != nil {
				return err
			}
			return printJSON(candidates)
		},
	}
}

func newRaceCmd(a *app) *cobra.Command {
	var sessionKey int
	cmd := &cobra.Command{
		Use:   "race RACE_ID",
		Short: "Import race results from an OpenF1 session and rescore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raceID, err := raceArg(args)
			if err != nil {
				return err
			}
			sum, err := a.engine.ImportRaceResults(ctx(cmd), raceID, sessionKey)
			if err != nil {
				return err
			}
			return printJSON(sum)
		},
	}
	cmd.Flags().IntVar(&sessionKey, "session", 0, "OpenF1 session key (required)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func newQualifyingCmd(a *app) *cobra.Command {
	var meetingKey int
	cmd := &cobra.Command{
		Use:   "qualifying RACE_ID",
		Short: "Copy qualifying positions onto the race grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raceID, err := raceArg(args)
			if err != nil {
				return err
			}
			sum, err := a.engine.ImportQualifyingResults(ctx(cmd), raceID, meetingKey)
			if err != nil {
				return err
			}
			return printJSON(sum)
		},
	}
	cmd.Flags().IntVar(&meetingKey, "meeting", 0, "OpenF1 meeting key (required)")
	_ = cmd.MarkFlagRequired("meeting")
	return cmd
}

func newRescoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rescore RACE_ID",
		Short: "Recompute every score of a race from stored results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raceID, err := raceArg(args)
			if err != nil {
				return err
			}
			n, err := a.engine.RescoreRace(ctx(cmd), raceID)
			if err != nil {
				return err
			}
			a.logger.Info("rescored", zap.Int("race", raceID), zap.Int("predictions", n))
			return nil
		},
	}
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}

// bindFlags applies environment values to the root's persistent flags the
// user did not set, so --openf1-base-url falls back to OPENF1_BASE_URL.
// Subcommand flags such as --session are never read from the environment.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	v.AutomaticEnv()
	flags := cmd.Root().PersistentFlags()
	flags.VisitAll(func(f *pflag.Flag) {
		env := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if err := v.BindEnv(f.Name, env); err != nil {
			fmt.Fprintf(os.Stderr, "could not bind env var %s: %v\n", env, err)
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				fmt.Fprintf(os.Stderr, "could not set flag %s: %v\n", f.Name, err)
			}
		}
	})
}
