package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/research"
	"github.com/sells-group/buildscout/internal/web"
)

var (
	runGame   string
	runSource string
	runLang   string
	runFields []string
	runImages bool
	runReport bool
)

var runCmd = &cobra.Command{
	Use:   "run [character]",
	Short: "Research a single character build",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		character := args[0]

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		game, ok := env.Registry.Game(runGame)
		if !ok {
			return eris.Errorf("unknown game %q", runGame)
		}

		var (
			record   model.BuildRecord
			pictures []model.ScoredCandidate
		)
		var g errgroup.Group
		g.Go(func() error {
			var runErr error
			record, runErr = env.Orchestrator.Run(ctx, research.Request{
				Game:            runGame,
				Character:       character,
				PreferredSource: runSource,
				Locale:          runLang,
			})
			return runErr
		})
		if runImages {
			g.Go(func() error {
				label := fmt.Sprintf("%s %s hoyoverse", character, game.Name)
				pictures = env.Images.Find(ctx, label, 0)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "research run")
		}

		zap.L().Info("research complete",
			zap.String("game", runGame),
			zap.String("character", character),
			zap.Any("source", record["source"]),
			zap.Int("images", len(pictures)),
		)

		if runReport {
			reports, err := web.NewReportWriter(cfg.Server.ReportsDir)
			if err != nil {
				return err
			}
			name, err := reports.Write(record, pictures, runGame, character)
			if err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("file", name))
		}

		if len(runFields) > 0 {
			record = record.Filter(runFields)
		}

		out := map[string]any{"build": record}
		if runImages {
			urls := make([]string, 0, len(pictures))
			for _, p := range pictures {
				urls = append(urls, p.URL)
			}
			out["images"] = urls
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	runCmd.Flags().StringVar(&runGame, "game", "", "game code: HSR, ZZZ, or GI (required)")
	runCmd.Flags().StringVar(&runSource, "source", "", "preferred source code")
	runCmd.Flags().StringVar(&runLang, "lang", "es", "output language code")
	runCmd.Flags().StringSliceVar(&runFields, "fields", nil, "limit output to these record keys")
	runCmd.Flags().BoolVar(&runImages, "images", true, "search artwork alongside the build")
	runCmd.Flags().BoolVar(&runReport, "report", false, "write an HTML report")
	_ = runCmd.MarkFlagRequired("game")
	rootCmd.AddCommand(runCmd)
}
