package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buildscout/internal/source"
	"github.com/sells-group/buildscout/internal/store"
)

var buildsGame string

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "List stored build records",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := source.Load()
		if err != nil {
			return err
		}
		st, err := store.NewJSONStore(cfg.Store.Dir)
		if err != nil {
			return err
		}

		games := registry.Games()
		if buildsGame != "" {
			g, ok := registry.Game(buildsGame)
			if !ok {
				return eris.Errorf("unknown game %q", buildsGame)
			}
			games = []source.Game{*g}
		}

		out := make(map[string]any)
		for _, g := range games {
			records, err := st.List(cmd.Context(), g.StoreFile)
			if err != nil {
				return err
			}
			for k, v := range records {
				out[k] = v
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	buildsCmd.Flags().StringVar(&buildsGame, "game", "", "limit to one game code")
	rootCmd.AddCommand(buildsCmd)
}
