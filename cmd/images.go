package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var imagesMax int

var imagesCmd = &cobra.Command{
	Use:   "images [label]",
	Short: "Search artwork for a label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		found := env.Images.Find(cmd.Context(), args[0], imagesMax)
		zap.L().Info("image search complete",
			zap.String("label", args[0]),
			zap.Int("found", len(found)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	},
}

func init() {
	imagesCmd.Flags().IntVar(&imagesMax, "max", 0, "result cap (default from config)")
	rootCmd.AddCommand(imagesCmd)
}
