package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frame-vault/framevault/src/pkg/normalize"
)

// convertCmd rasterizes a PDF into a single canonical PNG without
// going through the store, useful for checking layout offline.
var convertCmd = &cobra.Command{
	Use:   "convert <input.pdf> <output.png>",
	Short: "Converts a PDF to a single PNG with all pages arranged side by side",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		width, widthErr := cmd.Flags().GetInt("width")
		if widthErr != nil {
			return widthErr
		}
		height, heightErr := cmd.Flags().GetInt("height")
		if heightErr != nil {
			return heightErr
		}

		raw, readErr := os.ReadFile(args[0])
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], readErr)
		}

		normalizer := normalize.New(normalize.Config{
			Width:    width,
			Height:   height,
			MaxBytes: int64(len(raw)),
		})

		result, normErr := normalizer.Normalize(raw)
		if normErr != nil {
			return normErr
		}
		if result.Document == nil {
			return fmt.Errorf("%s is not a PDF document", args[0])
		}

		if writeErr := os.WriteFile(args[1], result.PNG, 0644); writeErr != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], writeErr)
		}

		fmt.Printf("converted %s to %s (%dx%d)\n", args[0], args[1], result.Width, result.Height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().Int("width", 3840, "Target width of the output PNG")
	convertCmd.Flags().Int("height", 2160, "Target height of the output PNG")
}
