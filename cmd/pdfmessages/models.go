package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/ocr"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered by the vision endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.APIKey == "" {
			return errors.New("listing models needs an API key: set GEMINI_API_KEY or --api-key")
		}
		recognizer, err := ocr.NewVisionRecognizer(ocr.VisionConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.OCR.Model,
		})
		if err != nil {
			return err
		}

		models, err := recognizer.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range models {
			marker := "  "
			if m == cfg.OCR.Model || m == "models/"+cfg.OCR.Model {
				marker = successStyle.Render("* ")
			}
			fmt.Fprintln(cmd.OutOrStdout(), marker+m)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().String("api-key", "", "API key (default: GEMINI_API_KEY, GOOGLE_API_KEY or OPENAI_API_KEY)")
	modelsCmd.Flags().String("base-url", "", "OpenAI-compatible API base URL")
	rootCmd.AddCommand(modelsCmd)
}
