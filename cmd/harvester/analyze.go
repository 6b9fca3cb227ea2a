package main

import (
	"os"

	"go-job-harvester/internal/ai"
	"go-job-harvester/internal/analyze"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *cli) *cobra.Command {
	var (
		mode      string
		input     string
		csvPath   string
		maxTokens int
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask a local language model about every harvested posting and write a CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("mode") {
				cfg.AnalyzeMode = mode
			}
			if flags.Changed("input") {
				cfg.Output = input
			}
			if flags.Changed("csv") {
				cfg.CSVOutput = csvPath
			}
			if flags.Changed("max-tokens") {
				cfg.MaxTokens = maxTokens
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			m, err := analyze.ParseMode(cfg.AnalyzeMode)
			if err != nil {
				return err
			}

			client := ai.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
			analyzer := analyze.New(client, m, a.logger)
			analyzer.MaxTokens = cfg.MaxTokens
			if !quiet {
				analyzer.Progress = os.Stderr
			}

			_, err = analyzer.Run(cmd.Context(), cfg.Output, cfg.CSVOutput)
			return err
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "questions or full")
	cmd.Flags().StringVarP(&input, "input", "i", "", "corpus JSON file (defaults to the scrape output)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to write")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "override the mode's token budget")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
