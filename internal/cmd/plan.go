package cmd

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dayflow/dayflow/internal/config"
	"github.com/dayflow/dayflow/internal/llm"
	"github.com/dayflow/dayflow/internal/llm/openai"
	"github.com/dayflow/dayflow/internal/observability"
	"github.com/dayflow/dayflow/internal/output"
	"github.com/dayflow/dayflow/internal/planner"
)

var (
	planFormat string
	planModel  string
)

var planCmd = &cobra.Command{
	Use:   "plan [priorities...]",
	Short: "Generate a daily schedule from your priorities",
	Long: `Generate a daily schedule from a short description of your
priorities and render it as a table.

Examples:
  dayflow plan "Finish the quarterly report, gym at lunch, dinner with family"
  dayflow plan --format json "Study for exams and take regular breaks"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		if cfg == nil {
			cfg = config.GetConfig()
		}
		logger := observability.CLILogger

		format, err := output.ParseFormat(planFormat)
		if err != nil {
			return err
		}

		if strings.TrimSpace(cfg.Provider.APIKey) == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid,
				"No provider API key configured (set OPENAI_API_KEY or DAYFLOW_PROVIDER_API_KEY)", nil)
		}

		model := cfg.Provider.Model
		if cmd.Flags().Changed("model") {
			model = planModel
		}

		driver := openai.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey)
		driver.Timeout = cfg.Provider.Timeout

		pipeline := planner.New(driver, nil, planner.Config{Model: model}, nil)

		priorities := strings.Join(args, " ")
		logger.Debug("Requesting schedule",
			zap.String("model", model),
			zap.Int("priorities_chars", len(priorities)))

		history := []llm.Message{{Role: llm.RoleUser, Content: priorities}}
		timeline, degraded, err := pipeline.Generate(cmd.Context(), history)
		if err != nil {
			return fmt.Errorf("schedule generation failed: %w", err)
		}
		if degraded {
			logger.Warn("Schedule did not fully match the expected shape; showing it anyway")
		}

		rendered, err := output.NewFormatter(format).FormatTimeline(timeline)
		if err != nil {
			return err
		}
		fmt.Println(rendered)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planFormat, "format", "f", "table", "output format (table, json)")
	planCmd.Flags().StringVar(&planModel, "model", "", "override the configured model")
}
