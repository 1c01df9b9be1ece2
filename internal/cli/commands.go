package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/debug"
	"github.com/dyike/StockPilot/internal/display"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/storage"
	"github.com/dyike/StockPilot/models"
	"github.com/dyike/StockPilot/pkg/app"
)

const Version = "0.1.0"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "stockpilot",
		Short: "StockPilot - buy, sell or hold research for a stock",
		Long: `StockPilot resolves the stock you ask about, researches its fundamentals and
technicals in parallel with a web research tool, and reasons over both to
recommend buy, sell or hold.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded

			if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
				cfg.Debug = true
				cfg.LogLevel = "debug"
			}
			if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newToolsCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newShowCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var (
		save       bool
		noStore    bool
		quiet      bool
		transcript bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [request...]",
		Short: "Recommend buy, sell or hold for a stock",
		Long: `Run the full analysis for a free-text request.
Example: stockpilot analyze "Should I invest in Reliance Industries?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			request := strings.TrimSpace(strings.Join(args, " "))
			if request == "" {
				var err error
				if request, err = PromptForRequest(); err != nil {
					return err
				}
				if !cmd.Flags().Changed("save") {
					if save, err = PromptForSave(); err != nil {
						return err
					}
				}
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := debug.NewEinoDebugger(cfg).Initialize(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := []app.Option{}
			if !quiet {
				printBanner(out)
				opts = append(opts, app.WithNotifier(eventPrinter(out)))
			}

			engine, err := app.BuildEngine(ctx, cfg, opts...)
			if err != nil {
				return err
			}
			defer engine.Close()

			record, err := engine.Analyze(ctx, models.AnalyzeParams{
				Prompt:  request,
				Save:    save,
				NoStore: noStore,
			})
			if record != nil {
				fmt.Fprintln(out)
				display.RenderRecord(out, record, transcript)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Write a markdown report to the results directory")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the run in the history database")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print live progress")
	cmd.Flags().BoolVar(&transcript, "transcript", false, "Print the full message history")

	return cmd
}

func newToolsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the research tools of the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			c := *cfg
			c.DBPath = ""
			engine, err := app.BuildEngine(cmd.Context(), &c)
			if err != nil {
				return err
			}
			defer engine.Close()

			out := cmd.OutOrStdout()
			printField(out, "Backend:", cfg.ToolBackend)
			for _, name := range engine.Tools() {
				fmt.Fprintf(out, "  • %s\n", name)
			}
			return nil
		},
	}
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	params := models.HistoryParams{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analyses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRecords(cmd.Context(), params)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&params.Limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&params.Symbol, "symbol", "", "Only list runs whose stock name contains this text")
	return cmd
}

func newShowCmd(cfg *config.Config) *cobra.Command {
	var transcript bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded analysis by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			record, err := store.GetRecord(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no analysis with id %q", args[0])
			}
			if err != nil {
				return err
			}
			display.RenderRecord(cmd.OutOrStdout(), record, transcript)
			return nil
		},
	}

	cmd.Flags().BoolVar(&transcript, "transcript", false, "Print the full message history")
	return cmd
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cmd, cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that every key the selected providers need is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), errStyle.Render("❌ "+err.Error()))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✅ Configuration is valid"))
			return nil
		},
	})

	return configCmd
}

func showConfig(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "📋 Current StockPilot Configuration:")
	printField(out, "Project Directory:", cfg.ProjectDir)
	printField(out, "Results Directory:", cfg.ResultsDir)
	printField(out, "Database:", cfg.DBPath)
	fmt.Fprintln(out)
	printField(out, "Azure Endpoint:", cfg.AzureEndpoint)
	printField(out, "Azure API Key:", secretStatus(cfg.AzureAPIKey))
	printField(out, "Chat Deployment:", cfg.DeploymentName)
	printField(out, "Reasoning Provider:", cfg.ReasoningProvider)
	if cfg.ReasoningProvider == config.ProviderDeepSeek {
		printField(out, "DeepSeek Model:", cfg.DeepSeekModel)
		printField(out, "DeepSeek API Key:", secretStatus(cfg.DeepSeekAPIKey))
	} else {
		printField(out, "Reasoning Deployment:", cfg.ReasoningDeployment)
	}
	printField(out, "Model Timeout:", cfg.ModelTimeout)
	fmt.Fprintln(out)
	printField(out, "Tool Backend:", cfg.ToolBackend)
	if cfg.ToolBackend == config.ToolBackendMCP {
		printField(out, "MCP Command:", strings.Join(append([]string{cfg.MCPCommand}, cfg.MCPArgs...), " "))
	} else {
		printField(out, "Perplexity URL:", cfg.PerplexityBaseURL)
	}
	printField(out, "Perplexity API Key:", secretStatus(cfg.PerplexityAPIKey))
	printField(out, "Tool Timeout:", cfg.ToolTimeout)
	fmt.Fprintln(out)
	printField(out, "Max Tool Iterations:", cfg.MaxToolIterations)
	printField(out, "Decision Policy:", cfg.DecisionPolicy)
	printField(out, "Decision Attempts:", cfg.DecisionMaxAttempts)
	printField(out, "Max Recursion Limit:", cfg.MaxRecurLimit)
	printField(out, "Eino Debug:", cfg.EinoDebugEnabled)
	if url := debug.NewEinoDebugger(cfg).GetDebugURL(); url != "" {
		printField(out, "Debug URL:", url)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "StockPilot v%s\n", Version)
		},
	}
}

