package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sellerpulse/internal/config"
	"sellerpulse/internal/handlers"
	"sellerpulse/internal/logging"
	"sellerpulse/internal/metrics"
	"sellerpulse/internal/perception"
	"sellerpulse/internal/pipeline"
	"sellerpulse/internal/server"
	"sellerpulse/internal/session"
)

var (
	configPath string
	verbose    bool
	refDate    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sellerpulse",
	Short: "sellerpulse - analytics chatbot for e-commerce sellers",
	Long: `sellerpulse answers free-text questions about store and product
performance. Questions are classified, their date references resolved to
exact ISO ranges, and routed to the matching metrics handler.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := logging.Init(verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Debug = true
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Resolve and answer a single question",
	Long: `Runs one question through the full pipeline and prints the answer
plus the resolved state as JSON.

Example:
  sellerpulse ask "compare past 9 days vs past 30 days for B0B5HN65QQ"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chatbot server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/sellerpulse.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	askCmd.Flags().StringVar(&refDate, "date", "", "reference date (YYYY-MM-DD, defaults to today)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// buildExtractor picks the extractor backend from config. Without an API
// key the offline heuristic extractor is used so the binary still works
// end to end.
func buildExtractor(ctx context.Context) (perception.Extractor, error) {
	logger := logging.For(logging.ComponentPerception)

	if cfg.LLM.APIKey == "" {
		logger.Warn("no API key configured, using the offline heuristic extractor")
		return perception.NewHeuristicExtractor(), nil
	}

	switch cfg.LLM.Provider {
	case "gemini":
		client, err := perception.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		return perception.NewLLMExtractor(client), nil
	case "openai":
		occ := perception.DefaultOpenAIConfig(cfg.LLM.APIKey)
		if cfg.LLM.Model != "" {
			occ.Model = cfg.LLM.Model
		}
		if cfg.LLM.BaseURL != "" {
			occ.BaseURL = cfg.LLM.BaseURL
		}
		return perception.NewLLMExtractor(perception.NewOpenAIClientWithConfig(occ)), nil
	}
	return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
}

func buildPipeline() (*pipeline.Pipeline, *pipeline.HardcodedMatcher, error) {
	extractor, err := buildExtractor(context.Background())
	if err != nil {
		return nil, nil, err
	}

	matcher, err := pipeline.NewHardcodedMatcherFromFile(
		cfg.Hardcoded.TablePath, pipeline.MatchMode(cfg.Hardcoded.Mode))
	if err != nil {
		return nil, nil, err
	}
	if cfg.Hardcoded.Watch {
		if err := matcher.Watch(cfg.Hardcoded.TablePath); err != nil {
			logging.For(logging.ComponentPipeline).Warn("hardcoded table watch disabled", zap.Error(err))
		}
	}

	p := pipeline.New(matcher, pipeline.NewRetryingNormalizer(extractor, cfg.LLMTimeout()))
	return p, matcher, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	reference := time.Now()
	if refDate != "" {
		parsed, err := time.Parse("2006-01-02", refDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		reference = parsed
	}

	p, matcher, err := buildPipeline()
	if err != nil {
		return err
	}
	defer matcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := p.Run(ctx, question, reference, pipeline.Preseeded{}, nil)
	if err != nil {
		return err
	}

	router := handlers.NewRouter(metrics.NewClient(
		cfg.MetricsBaseURL(), os.Getenv("SELLERPULSE_METRICS_TOKEN"), cfg.MetricsTimeout()))
	answer, err := router.Dispatch(ctx, state)
	if err != nil {
		return err
	}

	fmt.Println(answer)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, string(data))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	p, matcher, err := buildPipeline()
	if err != nil {
		return err
	}
	defer matcher.Close()

	store, err := session.Open(cfg.Session.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	router := handlers.NewRouter(metrics.NewClient(
		cfg.MetricsBaseURL(), os.Getenv("SELLERPULSE_METRICS_TOKEN"), cfg.MetricsTimeout()))

	srv := server.New(p, router, store, cfg.Session.HistoryTurns, cfg.Logging.Debug)
	return srv.Run(cfg.Server.Addr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
