package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"careerpilot/internal/college"
	"careerpilot/internal/config"
	"careerpilot/internal/llm"
	"careerpilot/internal/logging"
	"careerpilot/internal/roadmap"
	"careerpilot/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "careerpilot",
	Short: "careerpilot - career roadmap and college resolution pipeline",
	Long: `careerpilot resolves student career goals into structured roadmaps
and college program details.

Free-text goals are normalized into canonical careers, answered from the
cache or a curated template when possible, and generated on demand
otherwise. College searches probe program availability in rate-limited
batches and extract verified details for the top-ranked college.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.DatabasePath = dbPath
		}

		if err := logging.Initialize(".", cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		if err := logging.InitAudit(); err != nil {
			return fmt.Errorf("failed to initialize audit log: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// roadmapCmd resolves a free-text career goal into a roadmap.
var roadmapCmd = &cobra.Command{
	Use:   "roadmap <career goal>",
	Short: "Resolve a career goal into a complete backward roadmap",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.Join(args, " ")
		ctx := signalContext()

		st, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		creds := llm.Credentials{
			GeminiAPIKey:     cfg.LLM.GeminiAPIKey,
			PerplexityAPIKey: cfg.LLM.PerplexityAPIKey,
		}
		genCfg, err := llm.DetectGeneration(creds)
		if err != nil {
			return err
		}
		genCfg.Model = cfg.LLM.GenerationModel
		client, err := llm.NewClientFromConfig(genCfg)
		if err != nil {
			return err
		}

		normalizer := roadmap.NewNormalizer(client)
		planner := roadmap.NewPlanner(client, roadmap.PlannerConfig{
			MaxAttempts:   cfg.Pipeline.PlannerMaxAttempts,
			BaseDelay:     cfg.Pipeline.GetPlannerBaseDelay(),
			CallTimeout:   cfg.LLM.GetTimeout(),
			QuotaCooldown: cfg.Pipeline.GetQuotaCooldown(),
		})
		resolver := roadmap.NewResolver(normalizer.Normalize, st, planner)

		logger.Info("resolving career goal", zap.String("goal", goal))
		start := time.Now()
		res, err := resolver.Resolve(ctx, goal)
		if err != nil {
			logging.AuditRoadmap(goal, "", 0, time.Since(start), err)
			return err
		}
		logging.AuditRoadmap(res.Career, res.Source, res.Confidence, time.Since(start), nil)

		logger.Info("roadmap resolved",
			zap.String("career", res.Career),
			zap.String("source", res.Source),
			zap.Float64("confidence", res.Confidence))
		return printJSON(map[string]interface{}{
			"source":     res.Source,
			"career":     res.Career,
			"category":   res.Category,
			"confidence": res.Confidence,
			"roadmap":    res.Roadmap,
		})
	},
}

var (
	degreeFlag   string
	branchFlag   string
	collegeFlags []string
)

// collegesCmd probes colleges and fetches details for the best one.
var collegesCmd = &cobra.Command{
	Use:   "colleges",
	Short: "Find colleges offering a program, with details for the top one",
	RunE: func(cmd *cobra.Command, args []string) error {
		if degreeFlag == "" || branchFlag == "" || len(collegeFlags) == 0 {
			return fmt.Errorf("--degree, --branch and at least one --college are required")
		}
		colleges, err := parseColleges(collegeFlags)
		if err != nil {
			return err
		}
		ctx := signalContext()

		st, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		creds := llm.Credentials{
			GeminiAPIKey:     cfg.LLM.GeminiAPIKey,
			PerplexityAPIKey: cfg.LLM.PerplexityAPIKey,
		}
		genCfg, err := llm.DetectGeneration(creds)
		if err != nil {
			return err
		}
		genCfg.Model = cfg.LLM.GenerationModel
		probeClient, err := llm.NewClientFromConfig(genCfg)
		if err != nil {
			return err
		}
		searchCfg, err := llm.DetectSearch(creds)
		if err != nil {
			return err
		}
		if searchCfg.Provider == llm.ProviderPerplexity {
			searchCfg.Model = cfg.LLM.SearchModel
		}
		searchClient, err := llm.NewClientFromConfig(searchCfg)
		if err != nil {
			return err
		}

		prober := college.NewProber(probeClient, college.ProberConfig{
			QuotaCooldown: cfg.Pipeline.GetQuotaCooldown(),
		})
		fanout := college.NewFanout(prober.Check, college.FanoutConfig{
			BatchSize:  cfg.Pipeline.ProbeBatchSize,
			BatchDelay: cfg.Pipeline.GetProbeBatchDelay(),
		})
		extractor := college.NewExtractor(searchClient, college.ExtractorConfig{
			QuotaCooldown: cfg.Pipeline.GetQuotaCooldown(),
		})
		finder := college.NewFinder(fanout, extractor, st)

		logger.Info("searching colleges",
			zap.String("degree", degreeFlag),
			zap.String("branch", branchFlag),
			zap.Int("candidates", len(colleges)))
		start := time.Now()
		result := finder.Find(ctx, colleges, degreeFlag, branchFlag)
		logging.AuditProbes(degreeFlag, branchFlag, len(result.Offering), len(colleges), time.Since(start))
		if result.TopDetails != nil {
			logging.AuditDetails(result.TopDetails.CollegeName, result.DetailsSource,
				len(result.TopDetails.MissingFields), time.Since(start), nil)
		} else if result.DetailsError != nil && len(result.Offering) > 0 {
			logging.AuditDetails(result.Offering[0].Name, "", 0, time.Since(start), result.DetailsError)
		}

		out := map[string]interface{}{
			"total_colleges_checked": len(colleges),
			"offering_count":         len(result.Offering),
			"not_offering_count":     len(result.NotOffering),
			"offering_colleges":      collegeNames(result.Offering),
			"not_offering_colleges":  collegeNames(result.NotOffering),
		}
		if result.TopDetails != nil {
			out["top_college_details"] = result.TopDetails
			out["details_source"] = result.DetailsSource
		}
		if result.DetailsError != nil {
			out["details_error"] = result.DetailsError.Error()
		}
		return printJSON(out)
	},
}

// templatesCmd lists careers with curated templates.
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List careers with an active curated roadmap template",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		names, err := st.ActiveTemplateNames()
		if err != nil {
			return err
		}
		return printJSON(names)
	},
}

// parseColleges parses "name" or "name:rank" flag values.
func parseColleges(values []string) ([]college.College, error) {
	colleges := make([]college.College, 0, len(values))
	for _, v := range values {
		name, rankStr, hasRank := strings.Cut(v, ":")
		c := college.College{Name: strings.TrimSpace(name)}
		if c.Name == "" {
			return nil, fmt.Errorf("empty college name in %q", v)
		}
		if hasRank {
			rank, err := strconv.Atoi(strings.TrimSpace(rankStr))
			if err != nil || rank < 0 {
				return nil, fmt.Errorf("invalid rank in %q", v)
			}
			c.Rank = rank
		}
		colleges = append(colleges, c)
	}
	return colleges, nil
}

func collegeNames(colleges []college.College) []string {
	names := make([]string, len(colleges))
	for i, c := range colleges {
		names[i] = c.Name
	}
	return names
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "careerpilot.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override cache database path")

	collegesCmd.Flags().StringVar(&degreeFlag, "degree", "", "degree to search for (e.g. BTech)")
	collegesCmd.Flags().StringVar(&branchFlag, "branch", "", "branch to search for (e.g. Computer Science)")
	collegesCmd.Flags().StringArrayVar(&collegeFlags, "college", nil, "candidate college as name or name:rank (repeatable)")

	rootCmd.AddCommand(roadmapCmd)
	rootCmd.AddCommand(collegesCmd)
	rootCmd.AddCommand(templatesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
