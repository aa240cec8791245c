package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tianputao/data-pipeline-agent/internal/agent"
	"github.com/tianputao/data-pipeline-agent/internal/domain"
	"github.com/tianputao/data-pipeline-agent/internal/infra"
	"github.com/tianputao/data-pipeline-agent/internal/llm"
	"github.com/tianputao/data-pipeline-agent/internal/nlu"
	"github.com/tianputao/data-pipeline-agent/internal/render"
	"github.com/tianputao/data-pipeline-agent/internal/storage"
)

const scriptPreviewLimit = 400

var (
	flagNL         string
	flagConfigPath string
	flagOutput     string
)

func main() {
	root := &cobra.Command{
		Use:           "agent",
		Short:         "Turn data-movement descriptions into Databricks ingestion jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	plan := &cobra.Command{
		Use:   "plan",
		Short: "Synthesize a job config and render its script without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService()
			if err != nil {
				return err
			}
			req, err := buildRequest()
			if err != nil {
				return err
			}
			outcome, err := svc.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printOutcome(outcome)
		},
	}

	submit := &cobra.Command{
		Use:   "submit",
		Short: "Synthesize, upload, and run the job on Databricks",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService()
			if err != nil {
				return err
			}
			req, err := buildRequest()
			if err != nil {
				return err
			}
			outcome, err := svc.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := printOutcome(outcome); err != nil {
				return err
			}
			fmt.Printf("run_id: %s\nscript_path: %s\n", outcome.RunID, outcome.ScriptPath)
			return nil
		},
	}

	sample := &cobra.Command{
		Use:   "sample-config",
		Short: "Print a complete example job config in YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(sampleConfig())
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}

	runStatus := &cobra.Command{
		Use:   "run-status <run-id>",
		Short: "Show the state of a submitted Databricks run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService()
			if err != nil {
				return err
			}
			state, err := svc.RunState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("run %s: %s\n", args[0], state)
			return nil
		},
	}

	for _, cmd := range []*cobra.Command{plan, submit} {
		cmd.Flags().StringVar(&flagNL, "nl", "", "natural language job description")
		cmd.Flags().StringVar(&flagConfigPath, "config", "", "path to a YAML/JSON job config")
		cmd.Flags().StringVar(&flagOutput, "output", "", "write the rendered script to this file")
	}

	root.AddCommand(plan, submit, sample, runStatus)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildService() (*agent.Service, error) {
	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv)

	extractor, err := llm.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := nlu.SynthesizerOptions{
		BasePath: cfg.DefaultBasePath,
		Catalog:  cfg.DefaultUnityCatalog,
	}
	if extractor != nil {
		opts.Model = extractor
	}
	synth := nlu.NewSynthesizer(logger, opts)

	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewScriptStore(cfg.AgentStoragePath)
	if err != nil {
		return nil, err
	}
	return agent.NewService(cfg, logger, synth, renderer, store), nil
}

func buildRequest() (domain.JobRequest, error) {
	req := domain.JobRequest{NaturalLanguage: flagNL}
	if flagConfigPath != "" {
		data, err := os.ReadFile(flagConfigPath)
		if err != nil {
			return domain.JobRequest{}, fmt.Errorf("read config file: %w", err)
		}
		cfg := domain.NewJobConfig()
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return domain.JobRequest{}, fmt.Errorf("parse config file: %w", err)
		}
		req.Config = &cfg
	}
	if req.NaturalLanguage == "" && req.Config == nil {
		return domain.JobRequest{}, domain.ErrMissingInput
	}
	return req, nil
}

func printOutcome(outcome *agent.Outcome) error {
	out, err := yaml.Marshal(outcome.Config)
	if err != nil {
		return err
	}
	fmt.Println("--- job config ---")
	fmt.Print(string(out))

	if flagOutput != "" {
		if err := os.WriteFile(flagOutput, []byte(outcome.Script), 0o644); err != nil {
			return fmt.Errorf("write script: %w", err)
		}
		fmt.Printf("--- script written to %s ---\n", flagOutput)
		return nil
	}
	preview := outcome.Script
	if len(preview) > scriptPreviewLimit {
		preview = preview[:scriptPreviewLimit] + "\n# ... truncated ..."
	}
	fmt.Println("--- script preview ---")
	fmt.Println(preview)
	return nil
}

func sampleConfig() domain.JobConfig {
	cfg := domain.NewJobConfig()
	cfg.JobName = "ingest_test_out1"
	cfg.Description = "Daily copy of public.vwtable1 into the bronze layer"
	cfg.Source = domain.SourceSpec{
		Type:      domain.SourcePostgres,
		JDBCURL:   "jdbc:postgresql://db.example.com:5432/sales",
		Table:     "public.vwtable1",
		Frequency: domain.FrequencyDaily,
		Options:   map[string]string{"user": "etl_user", "password": "change-me"},
	}
	cfg.Sink = domain.SinkSpec{
		Type:     domain.SinkDelta,
		Catalog:  "uc_tarhone",
		Database: "test",
		Table:    "out1",
		Mode:     "append",
		Layer:    "bronze",
		Path:     nlu.DefaultBasePath + "/bronze/test/out1",
	}
	return cfg
}
