// Package main provides the CLI entry point for sheetsplit.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/config"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/invoke"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/logging"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/output"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/parser"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/server"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/storage"
)

var logLevel string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetsplit",
		Short: "Split a spreadsheet into one workbook per group",
		Long: `sheetsplit partitions the rows of a sheet by a key column and writes
one formatted workbook per distinct key, locally or through blob storage.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: LOG_LEVEL or info)")

	rootCmd.AddCommand(
		newSplitCmd(),
		newInvokeCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// setup loads configuration and builds the logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format), nil
}

func newSplitCmd() *cobra.Command {
	var (
		outputDir       string
		sheetName       string
		columns         string
		manifestPath    string
		pretty          bool
		groupsOnly      bool
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "split [input.xlsx]",
		Short: "Split a local workbook into per-group workbooks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]

			// Validate input file exists
			if _, err := os.Stat(inputPath); os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", inputPath)
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}

			opts := cfg.SplitOptions(outputDir)
			opts.Logger = &log
			if cmd.Flags().Changed("sheet") {
				opts.SheetName = sheetName
			}
			if cmd.Flags().Changed("columns") {
				cols, err := parser.ParseColumns(columns)
				if err != nil {
					return err
				}
				opts.Columns = cols
			}
			if cmd.Flags().Changed("continue-on-error") {
				opts.ContinueOnError = continueOnError
			}

			result, splitErr := sheetsplit.Split(inputPath, opts)
			if result == nil {
				return fmt.Errorf("split failed: %w", splitErr)
			}

			var jsonData []byte
			if groupsOnly {
				jsonData, err = output.GroupsToJSON(result.Groups, pretty)
			} else {
				jsonData, err = output.ToJSON(result, pretty)
			}
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			if manifestPath != "" {
				if err := os.WriteFile(manifestPath, jsonData, 0644); err != nil {
					return fmt.Errorf("failed to write manifest: %w", err)
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			}

			if splitErr != nil {
				return fmt.Errorf("split failed: %w", splitErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "output", "Directory receiving one folder per group")
	cmd.Flags().StringVar(&sheetName, "sheet", sheetsplit.DefaultSheetName, "Source sheet name")
	cmd.Flags().StringVar(&columns, "columns", "A-T", "Columns to copy, e.g. A-T or A,B,D-F (4th is the group key)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Write the JSON manifest to this file (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&groupsOnly, "groups-only", false, "Output only the list of produced groups")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep writing remaining groups after a write failure")

	return cmd
}

func newInvokeCmd() *cobra.Command {
	var (
		bucket    string
		key       string
		eventPath string
	)

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Run one invocation against the configured storage",
		Long: `Run one invocation: fetch bucket/key, split it and upload every
produced workbook under the processed prefix of the same bucket.

The event comes from --bucket/--key or from a JSON file given with --event
("-" reads stdin), shaped as {"bucket": "...", "key": "..."}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := eventPayload(cmd, eventPath, bucket, key)
			if err != nil {
				return err
			}

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			handler, err := newHandler(cfg, log)
			if err != nil {
				return err
			}

			resp, invokeErr := handler.Handle(cmd.Context(), payload)
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if invokeErr != nil {
				return invokeErr
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("invocation rejected with status %d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket (container) holding the input object")
	cmd.Flags().StringVar(&key, "key", "", "Key (blob name) of the input object")
	cmd.Flags().StringVar(&eventPath, "event", "", `Event JSON file, "-" for stdin`)

	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve invocations over HTTP (POST /invoke)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			handler, err := newHandler(cfg, log)
			if err != nil {
				return err
			}

			addr := ":" + cfg.Server.Port
			log.Info().Str("addr", addr).Str("storage", string(cfg.Storage.Backend)).Msg("listening")
			return server.New(handler, log).Run(addr)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "Listen port (default: PORT or 8080)")

	return cmd
}

func eventPayload(cmd *cobra.Command, eventPath, bucket, key string) ([]byte, error) {
	switch eventPath {
	case "":
		return json.Marshal(invoke.Event{Bucket: bucket, Key: key})
	case "-":
		return io.ReadAll(cmd.InOrStdin())
	default:
		return os.ReadFile(eventPath)
	}
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendAzblob:
		return storage.NewBlobStore(cfg.Storage.ConnectionString)
	case config.BackendLocal:
		return storage.NewLocalStore(cfg.Storage.LocalRoot), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func newHandler(cfg *config.Config, log zerolog.Logger) (*invoke.Handler, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	return invoke.NewHandler(store, invoke.Config{
		StagingDir:      cfg.Staging.Dir,
		KeepStaging:     cfg.Staging.Keep,
		ProcessedPrefix: cfg.Storage.ProcessedPrefix,
		Split:           cfg.SplitOptions(""),
	}, log), nil
}
