package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/artisan/internal/config"
	"github.com/kelsos/artisan/internal/download"
	"github.com/kelsos/artisan/internal/logger"
	"github.com/kelsos/artisan/internal/models"
	"github.com/kelsos/artisan/internal/services"
	"github.com/kelsos/artisan/internal/tui"
	"github.com/kelsos/artisan/internal/utils"
)

var attributeHelp = map[models.Attribute]string{
	models.AttrStyle:              "Visual style, e.g. low-poly or realistic",
	models.AttrEnvironment:        "Surroundings the model is placed in",
	models.AttrLighting:           "Lighting setup",
	models.AttrColorScheme:        "Dominant colors",
	models.AttrSpecialFeatures:    "Distinctive details to include",
	models.AttrScale:              "Real-world size or proportions",
	models.AttrLevelOfDetail:      "Polygon budget or level of detail",
	models.AttrMaterialAppearance: "Surface materials",
	models.AttrSymmetry:           "Symmetry constraints",
	models.AttrAnimation:          "Animation requirements",
	models.AttrOutputFormat:       "Preferred output format",
	models.AttrOtherRequirements:  "Anything else the generator should know",
}

// addAttributeFlags binds one flag per optional request attribute
func addAttributeFlags(cmd *cobra.Command, values map[models.Attribute]*string) {
	for _, attr := range models.AllAttributes {
		name := strings.ReplaceAll(string(attr), "_", "-")
		cmd.Flags().StringVar(values[attr], name, "", attributeHelp[attr])
	}
}

func parseFields(names []string) ([]models.Attribute, error) {
	if len(names) == 0 {
		return nil, nil
	}

	fields := make([]models.Attribute, 0, len(names))
	for _, name := range names {
		attr, ok := models.ParseAttribute(name)
		if !ok {
			return nil, fmt.Errorf("unknown request field %q", name)
		}
		fields = append(fields, attr)
	}
	return fields, nil
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	var (
		baseURL    string
		outputDir  string
		timeout    int
		fieldNames []string
		fetchModel bool
	)

	attrValues := make(map[models.Attribute]*string, len(models.AllAttributes))
	for _, attr := range models.AllAttributes {
		attrValues[attr] = new(string)
	}

	buildRequest := func(args []string) models.GenerationRequest {
		req := models.GenerationRequest{Prompt: strings.Join(args, " ")}
		for attr, value := range attrValues {
			req.Set(attr, *value)
		}
		return req
	}

	rootCmd := &cobra.Command{
		Use:   "artisan [prompt]",
		Short: "Generate 3D models from text prompts",
		Long: `artisan submits text-to-3D generation jobs to an Artisan service,
follows them until they finish and fetches the resulting model.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("base-url") {
				cfg.SetBaseURL(baseURL)
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			if cmd.Flags().Changed("timeout") {
				cfg.RequestTimeout = time.Duration(timeout) * time.Second
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(fieldNames)
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), services.NewGenerationService(cfg), buildRequest(args), fields)
		},
	}

	generateCmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Submit a prompt and wait for the model without the interactive UI",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(fieldNames)
			if err != nil {
				return err
			}

			svc := services.NewGenerationService(cfg)
			req := buildRequest(args)
			console := tui.NewConsole(cmd.OutOrStdout())

			taskID, err := svc.Generate(cmd.Context(), req, console, fields)
			if err != nil {
				return &generationError{err: err}
			}

			if fetchModel {
				normalized := req.Normalize()
				result, err := svc.Download(cmd.Context(), taskID, &normalized)
				if err != nil {
					return err
				}
				printDownload(cmd, result)
			}
			return nil
		},
	}
	generateCmd.Flags().BoolVar(&fetchModel, "download", false, "Download the model into the output directory when it is ready")

	statusCmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the current status of a generation task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewGenerationService(cfg)
			taskID := args[0]

			result, err := svc.Status(cmd.Context(), taskID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %s: %s\n", taskID, result.Status)
			if detail := result.Detail(); detail != "" {
				fmt.Fprintf(out, "Result: %s\n", detail)
			}
			if result.Status == models.TaskStatusSuccess {
				fmt.Fprintf(out, "Model: %s\n", svc.ModelURL(taskID))
			}

			sidecar, err := svc.LocalSidecar(taskID)
			if err != nil {
				logger.Warn("Could not read local metadata for %s: %v", taskID, err)
			} else if sidecar != nil {
				fmt.Fprintf(out, "Downloaded: %s (prompt: %q, %s)\n", sidecar.ModelFile, sidecar.Prompt, sidecar.Timestamp)
			}
			return nil
		},
	}

	downloadCmd := &cobra.Command{
		Use:   "download <task-id>",
		Short: "Download the model produced by a finished task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewGenerationService(cfg)
			result, err := svc.Download(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			printDownload(cmd, result)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", cfg.BaseURL, "Address of the generation service")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", cfg.OutputDir, "Directory downloaded models are written to")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", int(cfg.RequestTimeout/time.Second), "Per-request timeout in seconds")

	for _, cmd := range []*cobra.Command{rootCmd, generateCmd} {
		addAttributeFlags(cmd, attrValues)
		cmd.Flags().StringSliceVar(&fieldNames, "fields", nil, "Optional attributes to send with the prompt (default: all)")
	}

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(downloadCmd)

	return rootCmd
}

// generationError reports a failed session with the text the user saw
type generationError struct {
	err error
}

func (e *generationError) Error() string {
	return "generation failed: " + models.UserMessage(e.err)
}

func (e *generationError) Unwrap() error {
	return e.err
}

func printDownload(cmd *cobra.Command, result *download.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved %s (%d bytes)\n", result.Path, result.Size)
	fmt.Fprintf(out, "SHA-512: %s\n", result.Checksum)
}

func runInteractive(ctx context.Context, svc *services.GenerationService, req models.GenerationRequest, fields []models.Attribute) error {
	if err := logger.InitFileOnly(); err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := tui.NewMonitor()
	session := svc.NewSession(monitor, fields)

	model := tui.NewModel(tui.Options{
		Context:   ctx,
		Submitter: session,
		Download: func(ctx context.Context, taskID string) (*download.Result, error) {
			return svc.Download(ctx, taskID, nil)
		},
		Presenter:  svc.Presenter(),
		Template:   req,
		AutoSubmit: strings.TrimSpace(req.Prompt) != "",
	})

	monitor.Start(model)
	return monitor.Run()
}

// initEnvironment loads .env files before the logger so they can set the level
func initEnvironment() []string {
	loaded := utils.LoadEnvironment()
	logger.Init()
	for _, path := range loaded {
		logger.Debug("Loaded environment from %s", path)
	}
	return loaded
}

func main() {
	initEnvironment()

	cfg := config.NewConfig()
	cfg.LoadFromEnvironment()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(cfg).ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatal("%v", err)
	}
}
