package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/assistant"
	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/credential"
	"github.com/Veraticus/tally/internal/llm"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Replaced in tests.
var (
	openStorage  = initStorage
	newGenerator = gatewayFromEnv
	now          = time.Now
)

// mediaTypes covers common recordings and photos that mime.TypeByExtension
// does not know on a bare system.
var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".webm": "audio/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// currentConfig returns the configuration resolved by the root command, or
// resolves it from defaults when a subcommand runs on its own.
func currentConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}

// initStorage opens the record store named by the configuration and brings its
// schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close storage", common.Fields{"path": cfg.Database.Path})
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// withStorage opens the store, runs fn and closes the store again.
func withStorage(ctx context.Context, cfg *config.Config, fn func(service.Storage) error) error {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close storage", common.Fields{"path": cfg.Database.Path})
		}
	}()

	return fn(store)
}

// gatewayFromEnv builds the rotating gateway over the credential slots found in
// the environment and the dotenv file.
func gatewayFromEnv(cfg *config.Config) (assistant.Generator, error) {
	pool, err := credential.LoadFromEnv(envFile)
	if err != nil {
		return nil, err
	}

	opts := []llm.Option{
		llm.WithLogger(slog.Default()),
		llm.WithRateLimit(cfg.LLM.RateLimit),
	}
	if cfg.LLM.Cooldown > 0 {
		opts = append(opts, llm.WithCooldownTracker(llm.NewCooldownTracker(cfg.LLM.Cooldown)))
	}

	slog.Debug("Gateway ready", "credentials", pool.Len(), "model", cfg.LLM.Model)
	return llm.NewGateway(pool, llm.NewGeminiBackend(cfg.LLM.Timeout), opts...), nil
}

func newAssistant(cfg *config.Config) (*assistant.Assistant, error) {
	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	return assistant.New(generator,
		assistant.WithModel(cfg.LLM.Model),
		assistant.WithLogger(slog.Default()),
		assistant.WithClock(now),
	)
}

// readMedia loads a file for the model. The MIME type comes from override,
// then the file extension, then content sniffing.
func readMedia(path, override string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	mimeType := override
	if mimeType == "" {
		ext := strings.ToLower(filepath.Ext(path))
		mimeType = mime.TypeByExtension(ext)
		if known, ok := mediaTypes[ext]; ok && !strings.HasPrefix(mimeType, "audio/") && !strings.HasPrefix(mimeType, "image/") {
			mimeType = known
		}
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil, "", fmt.Errorf("invalid media type %q: %w", mimeType, err)
	}
	return data, mediaType, nil
}

// readInput joins args, or reads stdin when no args were given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// waitFor shows a spinner on stderr while fn talks to the model.
func waitFor(cmd *cobra.Command, description string, fn func() error) error {
	spinner := cli.StartSpinner(cmd.ErrOrStderr(), description)
	err := fn()
	spinner.Stop()
	return err
}

// addYesFlag registers the flag that skips confirmation prompts.
func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompts")
}

func skipConfirm(cmd *cobra.Command) bool {
	yes, _ := cmd.Flags().GetBool("yes")
	return yes
}

// confirm asks question unless --yes was given.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if skipConfirm(cmd) {
		return true, nil
	}
	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	return prompter.Confirm(cmd.Context(), question)
}

// reviewAndSave shows the record for review, then stores it. With --yes the
// record is stored as extracted, unless its amount is zero, which always needs
// an explicit answer.
func reviewAndSave(cmd *cobra.Command, cfg *config.Config, title string, expense model.Expense) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if skipConfirm(cmd) && !expense.NeedsReview() {
		writeln(out, cli.RenderExpense(title, expense))
	} else {
		prompter := cli.NewPrompter(cmd.InOrStdin(), out)
		reviewed, keep, err := prompter.ReviewExpense(ctx, title, expense)
		if err != nil {
			if errors.Is(err, cli.ErrInputClosed) {
				writeln(out, cli.FormatWarning("Input closed, nothing was saved."))
				return nil
			}
			return err
		}
		if !keep {
			writeln(out, cli.FormatInfo("Discarded."))
			return nil
		}
		expense = reviewed
	}

	return withStorage(ctx, cfg, func(store service.Storage) error {
		if err := store.SaveExpense(ctx, &expense); err != nil {
			return fmt.Errorf("failed to save expense: %w", err)
		}
		writeln(out, cli.FormatSuccess(fmt.Sprintf("已儲存 Saved %s %s %s", cli.ShortID(expense.ID), expense.Item, cli.FormatAmount(expense.Amount))))
		return nil
	})
}

// resolveMonth defaults to the current month and validates YYYY-MM input.
func resolveMonth(cmd *cobra.Command) (string, error) {
	month, _ := cmd.Flags().GetString("month")
	if month == "" {
		return budget.CurrentMonth(now()), nil
	}
	if _, err := budget.ParseMonth(month); err != nil {
		return "", fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	return month, nil
}

func writeln(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
