package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizgene/internal/config"
	appI18n "github.com/pavelanni/quizgene/internal/i18n"
	"github.com/pavelanni/quizgene/internal/llm"
	"github.com/pavelanni/quizgene/internal/llm/prompts"
	"github.com/pavelanni/quizgene/internal/model"
	"github.com/pavelanni/quizgene/internal/quiz"
)

// errReported marks an error whose diagnostic has already been printed.
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quizgene",
		Short:         "Multiple-choice quizzes generated by an LLM, taken in the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	run := runCmd()
	root.AddCommand(run, promptCmd(), pingCmd())

	// Make "run" the default when no subcommand is given.
	root.RunE = run.RunE

	// Register run flags on root so bare `quizgene --subject ...` still works.
	root.Flags().AddFlagSet(run.Flags())

	return root
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a quiz, take it, and get study suggestions",
		Args:  cobra.NoArgs,
		RunE:  runQuiz,
	}
	f := cmd.Flags()
	addModelFlags(f)
	addQuizFlags(f)
	f.StringP("subject", "s", "", "Quiz subject (prompted for when empty)")
	f.String("extractor", quiz.ExtractorBalanced, "How to find the JSON array in the model output (balanced, greedy)")
	addLogFlags(f)
	return cmd
}

func promptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt SUBJECT",
		Short: "Print the quiz generation prompt without calling the model",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPrompt,
	}
	f := cmd.Flags()
	addQuizFlags(f)
	addLogFlags(f)
	return cmd
}

func pingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the model endpoint is reachable and accepts the API key",
		Args:  cobra.NoArgs,
		RunE:  runPing,
	}
	f := cmd.Flags()
	addModelFlags(f)
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	addLogFlags(f)
	return cmd
}

func addModelFlags(f *pflag.FlagSet) {
	f.String("key-file", config.DefaultKeyFile, `JSON file holding the API key as {"key": "..."}`)
	f.String("api-key", "", "API key (overrides --key-file, or set QUIZGENE_API_KEY)")
	f.String("provider", string(llm.ProviderGemini), "Model backend (gemini, openai)")
	f.String("llm-url", "", "Base URL of the model API (empty = provider default)")
	f.String("llm-model", "", "Model name (empty = provider default)")
}

func addQuizFlags(f *pflag.FlagSet) {
	f.IntP("num-questions", "n", prompts.DefaultQuestions, "Number of questions to request")
	f.Int("num-options", prompts.DefaultOptions, "Number of options per question")
	if f.Lookup("lang") == nil {
		f.StringP("lang", "l", "en", "UI language (en, ru)")
	}
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	default:
		logHandler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZGENE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizgene")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizgene")
	v.AddConfigPath("/etc/quizgene")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// localize initializes the message bundle and returns a context carrying the
// localizer for the configured language.
func localize(ctx context.Context, v *viper.Viper) (context.Context, error) {
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return ctx, fmt.Errorf("init i18n: %w", err)
	}
	return appI18n.WithLang(ctx, lang), nil
}

func newBackend(ctx context.Context, v *viper.Viper) (llm.Backend, error) {
	key, err := config.ResolveAPIKey(v.GetString("api-key"), v.GetString("key-file"))
	if err != nil {
		return nil, err
	}
	return llm.New(ctx, llm.Config{
		Provider: llm.Provider(v.GetString("provider")),
		BaseURL:  v.GetString("llm-url"),
		APIKey:   key,
		Model:    v.GetString("llm-model"),
	})
}

// report prints a labeled diagnostic for the error kinds a user can act on.
func report(ctx context.Context, w io.Writer, err error) error {
	var cfgErr *config.Error
	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprintln(w, appI18n.Td(ctx, "ErrConfig", map[string]any{"Error": cfgErr}))
	case quiz.Diagnose(ctx, w, err):
	default:
		return err
	}
	return errReported
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, err := localize(cmd.Context(), v)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	backend, err := newBackend(ctx, v)
	if err != nil {
		return report(ctx, errOut, err)
	}

	extractor := strings.ToLower(strings.TrimSpace(v.GetString("extractor")))
	if !quiz.IsValidExtractor(extractor) {
		slog.Warn("invalid extractor, using balanced", "extractor", extractor)
		extractor = quiz.ExtractorBalanced
	}
	cfg := model.QuizConfig{
		NumQuestions: v.GetInt("num-questions"),
		NumOptions:   v.GetInt("num-options"),
		Extractor:    extractor,
	}
	p := quiz.NewPipeline(backend, cmd.InOrStdin(), out, cfg)

	fmt.Fprintln(out, appI18n.T(ctx, "Welcome"))
	subject := v.GetString("subject")
	if strings.TrimSpace(subject) == "" {
		subject, err = p.AskSubject(ctx)
		if err != nil {
			return report(ctx, errOut, err)
		}
	}

	slog.Info("starting quiz",
		"provider", v.GetString("provider"),
		"model", v.GetString("llm-model"),
		"num_questions", cfg.NumQuestions,
		"extractor", cfg.Extractor,
		"lang", v.GetString("lang"),
	)
	if _, err := p.Run(ctx, subject); err != nil {
		return report(ctx, errOut, err)
	}
	return nil
}

func runPrompt(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	prompt, err := prompts.BuildQuizPrompt(strings.Join(args, " "), v.GetInt("num-questions"), v.GetInt("num-options"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return err
}

func runPing(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, err := localize(cmd.Context(), v)
	if err != nil {
		return err
	}

	backend, err := newBackend(ctx, v)
	if err != nil {
		return report(ctx, cmd.ErrOrStderr(), err)
	}
	if err := backend.Ping(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}

	provider := llm.Provider(strings.ToLower(v.GetString("provider")))
	modelName := v.GetString("llm-model")
	if modelName == "" {
		modelName = llm.DefaultModel(provider)
	}
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(ctx, "PingOK", map[string]any{
		"Provider": provider,
		"Model":    modelName,
	}))
	return nil
}
