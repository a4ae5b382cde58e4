package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bloomcare/checkin/internal/catalog"
	"github.com/bloomcare/checkin/internal/classifier"
	"github.com/bloomcare/checkin/internal/conversation"
	"github.com/bloomcare/checkin/internal/empathy"
	"github.com/bloomcare/checkin/internal/genai"
	"github.com/bloomcare/checkin/internal/lockfile"
	"github.com/bloomcare/checkin/internal/store"
	"github.com/bloomcare/checkin/internal/submit"
	"github.com/bloomcare/checkin/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for check-in state data
	DefaultStateDir = "/var/lib/checkin"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "checkin.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	// Only one process may drive sessions against a state directory.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	userID := *flags.userID
	if userID == "" {
		userID = util.GenerateUserID()
		slog.Info("No user ID provided, generated one", "userID", userID)
	}

	cls, emp := buildDialogueComponents(flags)

	var opts []conversation.Option
	if *flags.submitURL != "" {
		opts = append(opts, conversation.WithSubmitter(submit.NewClient(*flags.submitURL)))
	}

	orch, err := conversation.NewOrchestrator(userID, catalog.Default(),
		classifier.NewCachedClassifier(cls, st, userID),
		emp, st, conversation.Callbacks{
			OnQuestionReady: func(text string) { fmt.Println(text) },
		}, opts...)
	if err != nil {
		slog.Error("Failed to create orchestrator", "error", err)
		os.Exit(1)
	}
	defer orch.Close()

	runDialogue(orch)
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	SubmitURL   string
	UserID      string
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	openaiKey *string
	submitURL *string
	userID    *string
}

// initializeLogger sets up structured logging. Debug level is opt-in via
// CHECKIN_DEBUG.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("CHECKIN_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("CHECKIN_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		SubmitURL:   os.Getenv("CHECKIN_SUBMIT_URL"),
		UserID:      os.Getenv("CHECKIN_USER_ID"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CHECKIN_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CHECKIN_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"CHECKIN_SUBMIT_URL_SET", config.SubmitURL != "",
		"CHECKIN_USER_ID_SET", config.UserID != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for check-in data (overrides $CHECKIN_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseURL, "database DSN; postgres:// selects Postgres, otherwise SQLite path (overrides $DATABASE_URL)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		submitURL: flag.String("submit-url", config.SubmitURL, "endpoint URL for response submission (overrides $CHECKIN_SUBMIT_URL)"),
		userID:    flag.String("user-id", config.UserID, "user ID for this session (overrides $CHECKIN_USER_ID)"),
	}
	flag.Parse()
	return flags
}

// openStore selects the persistence backend: Postgres when the DSN looks like
// a postgres URL, SQLite in the state directory otherwise.
func openStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		slog.Info("Using Postgres store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", dsn)
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildDialogueComponents wires the classifier chain and the empathy engine.
// Without an OpenAI key both fall back to their deterministic behavior.
func buildDialogueComponents(flags Flags) (classifier.Classifier, *empathy.Engine) {
	if *flags.openaiKey == "" {
		slog.Info("No OpenAI API key configured, using regex classification and template empathy")
		return classifier.NewRegexClassifier(), empathy.NewEngine(nil)
	}
	client := genai.NewClientWithKey(*flags.openaiKey)
	return classifier.NewAIClassifier(client), empathy.NewEngine(client)
}

// runDialogue drives a line-oriented conversation on stdin/stdout until the
// questionnaire completes or the process is interrupted.
func runDialogue(orch *conversation.Orchestrator) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if orch.Completed() {
		fmt.Println("You have already completed this check-in. Thank you!")
		return
	}

	if err := orch.Start(ctx); err != nil {
		slog.Error("Failed to start session", "error", err)
		os.Exit(1)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if orch.Completed() {
			return
		}
		if orch.Paused() {
			fmt.Println("(Session paused. Press enter to resume, or Ctrl-C to exit.)")
			if !scanner.Scan() {
				return
			}
			if err := orch.Resume(ctx); err != nil {
				slog.Error("Failed to resume session", "error", err)
				return
			}
			continue
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		handled, err := orch.HandleResponse(ctx, text)
		if err != nil {
			slog.Error("Failed to handle response", "error", err)
			return
		}
		if !handled {
			slog.Debug("Utterance ignored, no active session")
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
