package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zombor/receipt-chat/internal/benchmark"
	"github.com/zombor/receipt-chat/internal/chat"
	"github.com/zombor/receipt-chat/internal/receipt"
	"github.com/zombor/receipt-chat/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// rootConfig holds the flags shared by every subcommand
type rootConfig struct {
	scannerType *string
	geminiKey   *string
	geminiModel *string
	ollamaURL   *string
	ollamaModel *string
	intents     *string
	verbose     *bool

	logger *zap.Logger
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code
func run(args []string) int {
	// Check for version flag before parsing other flags
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			return 0
		}
	}

	// A missing .env is fine; anything else is worth reporting
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		return 1
	}

	rootFlags := ff.NewFlagSet("receipt-chat")
	cfg := &rootConfig{
		scannerType: rootFlags.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'"),
		geminiKey:   rootFlags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel: rootFlags.StringLong("gemini-model", scanning.DefaultGeminiModel, "Google Gemini model name"),
		ollamaURL:   rootFlags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL"),
		ollamaModel: rootFlags.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)"),
		intents:     rootFlags.StringLong("intents", "", "YAML file overriding intent keywords and priority (optional)"),
		verbose:     rootFlags.BoolLong("verbose", "Development logging at debug level"),
	}

	root := &ff.Command{
		Name:        "receipt-chat",
		Usage:       "receipt-chat [FLAGS] <SUBCOMMAND>",
		ShortHelp:   "answer questions about a scanned receipt",
		Flags:       rootFlags,
		Subcommands: []*ff.Command{serveCommand(cfg, rootFlags), chatCommand(cfg, rootFlags), askCommand(cfg, rootFlags), benchmarkCommand(cfg, rootFlags)},
	}

	err := root.Parse(args, ff.WithEnvVarPrefix("RECEIPT_CHAT"))
	if errors.Is(err, ff.ErrHelp) {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	cfg.logger, err = newLogger(*cfg.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating logger: %v\n", err)
		return 1
	}
	defer cfg.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx); err != nil {
		switch {
		case errors.Is(err, ff.ErrNoExec):
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root))
		case errors.Is(err, chat.ErrScan):
			// Scan failures are shown the way the chat loop reports them
			fmt.Fprintln(os.Stderr, chat.ScanErrorMessage(err))
		default:
			cfg.logger.Error("Command failed", zap.Error(err))
		}
		return 1
	}
	return 0
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newScanner initializes the configured scanner
func (c *rootConfig) newScanner() (scanning.Scanner, error) {
	switch *c.scannerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *c.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		c.logger.Info("Initializing Gemini scanner", zap.String("model", *c.geminiModel))
		return scanning.NewGemini(apiKey, *c.geminiModel)
	case "ollama":
		c.logger.Info("Initializing Ollama scanner", zap.String("url", *c.ollamaURL), zap.String("model", *c.ollamaModel))
		return scanning.NewOllama(*c.ollamaURL, *c.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid scanner type %q: want gemini or ollama", *c.scannerType)
	}
}

// newEngine builds the query engine, applying --intents when set
func (c *rootConfig) newEngine() (*receipt.Engine, error) {
	if *c.intents == "" {
		return receipt.NewEngine(nil), nil
	}
	rules, err := receipt.LoadRules(*c.intents)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Loaded intent rules", zap.String("path", *c.intents), zap.Int("intents", len(rules)))
	return receipt.NewEngine(rules), nil
}

// newService wires a chat service. A scanner is only created when scan is
// set; the returned func releases it.
func (c *rootConfig) newService(storagePath string, scan bool) (*chat.Service, func(), error) {
	var scanner scanning.Scanner
	closeScanner := func() {}
	if scan {
		var err error
		scanner, err = c.newScanner()
		if err != nil {
			return nil, nil, err
		}
		closeScanner = func() { scanner.Close() }
	}
	engine, err := c.newEngine()
	if err != nil {
		closeScanner()
		return nil, nil, err
	}
	store, err := chat.NewLocalStorage(storagePath)
	if err != nil {
		closeScanner()
		return nil, nil, err
	}
	return chat.NewService(scanner, store, engine, c.logger), closeScanner, nil
}

// openSession loads a receipt from an image, or from already extracted text
func openSession(service *chat.Service, imagePath, textPath string) (*chat.Session, error) {
	if textPath != "" {
		data, err := os.ReadFile(textPath)
		if err != nil {
			return nil, fmt.Errorf("reading receipt text: %w", err)
		}
		return service.ProcessText(string(data)), nil
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading receipt image: %w", err)
	}
	return service.ProcessReceipt(imagePath, data, scanning.ContentTypeFromFilename(imagePath))
}

func serveCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		storagePath = fs.StringLong("storage", "./uploads", "Upload storage directory path")
		dbPath      = fs.StringLong("db", "receipt-chat.db", "Benchmark run database file path")
		groundTruth = fs.StringLong("ground-truth", "", "Ground truth JSON file; enables the benchmark endpoints")
		dataDir     = fs.StringLong("data", "data", "Directory holding benchmark images")
		uploadRate  = fs.Float64Long("upload-rate", 0, "Maximum receipt uploads per second (0 disables)")
		uploadBurst = fs.IntLong("upload-burst", 5, "Uploads allowed in a burst")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
	)
	return &ff.Command{
		Name:      "serve",
		Usage:     "receipt-chat serve [FLAGS]",
		ShortHelp: "run the HTTP chat API",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			scanner, err := cfg.newScanner()
			if err != nil {
				return err
			}
			defer scanner.Close()
			engine, err := cfg.newEngine()
			if err != nil {
				return err
			}
			store, err := chat.NewLocalStorage(*storagePath)
			if err != nil {
				return err
			}
			service := chat.NewService(scanner, store, engine, cfg.logger)

			opts := chat.Options{
				BasicAuth:   chat.BasicAuth{Username: *authUser, Password: *authPass},
				UploadRate:  rate.Limit(*uploadRate),
				UploadBurst: *uploadBurst,
				Logger:      cfg.logger,
			}
			if *groundTruth != "" {
				cfg.logger.Info("Initializing database", zap.String("path", *dbPath))
				db, err := benchmark.NewBoltDB(*dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				opts.Benchmarks = benchmark.NewRunner(scanner, benchmark.Dir(*dataDir), db, *groundTruth, cfg.logger)
			}

			server := chat.NewServer(service, opts)
			addr := fmt.Sprintf(":%d", *port)
			cfg.logger.Info("Server starting", zap.String("address", fmt.Sprintf("http://localhost%s", addr)))
			if *authUser != "" || *authPass != "" {
				cfg.logger.Info("Basic auth enabled", zap.String("user", *authUser))
			}
			return server.Start(ctx, addr)
		},
	}
}

func chatCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("chat").SetParent(parent)
	var (
		imagePath   = fs.StringLong("image", "data/receipt_image.jfif", "Receipt image to scan")
		textPath    = fs.StringLong("text", "", "Use already extracted receipt text instead of scanning an image")
		storagePath = fs.StringLong("storage", os.TempDir(), "Upload storage directory path")
	)
	return &ff.Command{
		Name:      "chat",
		Usage:     "receipt-chat chat [FLAGS]",
		ShortHelp: "chat about one receipt in the terminal",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			service, release, err := cfg.newService(*storagePath, *textPath == "")
			if err != nil {
				return err
			}
			defer release()

			session, err := openSession(service, *imagePath, *textPath)
			if err != nil {
				return err
			}
			defer service.DeleteSession(session.ID)
			return chat.RunREPL(os.Stdin, os.Stdout, service, session.ID)
		},
	}
}

func askCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("ask").SetParent(parent)
	var (
		imagePath   = fs.StringLong("image", "data/receipt_image.jfif", "Receipt image to scan")
		textPath    = fs.StringLong("text", "", "Use already extracted receipt text instead of scanning an image")
		storagePath = fs.StringLong("storage", os.TempDir(), "Upload storage directory path")
		showRecord  = fs.BoolLong("show-record", "Print the extracted receipt fields first")
	)
	return &ff.Command{
		Name:      "ask",
		Usage:     "receipt-chat ask [FLAGS] <QUESTION>...",
		ShortHelp: "answer one question about a receipt",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return errors.New("a question is required")
			}
			service, release, err := cfg.newService(*storagePath, *textPath == "")
			if err != nil {
				return err
			}
			defer release()

			session, err := openSession(service, *imagePath, *textPath)
			if err != nil {
				return err
			}
			defer service.DeleteSession(session.ID)

			if *showRecord {
				data, err := session.Receipt.MarshalJSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			}
			answer, err := service.Ask(session.ID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
}

func benchmarkCommand(cfg *rootConfig, parent *ff.FlagSet) *ff.Command {
	fs := ff.NewFlagSet("benchmark").SetParent(parent)
	var (
		groundTruth = fs.StringLong("ground-truth", "ground_truths.json", "Ground truth JSON file")
		dataDir     = fs.StringLong("data", "data", "Directory holding benchmark images")
		dbPath      = fs.StringLong("db", "", "Database file to record the run in (optional)")
	)
	return &ff.Command{
		Name:      "benchmark",
		Usage:     "receipt-chat benchmark [FLAGS]",
		ShortHelp: "measure extraction accuracy against labeled receipts",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			scanner, err := cfg.newScanner()
			if err != nil {
				return err
			}
			defer scanner.Close()

			var db benchmark.DB
			if *dbPath != "" {
				bolt, err := benchmark.NewBoltDB(*dbPath)
				if err != nil {
					return err
				}
				defer bolt.Close()
				db = bolt
			}

			run, err := benchmark.NewRunner(scanner, benchmark.Dir(*dataDir), db, *groundTruth, cfg.logger).Run()
			if err != nil {
				return err
			}
			return benchmark.WriteReport(os.Stdout, run)
		},
	}
}
