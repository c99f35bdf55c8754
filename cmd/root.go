package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/embedding"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/imageio"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

const rootUsage = "Usage: face-attendance <method> <image_path> [student_id]"

var (
	galleryPath   string
	extractorName string
	logLevel      string
)

// newExtractor is swapped out in tests.
var newExtractor = embedding.New

// helpRequested is set when -h/--help was answered with a usage failure.
var helpRequested bool

var rootCmd = &cobra.Command{
	Use:   "face-attendance <method> <image_path> [student_id]",
	Short: "Register and recognize faces for attendance",
	Long: `Face Attendance registers faces under a student ID and recognizes them
later from a single photo. Known faces are kept in a local gallery file.

Every invocation prints exactly one JSON object to stdout. Diagnostics go to stderr.

Methods:
  register  <image_path> <student_id>
  recognize <image_path>`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

// Execute runs the CLI and exits with its exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run executes the command tree against args and returns the process exit code.
// Any error surfacing here is written as a failure object and exits 1.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	helpRequested = false
	resetHelpFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		writeJSON(stdout, messageResponse{Success: false, Message: err.Error()})
		return 1
	}
	if helpRequested {
		return 1
	}
	return 0
}

// helpCmd replaces cobra's help command so that "help" is treated like any
// other unknown method.
var helpCmd = &cobra.Command{
	Use:    "help",
	Hidden: true,
	Args:   cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoot(cmd, append([]string{cmd.Name()}, args...))
	},
}

// resetHelpFlags clears -h/--help left set by an earlier run in the same process.
func resetHelpFlags(cmd *cobra.Command) {
	if f := cmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	for _, sub := range cmd.Commands() {
		resetHelpFlags(sub)
	}
}

// usageHelp answers -h/--help with the usage line as a failure object.
func usageHelp(cmd *cobra.Command, _ []string) {
	helpRequested = true
	emit(cmd, messageResponse{Success: false, Message: rootUsage})
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.SetHelpFunc(usageHelp)
	rootCmd.PersistentFlags().StringVar(&galleryPath, "gallery", "", "Gallery file (overrides GALLERY_PATH)")
	rootCmd.PersistentFlags().StringVar(&extractorName, "extractor", "", "Face extractor backend: dlib or http (overrides FACE_EXTRACTOR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// runRoot handles the positional "<method> <image_path>" form for methods that
// have no subcommand. The image is still validated first so that a missing or
// unreadable file is reported before the unknown method.
func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return usageErrorf(rootUsage)
	}

	a, err := newApp("root")
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	if _, err := a.loadImage(args[1]); err != nil {
		return err
	}
	return usageErrorf("Unknown method: %s", args[0])
}

// usageError is a bad command line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app carries what every command needs for one invocation.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	invocationID string
}

func newApp(operation string) (*app, error) {
	cfg := config.Load()
	if galleryPath != "" {
		cfg.Gallery.Path = galleryPath
	}
	if extractorName != "" {
		cfg.Extractor.Backend = extractorName
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	invocationID := uuid.NewString()
	return &app{
		cfg:          cfg,
		logger:       logging.WithOperation(logger, operation, invocationID),
		invocationID: invocationID,
	}, nil
}

func (a *app) loadImage(path string) (*imageio.Image, error) {
	img, err := imageio.Load(path, a.cfg.Image.MaxDim)
	if err != nil {
		a.logger.Warn("image rejected", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	a.logger.Debug("image loaded",
		zap.String("path", path),
		zap.String("format", img.Format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))
	return img, nil
}

// store opens the gallery store tagged with the configured backend's model.
func (a *app) store() (*gallery.Store, error) {
	profile, ok := a.cfg.Profile()
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", embedding.ErrUnavailable, a.cfg.Extractor.Backend)
	}
	return gallery.NewStore(a.cfg.Gallery.Path, profile.Model, a.cfg.Gallery.LockTimeout), nil
}

// service builds the extractor and the policy service. The returned func releases the extractor.
func (a *app) service() (*facematch.Service, func(), error) {
	store, err := a.store()
	if err != nil {
		return nil, nil, err
	}

	ext, err := newExtractor(a.cfg, a.logger)
	if err != nil {
		wrapped := logging.NewOperationError("embedding.open", a.invocationID, err)
		a.logger.Error("failed to open face extractor", zap.Error(wrapped))
		return nil, nil, wrapped
	}

	svc := facematch.NewService(facematch.ServiceConfig{
		Extractor: ext,
		Store:     store,
		Matcher: facematch.Matcher{
			Metric:             ext.Metric(),
			RegisterTolerance:  a.cfg.RegisterTolerance(),
			RecognizeTolerance: a.cfg.RecognizeTolerance(),
		},
		MaxDim:       a.cfg.Image.MaxDim,
		Logger:       a.logger,
		InvocationID: a.invocationID,
	})

	closeFn := func() {
		if err := ext.Close(); err != nil {
			a.logger.Warn("failed to close face extractor", zap.Error(err))
		}
	}
	return svc, closeFn, nil
}

// logFailure records an error that is about to become the invocation's result.
func (a *app) logFailure(err error) {
	var storageErr *gallery.StorageError
	switch {
	case errors.As(err, &storageErr):
		a.logger.Error("gallery storage failed", zap.String("op", storageErr.Op), zap.Error(err))
	default:
		a.logger.Error("invocation failed", zap.Error(err))
	}
}
