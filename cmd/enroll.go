package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

var enrollExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

var enrollCmd = &cobra.Command{
	Use:   "enroll <dir>",
	Short: "Register every <student_id>.<ext> image in a directory",
	Long: `Register a whole class at once. Each image file in the directory is registered
under its file name without the extension, e.g. "S1001.jpg" becomes "S1001".

Faces are extracted concurrently and then written to the gallery in one update, in
file name order. Images that are rejected are listed in the output without aborting
the rest of the batch.`,
	Args: cobra.ArbitraryArgs,
	RunE: runEnroll,
}

func init() {
	enrollCmd.Flags().Int("concurrency", 4, "Number of images processed in parallel")
	enrollCmd.Flags().Bool("progress", true, "Show a progress bar on stderr")
	rootCmd.AddCommand(enrollCmd)
}

type enrollFailure struct {
	StudentID string `json:"student_id"`
	Message   string `json:"message"`
}

type enrollResponse struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Registered []string        `json:"registered"`
	Failed     []enrollFailure `json:"failed"`
}

func runEnroll(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageErrorf("Usage: face-attendance enroll <dir>")
	}
	concurrency := mustGetInt(cmd, "concurrency")
	showProgress := mustGetBool(cmd, "progress")

	a, err := newApp("enroll")
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	items, err := collectEnrollItems(args[0])
	if err != nil {
		return err
	}
	a.logger.Info("enrollment started", zap.String("dir", args[0]), zap.Int("images", len(items)))

	svc, closeFn, err := a.service()
	if err != nil {
		return err
	}
	defer closeFn()

	var progress func()
	if showProgress && len(items) > 0 {
		bar := progressbar.NewOptions(len(items),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Enrolling"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
		progress = func() { _ = bar.Add(1) }
		defer func() {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}()
	}

	report, err := svc.Enroll(cmd.Context(), items, concurrency, progress)
	if err != nil {
		a.logFailure(err)
		return err
	}

	resp := enrollResponse{
		Success:    len(report.Failed) == 0,
		Message:    fmt.Sprintf("Registered %d of %d images", len(report.Registered), len(items)),
		Registered: report.Registered,
		Failed:     make([]enrollFailure, 0, len(report.Failed)),
	}
	if resp.Registered == nil {
		resp.Registered = []string{}
	}
	for _, f := range report.Failed {
		resp.Failed = append(resp.Failed, enrollFailure{StudentID: f.Identifier, Message: f.Message})
	}
	emit(cmd, resp)
	return nil
}

// collectEnrollItems lists the image files of dir sorted by file name.
func collectEnrollItems(dir string) ([]facematch.EnrollItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read enrollment directory: %w", err)
	}

	var items []facematch.EnrollItem
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !enrollExtensions[ext] {
			continue
		}
		items = append(items, facematch.EnrollItem{
			Identifier: facematch.NormalizeIdentifier(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))),
			Path:       filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})
	return items, nil
}
