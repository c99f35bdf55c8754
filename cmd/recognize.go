package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image_path>",
	Short: "Find the registered student whose face is in an image",
	Long: `Recognize the single face found in the image against the gallery.

A match prints the student ID with a confidence in [0, 1]. A face that matches nobody
prints {"success": false, "message": "No match found"} and still exits 0.
Arguments after the image path are ignored.`,
	Args: cobra.ArbitraryArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return usageErrorf(rootUsage)
	}

	a, err := newApp("recognize")
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	img, err := a.loadImage(args[0])
	if err != nil {
		return err
	}

	svc, closeFn, err := a.service()
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.Recognize(cmd.Context(), img.JPEG)
	if err != nil {
		if facematch.IsRejection(err) {
			emit(cmd, messageResponse{Success: false, Message: err.Error()})
			return nil
		}
		a.logFailure(err)
		return err
	}

	switch result.Kind {
	case facematch.KindMatch:
		emit(cmd, matchResponse{Success: true, StudentID: result.Identifier, Confidence: result.Confidence})
	case facematch.KindNoMatch:
		emit(cmd, messageResponse{Success: false, Message: result.Reason})
	default:
		return fmt.Errorf("recognition failed: %w", result.Err)
	}
	return nil
}
