package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

const missingIdentifierMessage = "Student ID is required for registration"

var registerCmd = &cobra.Command{
	Use:   "register <image_path> <student_id>",
	Short: "Register the face in an image under a student ID",
	Long: `Register the single face found in the image under the given student ID.

The image is rejected when it contains no face or more than one face, when the face
is already registered under any ID, or when the student ID is already taken.

A student ID starting with "-" must follow "--", e.g. register photo.jpg -- -S1.
Arguments after the student ID are ignored.`,
	Args: cobra.ArbitraryArgs,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return usageErrorf(rootUsage)
	}

	a, err := newApp("register")
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	img, err := a.loadImage(args[0])
	if err != nil {
		return err
	}

	var identifier string
	if len(args) >= 2 {
		identifier = facematch.NormalizeIdentifier(args[1])
	}
	if identifier == "" {
		return usageErrorf(missingIdentifierMessage)
	}

	svc, closeFn, err := a.service()
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := svc.Register(cmd.Context(), img.JPEG, identifier); err != nil {
		if facematch.IsRejection(err) {
			emit(cmd, messageResponse{Success: false, Message: err.Error()})
			return nil
		}
		a.logFailure(err)
		return err
	}

	emit(cmd, messageResponse{Success: true, Message: "Registration successful"})
	return nil
}
