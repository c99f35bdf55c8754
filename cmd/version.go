package cmd

import (
	"github.com/spf13/cobra"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

type versionResponse struct {
	Success bool   `json:"success"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		emit(cmd, versionResponse{
			Success: true,
			Version: Version,
			Commit:  CommitSHA,
			Built:   BuildDate,
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
