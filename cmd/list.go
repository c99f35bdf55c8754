package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/gallery"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered student IDs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type listResponse struct {
	Success    bool     `json:"success"`
	Count      int      `json:"count"`
	Model      string   `json:"model"`
	StudentIDs []string `json:"student_ids"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp("list")
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	store, err := a.store()
	if err != nil {
		return err
	}

	var resp listResponse
	err = store.View(cmd.Context(), func(g *gallery.Gallery) error {
		resp = listResponse{
			Success:    true,
			Count:      g.Len(),
			Model:      g.Model,
			StudentIDs: g.Identifiers(),
		}
		return nil
	})
	if err != nil {
		a.logFailure(err)
		return err
	}
	if resp.StudentIDs == nil {
		resp.StudentIDs = []string{}
	}

	emit(cmd, resp)
	return nil
}
