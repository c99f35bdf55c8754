package cmd

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// messageResponse is the {success, message} shape used for failures and registrations.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// matchResponse is a successful recognition.
type matchResponse struct {
	Success    bool    `json:"success"`
	StudentID  string  `json:"student_id"`
	Confidence float64 `json:"confidence"`
}

// internalErrorLine replaces a payload that cannot be encoded, so stdout
// always carries one object.
const internalErrorLine = `{"success":false,"message":"internal error"}` + "\n"

// writeJSON writes v as a single line.
func writeJSON(w io.Writer, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_, _ = io.WriteString(w, internalErrorLine)
		return
	}
	_, _ = w.Write(buf.Bytes())
}

func emit(cmd *cobra.Command, v any) {
	writeJSON(cmd.OutOrStdout(), v)
}
