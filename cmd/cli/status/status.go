package status

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/crucial707/birthday-service/cmd/cli/client"
	"github.com/crucial707/birthday-service/cmd/cli/config"
	"github.com/crucial707/birthday-service/cmd/cli/output"
	"github.com/crucial707/birthday-service/cmd/cli/root"
	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/spf13/cobra"
)

func init() {
	root.GetRoot().AddCommand(statusCmd())
}

func statusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last run and the day gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client.New(config.APIURL(), config.Token()).Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				out, _ := json.MarshalIndent(st, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, statusRows(st))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output raw JSON instead of a table")
	return cmd
}

func statusRows(st *birthday.Status) [][]interface{} {
	last := "never"
	if st.LastExecution != nil {
		last = st.LastExecution.Format(time.RFC3339)
	}
	outcome := string(st.LastOutcome)
	if outcome == "" {
		outcome = "-"
	}
	rows := [][]interface{}{
		{"Last execution", last},
		{"Target date", st.TargetDate},
		{"Running", strconv.FormatBool(st.Running)},
		{"Last outcome", outcome},
	}
	if st.LastError != "" {
		rows = append(rows, []interface{}{"Last error", st.LastError})
	}
	if r := st.LastReport; r != nil {
		rows = append(rows,
			[]interface{}{"Report date", birthday.FormatReportDate(r.TargetDate)},
			[]interface{}{"Total birthday users", r.Total()},
			[]interface{}{"Messages sent successfully", r.Succeeded},
			[]interface{}{"Messages failed", r.Failed},
			[]interface{}{"Duration", fmt.Sprintf("%ds", r.DurationSeconds())},
		)
	}
	return rows
}
