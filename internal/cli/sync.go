package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSyncCmd создаёт группу команд для синхронизации.
func NewSyncCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run tender sync and inspect its log",
	}

	cmd.AddCommand(
		newSyncRunCmd(clientFn, outputFn),
		newSyncLogsCmd(clientFn, outputFn),
	)

	return cmd
}

func newSyncRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		pageSize int
		category int
		activity int
		area     int
		fields   []string
		pages    int
		async    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync tenders from the external API into the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := SyncRequest{Fields: fields, Pages: pages}
			if cmd.Flags().Changed("page-size") {
				req.PageSize = &pageSize
			}
			if cmd.Flags().Changed("category") {
				req.TenderCategory = &category
			}
			if cmd.Flags().Changed("activity") {
				req.TenderActivityID = &activity
			}
			if cmd.Flags().Changed("area") {
				req.TenderAreasID = &area
			}

			if async {
				accepted, err := client.EnqueueSync(req)
				if err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Sync queued: %s", accepted.SyncID))
				return out.Print(
					[]string{"SYNC_ID", "STATUS"},
					[][]string{{accepted.SyncID, accepted.Status}},
					accepted,
				)
			}

			result, err := client.RunSync(req)
			if err != nil {
				return err
			}

			headers := []string{"SUCCESS", "TOTAL", "ADDED", "UPDATED", "FAILED", "DUPLICATES", "MESSAGE"}
			row := []string{strconv.FormatBool(result.Success), "-", "-", "-", "-", "-", result.Message}
			if s := result.Stats; s != nil {
				row = []string{
					strconv.FormatBool(result.Success),
					strconv.Itoa(s.Total),
					strconv.Itoa(s.Added),
					strconv.Itoa(s.Updated),
					strconv.Itoa(s.Failed),
					strconv.Itoa(s.Duplicates),
					result.Message,
				}
			}
			if err := out.Print(headers, [][]string{row}, result); err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Records per page (default 50)")
	cmd.Flags().IntVar(&category, "category", 0, "Tender category")
	cmd.Flags().IntVar(&activity, "activity", 0, "Tender activity ID")
	cmd.Flags().IntVar(&area, "area", 0, "Tender area ID")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Fields to request (comma-separated)")
	cmd.Flags().IntVar(&pages, "pages", 0, "Number of pages to traverse (default 1)")
	cmd.Flags().BoolVar(&async, "async", false, "Enqueue the sync instead of waiting for it")

	return cmd
}

func newSyncLogsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent sync log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			logs, err := client.ListSyncLogs(limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "SYNC_TIME", "TOTAL", "NEW"}
			rows := make([][]string, len(logs))
			for i, l := range logs {
				rows[i] = []string{
					strconv.FormatInt(l.ID, 10),
					l.SyncTime,
					strconv.Itoa(l.TotalTenders),
					strconv.Itoa(l.NewTendersCount),
				}
			}

			return out.Print(headers, rows, logs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries (default 20)")

	return cmd
}
