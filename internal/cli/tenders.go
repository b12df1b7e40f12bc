package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTendersCmd создаёт группу команд для просмотра индекса.
func NewTendersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenders",
		Short: "Inspect indexed tenders",
	}

	cmd.AddCommand(
		newTendersStatsCmd(clientFn, outputFn),
		newTendersRecentCmd(clientFn, outputFn),
	)

	return cmd
}

func newTendersStatsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index totals and status/category breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			stats, err := client.Stats()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"total", "", strconv.FormatInt(stats.TotalTenders, 10)},
				{"new_today", "", strconv.FormatInt(stats.NewTodayCount, 10)},
			}
			rows = append(rows, bucketRows("status", stats.ByStatus)...)
			rows = append(rows, bucketRows("category", stats.ByCategory)...)

			return out.Print([]string{"METRIC", "KEY", "COUNT"}, rows, stats)
		},
	}
}

func newTendersRecentCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show most recently added tenders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tenders, err := client.RecentTenders(limit)
			if err != nil {
				return err
			}

			headers := []string{"DOCUMENT_ID", "NAME", "AGENCY", "ADDED"}
			rows := make([][]string, len(tenders))
			for i, t := range tenders {
				rows[i] = []string{t.str("documentId"), t.str("tenderName"), t.str("agencyName"), t.str("added_date")}
			}

			return out.Print(headers, rows, tenders)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of tenders (default 4, max 100)")

	return cmd
}

// bucketRows сортирует корзины агрегации по убыванию количества.
func bucketRows(metric string, buckets map[string]int64) [][]string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if buckets[keys[i]] != buckets[keys[j]] {
			return buckets[keys[i]] > buckets[keys[j]]
		}
		return keys[i] < keys[j]
	})

	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{metric, k, strconv.FormatInt(buckets[k], 10)}
	}
	return rows
}

func (t Tender) str(key string) string {
	v, ok := t[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
