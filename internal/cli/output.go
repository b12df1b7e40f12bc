package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// emptyTable печатается вместо таблицы без строк.
const emptyTable = "No records found."

// Output печатает результаты команд: таблицей или JSON (--json).
// Данные идут в w, статусные сообщения в errW, чтобы
// `tenders-cli --json ... | jq` получал чистый JSON.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output поверх stdout и stderr процесса.
func NewOutput(jsonMode bool, stdout, stderr io.Writer) *Output {
	return &Output{jsonMode: jsonMode, w: stdout, errW: stderr}
}

// Print выводит rows под headers, а в JSON-режиме сам value.
func (o *Output) Print(headers []string, rows [][]string, value any) error {
	if o.jsonMode {
		return o.JSON(value)
	}
	return o.Table(headers, rows)
}

// Table выравнивает колонки через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(o.w, emptyTable)
		return err
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	writeRow(tw, headers)

	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	writeRow(tw, rule)

	for _, row := range rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

// JSON печатает value с отступом в два пробела.
func (o *Output) JSON(value any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// Success пишет статусное сообщение в errW (не в JSON-режиме).
func (o *Output) Success(msg string) {
	if o.jsonMode {
		return
	}
	fmt.Fprintln(o.errW, msg)
}
