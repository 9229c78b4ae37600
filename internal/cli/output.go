package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Table — табличное представление результата команды.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Output печатает результат команды: таблицу или JSON (--json).
// Данные идут в stdout, сообщения о выполненном действии — в stderr.
type Output struct {
	jsonMode bool
	stdout   io.Writer
	stderr   io.Writer
}

// NewOutput создаёт Output поверх os.Stdout и os.Stderr.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными writer'ами (для тестов).
func NewOutputTo(jsonMode bool, stdout, stderr io.Writer) *Output {
	return &Output{jsonMode: jsonMode, stdout: stdout, stderr: stderr}
}

// Print печатает t, а в режиме --json — v.
func (o *Output) Print(t Table, v any) {
	if o.jsonMode {
		o.writeJSON(v)
		return
	}
	o.writeTable(t)
}

func (o *Output) writeTable(t Table) {
	tw := tabwriter.NewWriter(o.stdout, 0, 4, 3, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func (o *Output) writeJSON(v any) {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(o.stderr, "encode output:", err)
	}
}

// Notify печатает сообщение о выполненном действии.
func (o *Output) Notify(format string, args ...any) {
	fmt.Fprintf(o.stderr, format+"\n", args...)
}

// truncate укорачивает строку для ячейки таблицы и склеивает её в одну строку.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
