package console

import (
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/km-arc/go-svcs/framework/container"
)

// PrintHealth renders report as a table, one row per service, sorted by
// identity.
func PrintHealth(w io.Writer, report container.Report) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()
	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	rows := report.Strings()
	names := make([]string, 0, len(rows))
	for name := range rows {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := table.New("SERVICE", "STATUS", "ERROR")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt).WithWriter(w)
	for _, name := range names {
		st := rows[name]
		if st.OK {
			tbl.AddRow(name, ok("ok"), "")
			continue
		}
		tbl.AddRow(name, failed("failed"), st.Error)
	}
	tbl.Print()
}
