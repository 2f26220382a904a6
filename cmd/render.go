package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/sitelink-report/internal/domain"
)

const maxErrorWidth = 60

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func renderSummary(out io.Writer, summary *domain.RunSummary) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("Run %s -> %s", summary.RunID, summary.Destination))
	t.AppendHeader(table.Row{"Account ID", "Account", "Status", "Rows", "Header", "Notified", "Duration", "Error"})

	for _, r := range summary.Accounts {
		t.AppendRow(table.Row{
			r.Account.ID,
			r.Account.Name,
			r.Status,
			r.Rows,
			yesNo(r.HeaderWritten),
			yesNo(r.Notified),
			r.Duration.Round(time.Millisecond),
			r.ErrorText(),
		})
	}

	t.AppendFooter(table.Row{
		"", "Total", summary.Status(), summary.TotalRows(), "", "",
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond), "",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Rows", Align: text.AlignRight},
		{Name: "Error", WidthMax: maxErrorWidth},
	})
	t.Render()
}

func renderRows(out io.Writer, rows [][]any) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "Destination table is empty")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row(rows[0]))
	for _, row := range rows[1:] {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}

func renderAccounts(out io.Writer, accounts []domain.Account) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Account ID", "Name"})
	for _, a := range accounts {
		t.AppendRow(table.Row{a.ID, a.Name})
	}
	t.AppendFooter(table.Row{"Total", len(accounts)})
	t.Render()
}

func renderRuns(out io.Writer, runs []domain.RunRecord) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Run ID", "Started", "Finished", "Status", "Succeeded", "Failed", "Rows", "Destination"})
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(time.DateTime)
		}
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Format(time.DateTime),
			finished,
			r.Status,
			r.Succeeded,
			r.Failed,
			r.Rows,
			r.Destination,
		})
	}
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
