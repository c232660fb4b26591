package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/deixis/strata/internal/cloud"
)

// stacksTable renders a stack listing for the terminal.
func stacksTable(stacks []cloud.Stack) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Name", "Path", "Repository", "Status", "Updated"})

	for _, s := range stacks {
		updated := ""
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{s.StackID, s.MetaName, s.Path, s.Repository, s.Status, updated})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
