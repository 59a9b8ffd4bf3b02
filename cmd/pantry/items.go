package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/pantry/internal/core/view"
)

var addCmd = &cobra.Command{
	Use:   "add NAME QUANTITY [DESCRIPTION]",
	Short: "Add stock; an existing item keeps its description",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("request-id")
		if err := app.inventory.AddItemOnce(cmd.Context(), key, args[0], args[1], optionalArg(args, 2)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", args[1], args[0])
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit NAME QUANTITY [DESCRIPTION]",
	Short: "Replace an item's quantity and description",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.inventory.EditItem(cmd.Context(), args[0], args[1], optionalArg(args, 2)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", args[0])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "rm NAME",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove an item",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.inventory.RemoveItem(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, filtered and sorted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		sortBy, _ := cmd.Flags().GetString("sort")
		dir, _ := cmd.Flags().GetString("dir")
		expand, _ := cmd.Flags().GetString("expand")
		output, _ := cmd.Flags().GetString("output")

		items, err := app.inventory.ListItems(cmd.Context())
		if err != nil {
			return err
		}
		rows := view.DeriveView(items, view.Query{
			Search:   search,
			Sort:     view.Sort{Field: view.ParseSortField(sortBy), Direction: view.ParseDirection(dir)},
			Expanded: expand,
		})
		return writeRows(cmd.OutOrStdout(), rows, output)
	},
}

func init() {
	addCmd.Flags().String("request-id", "", "idempotency key; a repeated key adds nothing")

	listCmd.Flags().String("search", "", "case-insensitive name filter")
	listCmd.Flags().String("sort", "name", "sort field: name or quantity")
	listCmd.Flags().String("dir", "asc", "sort direction: asc or desc")
	listCmd.Flags().String("expand", "", "item whose description is shown in full")
	listCmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func writeRows(w io.Writer, rows []view.Row, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("NAME", "QUANTITY", "DESCRIPTION")
		for _, r := range rows {
			t.Row(r.Name, strconv.Itoa(r.Quantity), r.Description)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
