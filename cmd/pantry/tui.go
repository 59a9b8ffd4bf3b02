package main

import (
	"github.com/spf13/cobra"

	"github.com/rl1809/pantry/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and edit the inventory interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(cmd.Context(), app.inventory)
	},
}
