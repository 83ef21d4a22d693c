package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonyforge/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI preferences",
		Long: `Manage saved CLI preferences (default player).

Examples:
  colony config set-player 1
  colony config show
  colony config clear`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetPlayerCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return err
			}
			userCfg, err := handler.Load()
			if err != nil {
				return err
			}

			fmt.Println("Config file:", handler.GetConfigPath())
			if userCfg.DefaultPlayerID != nil {
				fmt.Println("Default player:", *userCfg.DefaultPlayerID)
			} else {
				fmt.Println("Default player: (not set)")
			}
			if userCfg.DefaultProfile != "" {
				fmt.Println("Default profile:", userCfg.DefaultProfile)
			}
			return nil
		},
	}
}

func newConfigSetPlayerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-player <player-id>",
		Short: "Save the default player ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid player id: %s", args[0])
			}

			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return err
			}
			if err := handler.SetDefaultPlayer(id); err != nil {
				return err
			}
			fmt.Println("Default player set to", id)
			return nil
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return err
			}
			if err := handler.ClearDefaultPlayer(); err != nil {
				return err
			}
			fmt.Println("Preferences cleared")
			return nil
		},
	}
}
