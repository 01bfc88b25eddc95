package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangawatch/internal/config"
)

var flagForceRemove bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective config and manage config profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{})
		if err != nil {
			return err
		}

		fmt.Printf("Loaded config from:\n  %s\n\n", a.used)
		a.cfg.Print(os.Stdout)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default profile and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.PathByLabel(config.DefaultLabel)

		fmt.Println("Default configuration:")
		config.DefaultConfig().Print(os.Stdout)
		fmt.Println()

		if !confirm(fmt.Sprintf("Create Default config at %s?", path)) {
			fmt.Println("Aborted.")
			return nil
		}

		path, err := config.InitDefaultConfig()
		if errors.Is(err, os.ErrExist) {
			fmt.Println("Configuration already exists at:", path)
			fmt.Println("Use `mangawatch config reset` to recreate it.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println("Config created at:", path)
		fmt.Println("This config is now active (label: Default).")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListConfigs()
		if err != nil {
			return err
		}

		t := newTable("Label", "Path", "Active")
		for _, p := range list {
			active := ""
			if p.Active {
				active = "yes"
			}
			t.Row(p.Label, p.Path, active)
		}
		printTable(t)

		return nil
	},
}

var configAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create a profile with default values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateConfig(args[0])
		if err != nil {
			return err
		}

		fmt.Println("Created new config:", path)
		return nil
	},
}

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch to a different config profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) == 1 {
			label = args[0]
		} else {
			list, err := config.ListConfigs()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return errors.New("no configs available, run `mangawatch config init`")
			}

			items := make([]string, len(list))
			for i, p := range list {
				items[i] = p.Label
				if p.Active {
					items[i] += "  (active)"
				}
			}

			idx, _, err := (&promptui.Select{Label: "Select config", Items: items}).Run()
			if err != nil {
				return errors.New("selection cancelled")
			}
			label = list[idx].Label
		}

		if err := config.SwitchConfig(label); err != nil {
			return err
		}

		fmt.Println("Switched to:", label)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Open the active or given profile in $EDITOR",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			var err error
			if label, err = config.CurrentLabel(); err != nil {
				return fmt.Errorf("failed to get current config label: %w", err)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		c := exec.CommandContext(cmd.Context(), editor, config.PathByLabel(label))
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr

		if err := c.Run(); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the active profile to default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ActiveConfigPath()
		if err != nil {
			return err
		}

		if err := config.SaveYAML(config.DefaultConfig(), path); err != nil {
			return err
		}

		fmt.Println("Reset active config:", path)
		return nil
	},
}

var configRenameCmd = &cobra.Command{
	Use:   "rename <old-label> <new-label>",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RenameConfig(args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("Renamed config %q to %q\n", args[0], args[1])
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]

		if active, _ := config.CurrentLabel(); active == label && !flagForceRemove {
			if !confirm(fmt.Sprintf("Config %q is currently active. Remove it anyway?", label)) {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := config.RemoveConfig(label); err != nil {
			return err
		}

		fmt.Printf("Removed config %q\n", label)
		return nil
	},
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)

	resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	resp = strings.ToLower(strings.TrimSpace(resp))

	return resp == "y" || resp == "yes"
}

func init() {
	configRemoveCmd.Flags().BoolVarP(&flagForceRemove, "force", "f", false, "do not ask before removing the active profile")

	configCmd.AddCommand(configInitCmd, configListCmd, configAddCmd, configSwitchCmd,
		configEditCmd, configResetCmd, configRenameCmd, configRemoveCmd)
	rootCmd.AddCommand(configCmd)
}
