package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmlet/wasmlet/internal/plugin"
)

func pluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage tool plugins",
		Long: `Manage external tool plugins.

Plugins are Go modules installed as standalone binaries into
~/.wasmlet/plugins and tracked in a manifest there.`,
	}

	cmd.AddCommand(
		pluginListCmd(),
		pluginInstallCmd(),
		pluginUninstallCmd(),
		pluginUpdateCmd(),
		pluginEnableCmd(),
		pluginInfoCmd(),
	)

	return cmd
}

func newManager() (*plugin.Manager, error) {
	dir, err := plugin.DefaultDir()
	if err != nil {
		return nil, err
	}
	return plugin.NewManager(dir, nil)
}

func pluginListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			plugins, err := m.List()
			if err != nil {
				return err
			}
			if len(plugins) == 0 {
				info("No plugins installed")
				return nil
			}
			for _, p := range plugins {
				info("%s", plugin.Describe(p))
			}
			return nil
		},
	}
}

func pluginInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <module>[@version]",
		Short: "Install a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			info("Installing %s...", args[0])
			desc, err := m.Install(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			success("Installed %s %s", desc.Name, desc.Version)
			return nil
		},
	}
}

func pluginUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Uninstall a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Uninstall(args[0]); err != nil {
				return err
			}
			success("Uninstalled %s", args[0])
			return nil
		},
	}
}

func pluginUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <name>",
		Short: "Update a plugin to latest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			info("Updating %s...", args[0])
			desc, err := m.Update(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			success("Updated %s to %s", desc.Name, desc.Version)
			return nil
		},
	}
}

func pluginEnableCmd() *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable or disable a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.SetEnabled(args[0], !disable); err != nil {
				return err
			}
			if disable {
				success("Disabled %s", args[0])
			} else {
				success("Enabled %s", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&disable, "disable", false, "Disable instead of enable")
	return cmd
}

func pluginInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show plugin details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			desc, err := m.Find(args[0])
			if err != nil {
				return err
			}
			fmt.Println()
			info("Name:      %s", desc.Name)
			info("Module:    %s", desc.Module)
			info("Version:   %s", desc.Version)
			info("Enabled:   %v", desc.Enabled)
			info("Binary:    %s", desc.Binary)
			info("Installed: %s", desc.InstalledAt.Format("2006-01-02 15:04:05"))
			if !desc.UpdatedAt.IsZero() {
				info("Updated:   %s", desc.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
