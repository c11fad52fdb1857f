package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/pwvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pwvault/internal/adapter/driving/cli"
	"github.com/ericfisherdev/pwvault/internal/domain/model"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pwvault",
		Short:         "Password Wallet shell",
		Long:          "pwvault keeps named passwords in a local encrypted SQLite vault.\nR1, R2, R3 in find are regular expressions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAddCmd(),
		newDeleteCmd(),
		newUpdateCmd(),
		newFindCmd(),
		newExportCmd(),
		newImportCmd(),
		newInfoCmd(),
	)
	return root
}

// runShell opens the vault, lets build produce the command and runs it.
func runShell(cmd *cobra.Command, build func(a *app) (cli.Command, error)) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := build(a)
	if err != nil {
		return err
	}
	return a.shell.Run(cmd.Context(), c)
}

func newAddCmd() *cobra.Command {
	var in model.AddInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add new password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, func(a *app) (cli.Command, error) {
				if strings.TrimSpace(in.Secret) == "" {
					secret, err := cli.PromptNewSecret(a.prompter, "Enter password:", false)
					if err != nil {
						return nil, err
					}
					in.Secret = secret
				}
				return cli.AddCommand{Input: in}, nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "record name (default Guest)")
	cmd.Flags().StringVar(&in.Site, "site", "", "record site (default Default)")
	cmd.Flags().StringVar(&in.Desc, "desc", "", "description")
	cmd.Flags().StringVar(&in.Secret, "password", "", "password; prompted for when omitted")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var in model.DeleteInput
	cmd := &cobra.Command{
		Use:     "del",
		Aliases: []string{"delete"},
		Short:   "Delete password by --id or by --name and --site",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, func(*app) (cli.Command, error) {
				if in.ID <= 0 {
					in.Name = defaultIfBlank(in.Name, model.DefaultName)
					in.Site = defaultIfBlank(in.Site, model.DefaultSite)
				}
				return cli.DeleteCommand{Input: in}, nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.ID, "id", 0, "record id")
	cmd.Flags().StringVar(&in.Name, "name", "", "record name (default Guest)")
	cmd.Flags().StringVar(&in.Site, "site", "", "record site (default Default)")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var (
		in           model.UpdateInput
		promptSecret bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update password or description, located by --id or by --name and --site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, func(a *app) (cli.Command, error) {
				if in.ID <= 0 {
					in.Name = defaultIfBlank(in.Name, model.DefaultName)
					in.Site = defaultIfBlank(in.Site, model.DefaultSite)
				}
				if promptSecret && in.Secret == "" {
					secret, err := cli.PromptNewSecret(a.prompter, "Enter password (empty = not change) []:", true)
					if err != nil {
						return nil, err
					}
					in.Secret = secret
				}
				return cli.UpdateCommand{Input: in}, nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.ID, "id", 0, "record id; enables changing --name and --site")
	cmd.Flags().StringVar(&in.Name, "name", "", "record name (default Guest)")
	cmd.Flags().StringVar(&in.Site, "site", "", "record site (default Default)")
	cmd.Flags().StringVar(&in.Desc, "desc", "", "new description")
	cmd.Flags().StringVar(&in.Secret, "password", "", "new password")
	cmd.Flags().BoolVarP(&promptSecret, "prompt", "p", false, "prompt for the new password")
	return cmd
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find [name=R1] [site=R2] [desc=R3] [true|false]",
		Short: "Find passwords matching regular expressions; true reveals them",
		RunE: func(cmd *cobra.Command, args []string) error {
			find, err := cli.ParseFindArgs(args)
			if err != nil {
				return err
			}
			return runShell(cmd, func(*app) (cli.Command, error) {
				return find, nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export all records with decrypted passwords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cli.ParseFormat(format, args[0])
			if err != nil {
				return err
			}
			return runShell(cmd, func(*app) (cli.Command, error) {
				return cli.ExportCommand{Path: args[0], Format: f}, nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from file extension)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import records written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cli.ParseFormat(format, args[0])
			if err != nil {
				return err
			}
			return runShell(cmd, func(*app) (cli.Command, error) {
				return cli.ImportCommand{Path: args[0], Format: f}, nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from file extension)")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show vault diagnostics, including the cleartext key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			version, dirty, err := sqliteadapter.SchemaVersion(a.db.Writer)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.cipher)
			fmt.Fprintln(out, a.vault)
			fmt.Fprintf(out, "database %s\n", a.db.Path())
			fmt.Fprintf(out, "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
}

func defaultIfBlank(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
