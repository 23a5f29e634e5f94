package main

import (
	"fmt"

	"github.com/JamesPrial/scene-namer/internal/storage"
	"github.com/JamesPrial/scene-namer/internal/toolkit"
	"github.com/spf13/cobra"
)

func (a *app) actionCmd(use, short string, action toolkit.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			if err := m.Run(cmd.Context(), action); err != nil {
				return &reportedError{err: err}
			}
			return nil
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Preview or apply unique names for duplicates",
		Long: `Plan unique names for every duplicate and print them. Nothing is
written unless --apply is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			action := toolkit.ActionRenameDry
			if apply {
				action = toolkit.ActionRenameApply
			}
			return a.actionCmd("rename", "", action).RunE(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "write the new names")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <scene.yaml>",
		Short: "Load a YAML scene into the configured backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := storage.LoadScene(args[0])
			if err != nil {
				return err
			}
			if err := storage.Import(cmd.Context(), a.backend, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d object(s), %d selected.\n", len(doc.Entities), len(doc.Selection))
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <scene.yaml>",
		Short: "Write the configured backend to a YAML scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := storage.Export(cmd.Context(), a.backend)
			if err != nil {
				return err
			}
			if err := storage.SaveScene(args[0], doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d object(s).\n", len(doc.Entities))
			return nil
		},
	}
}
