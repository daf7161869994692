package commands

import (
	"github.com/spf13/cobra"
)

func newAccountsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, release, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			accts, err := gw.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			printAccounts(cmd.OutOrStdout(), accts)
			return nil
		},
	}
	addClientFlags(cmd)
	return cmd
}

func newOperationsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations <account>",
		Short: "List the operations of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, release, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			ops, err := gw.ListOperations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printOperations(cmd.OutOrStdout(), ops)
			return nil
		},
	}
	addClientFlags(cmd)
	return cmd
}

func newReferencesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "references",
		Short: "List the subjects and categories offered during review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, release, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			refs, err := gw.ListReferences(cmd.Context())
			if err != nil {
				return err
			}
			printReferences(cmd.OutOrStdout(), refs)
			return nil
		},
	}
	addClientFlags(cmd)
	return cmd
}
