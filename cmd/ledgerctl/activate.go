package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fortexx_ledger/internal/services"
)

func activateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate [payment-id]",
		Short: "Activate a payment by its internal id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid payment id %q", args[0])
			}

			db, _, err := openDB()
			if err != nil {
				return err
			}

			result, err := services.NewPaymentStore(db).Activate(cmd.Context(), uint(id))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch result.Outcome {
			case services.ActivationActivated:
				p := result.Payment
				fmt.Fprintf(out, "payment %d activated (%s, %s %s)\n", p.ID, p.User, p.Value.StringFixed(2), p.Currency)
			case services.ActivationAlreadyActive:
				fmt.Fprintf(out, "payment %d was already active\n", id)
			default:
				return fmt.Errorf("payment %d not found", id)
			}
			return nil
		},
	}
}
