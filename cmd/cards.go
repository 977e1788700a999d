package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"barrier-access-control/internal/storage"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Manage access cards",
	Long:  `List access cards and change their authorization without going through the HTTP API.`,
}

var listCardsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cards with their validity windows",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cards, err := provider.ListCards(ctx, 0, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list cards: %v\n", err)
			os.Exit(1)
		}

		if len(cards) == 0 {
			fmt.Println("No cards found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "UID\tACCESS\tVALID FROM\tVALID TO\tCREATED")
		fmt.Fprintln(w, "---\t------\t----------\t--------\t-------")

		for _, card := range cards {
			accessStr := "denied"
			if card.AuthoredAccess {
				accessStr = "granted"
			}
			validTo := "-"
			if card.ValidTo != nil {
				validTo = card.ValidTo.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				card.UID, accessStr,
				card.ValidFrom.Format(time.RFC3339), validTo,
				card.CreatedAt.Format(time.RFC3339))
		}

		w.Flush()
		fmt.Printf("\nTotal cards: %d\n", len(cards))
	},
}

var (
	cardValidFrom string
	cardValidTo   string
	cardNoAccess  bool
)

var addCardCmd = &cobra.Command{
	Use:   "add <uid>",
	Short: "Register a card that was burned elsewhere",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		uid := args[0]

		validFrom := time.Now().UTC()
		if cardValidFrom != "" {
			var err error
			validFrom, err = time.Parse(time.RFC3339, cardValidFrom)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid --valid-from: %v\n", err)
				os.Exit(1)
			}
		}

		var validTo *time.Time
		if cardValidTo != "" {
			parsed, err := time.Parse(time.RFC3339, cardValidTo)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid --valid-to: %v\n", err)
				os.Exit(1)
			}
			validTo = &parsed
		}

		card := storage.Card{
			UID:            uid,
			AuthoredAccess: !cardNoAccess,
			ValidFrom:      validFrom,
			ValidTo:        validTo,
		}
		if _, err := provider.CreateCard(ctx, card); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to add card %s: %v\n", uid, err)
			os.Exit(1)
		}
		fmt.Printf("Card %s added\n", uid)
	},
}

var revokeCardCmd = &cobra.Command{
	Use:   "revoke <uid>",
	Short: "Revoke a card's access",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		uid := args[0]

		authored := false
		if _, err := provider.UpdateCard(ctx, uid, storage.CardPatch{AuthoredAccess: &authored}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to revoke card %s: %v\n", uid, err)
			os.Exit(1)
		}
		fmt.Printf("Card %s revoked\n", uid)
	},
}

var deleteCardCmd = &cobra.Command{
	Use:   "delete <uid>",
	Short: "Delete a card record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		uid := args[0]

		if err := provider.DeleteCard(ctx, uid); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete card %s: %v\n", uid, err)
			os.Exit(1)
		}
		fmt.Printf("Card %s deleted\n", uid)
	},
}

func init() {
	rootCmd.AddCommand(cardsCmd)
	cardsCmd.AddCommand(listCardsCmd)
	cardsCmd.AddCommand(addCardCmd)
	cardsCmd.AddCommand(revokeCardCmd)
	cardsCmd.AddCommand(deleteCardCmd)
	addCardCmd.Flags().StringVar(&cardValidFrom, "valid-from", "", "validity start, RFC 3339 (default now)")
	addCardCmd.Flags().StringVar(&cardValidTo, "valid-to", "", "validity end, RFC 3339 (default none)")
	addCardCmd.Flags().BoolVar(&cardNoAccess, "no-access", false, "register without authored access")
}
