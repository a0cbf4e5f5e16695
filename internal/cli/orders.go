package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/sekex/internal/ledger"
)

var submitBuyCmd = &cobra.Command{
	Use:   "submit-buy [account] [security-token] [amount] [price]",
	Short: "Submit a BUY order",
	Args:  cobra.ExactArgs(4),
	Run:   runSubmit(true),
}

var submitSellCmd = &cobra.Command{
	Use:   "submit-sell [account] [security-token] [amount] [price]",
	Short: "Submit a SELL order",
	Args:  cobra.ExactArgs(4),
	Run:   runSubmit(false),
}

func runSubmit(buy bool) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		amount, err := parseInt64(args[2])
		if err != nil {
			fatalf("invalid amount: %v", err)
		}
		price, err := parseInt64(args[3])
		if err != nil {
			fatalf("invalid price: %v", err)
		}

		var order *orderSummary
		if buy {
			o, err := v.SubmitBuy(ctx, ledger.AccountID(args[0]), ledger.AssetID(args[1]), amount, price)
			if err != nil {
				fatalf("submitting buy: %v", err)
			}
			order = summarize(o)
		} else {
			o, err := v.SubmitSell(ctx, ledger.AccountID(args[0]), ledger.AssetID(args[1]), amount, price)
			if err != nil {
				fatalf("submitting sell: %v", err)
			}
			order = summarize(o)
		}
		fmt.Printf("order #%d status=%s\n", order.id, order.status)
	}
}

var cancelOrderCmd = &cobra.Command{
	Use:   "cancel-order [account] [order-id]",
	Short: "Cancel a resting order, refunding its unfilled remainder",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		id, err := parseUint64(args[1])
		if err != nil {
			fatalf("invalid order-id: %v", err)
		}
		if err := v.Cancel(ctx, ledger.AccountID(args[0]), id); err != nil {
			fatalf("cancelling order: %v", err)
		}
		fmt.Printf("order #%d cancelled\n", id)
	},
}

func init() {
	rootCmd.AddCommand(submitBuyCmd, submitSellCmd, cancelOrderCmd)
}
