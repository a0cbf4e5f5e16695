package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/sekex/internal/ledger"
)

var registerProviderCmd = &cobra.Command{
	Use:   "register-provider [account]",
	Short: "Enroll an account as a market maker",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		if err := v.RegisterProvider(ctx, ledger.AccountID(args[0])); err != nil {
			fatalf("registering provider: %v", err)
		}
		fmt.Printf("%s registered as a liquidity provider\n", args[0])
	},
}

var createProgramCmd = &cobra.Command{
	Use:   "create-program [security-token] [max-spread-bps] [min-order-size] [min-lockup] [daily-rate-bps] [duration-days]",
	Short: "Install an incentive program for a security token",
	Args:  cobra.ExactArgs(6),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		vals := make([]int64, 5)
		for i, s := range args[1:] {
			n, err := parseInt64(s)
			if err != nil {
				fatalf("invalid numeric argument %q: %v", s, err)
			}
			vals[i] = n
		}

		if err := v.CreateProgram(ctx, ledger.AccountID(cfg.Owner), ledger.AssetID(args[0]), vals[0], vals[1], vals[2], vals[3], vals[4]); err != nil {
			fatalf("creating program: %v", err)
		}
		fmt.Printf("incentive program created for %s\n", args[0])
	},
}

var toggleProgramCmd = &cobra.Command{
	Use:   "toggle-program [security-token] [true|false]",
	Short: "Activate or deactivate a security token's incentive program",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		active, err := parseBool(args[1])
		if err != nil {
			fatalf("invalid active flag: %v", err)
		}
		if err := v.ToggleProgram(ctx, ledger.AccountID(cfg.Owner), ledger.AssetID(args[0]), active); err != nil {
			fatalf("toggling program: %v", err)
		}
		fmt.Printf("%s program active=%v\n", args[0], active)
	},
}

var lockCollateralCmd = &cobra.Command{
	Use:   "lock-collateral [account] [security-token] [amount]",
	Short: "Escrow collateral for a market maker against a security token",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
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
		if err := v.LockCollateral(ctx, ledger.AccountID(args[0]), ledger.AssetID(args[1]), amount); err != nil {
			fatalf("locking collateral: %v", err)
		}
		fmt.Printf("locked %d collateral for %s on %s\n", amount, args[0], args[1])
	},
}

var releaseCollateralCmd = &cobra.Command{
	Use:   "release-collateral [account] [security-token]",
	Short: "Refund a market maker's locked collateral",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		if err := v.ReleaseCollateral(ctx, ledger.AccountID(args[0]), ledger.AssetID(args[1])); err != nil {
			fatalf("releasing collateral: %v", err)
		}
		fmt.Printf("released collateral for %s on %s\n", args[0], args[1])
	},
}

var claimRewardsCmd = &cobra.Command{
	Use:   "claim-rewards [account] [security-token]",
	Short: "Claim today's snapshot incentive reward",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		paid, err := v.ClaimRewards(ctx, ledger.AccountID(args[0]), ledger.AssetID(args[1]))
		if err != nil {
			fatalf("claiming rewards: %v", err)
		}
		fmt.Printf("paid %d to %s\n", paid, args[0])
	},
}

func init() {
	rootCmd.AddCommand(registerProviderCmd, createProgramCmd, toggleProgramCmd, lockCollateralCmd, releaseCollateralCmd, claimRewardsCmd)
}
