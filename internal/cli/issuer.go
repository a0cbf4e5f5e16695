package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/sekex/internal/ledger"
)

var deployIssuerCmd = &cobra.Command{
	Use:   "deploy-issuer [company-name] [token-symbol] [initial-supply] [treasury-account]",
	Short: "Deploy a new issuer and its security token",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		supply, err := parseInt64(args[2])
		if err != nil {
			fatalf("invalid initial-supply: %v", err)
		}

		iss, err := v.DeployIssuer(ctx, ledger.AccountID(cfg.Owner), args[0], args[1], supply, ledger.AccountID(args[3]))
		if err != nil {
			fatalf("deploying issuer: %v", err)
		}
		fmt.Printf("deployed %q: security token %s, usdt %s\n", iss.CompanyName(), iss.SecurityToken(), iss.USDT())
	},
}

var whitelistCmd = &cobra.Command{
	Use:   "whitelist [security-token] [account] [true|false]",
	Short: "Set an account's whitelist status on a security token's issuer",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		status, err := parseBool(args[2])
		if err != nil {
			fatalf("invalid status: %v", err)
		}
		if err := v.Whitelist(ctx, ledger.AccountID(cfg.Owner), ledger.AssetID(args[0]), ledger.AccountID(args[1]), status); err != nil {
			fatalf("whitelisting: %v", err)
		}
		fmt.Printf("%s whitelist status for %s set to %v\n", args[0], args[1], status)
	},
}

var distributeCmd = &cobra.Command{
	Use:   "distribute [security-token] [amount]",
	Short: "Record a new dividend distribution against an issuer's treasury",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		amount, err := parseInt64(args[1])
		if err != nil {
			fatalf("invalid amount: %v", err)
		}
		if err := v.RecordDividendDistribution(ctx, ledger.AccountID(cfg.Owner), ledger.AssetID(args[0]), amount); err != nil {
			fatalf("recording distribution: %v", err)
		}
		fmt.Printf("recorded distribution of %d on %s\n", amount, args[0])
	},
}

var claimDividendCmd = &cobra.Command{
	Use:   "claim-dividend [security-token] [account]",
	Short: "Claim an account's unwithdrawn dividend entitlement",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		paid, err := v.ClaimDividend(ctx, ledger.AccountID(args[1]), ledger.AssetID(args[0]))
		if err != nil {
			fatalf("claiming dividend: %v", err)
		}
		fmt.Printf("paid %d to %s\n", paid, args[1])
	},
}

var castVoteCmd = &cobra.Command{
	Use:   "cast-vote [security-token] [account] [votes]",
	Short: "Cast an account's governance vote weight on an issuer",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, closeFn, err := openVenue(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		defer closeFn()

		votes, err := parseInt64(args[2])
		if err != nil {
			fatalf("invalid votes: %v", err)
		}
		if err := v.CastVote(ctx, ledger.AccountID(args[1]), ledger.AssetID(args[0]), votes); err != nil {
			fatalf("casting vote: %v", err)
		}
		fmt.Printf("%s cast %d votes on %s\n", args[1], votes, args[0])
	},
}

func init() {
	rootCmd.AddCommand(deployIssuerCmd, whitelistCmd, distributeCmd, claimDividendCmd, castVoteCmd)
}
