// Command sekexd administers and serves the permissioned SME
// security-token venue: issuer deployment, whitelisting, dividend
// distribution and claims, order submission and cancellation, and
// market-maker incentive enrollment, plus a serve subcommand for the
// long-running process.
package main

import "github.com/LeJamon/sekex/internal/cli"

func main() {
	cli.Execute()
}
