package cli

import (
	"strconv"

	"github.com/LeJamon/sekex/internal/orderbook"
)

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(s)
}

type orderSummary struct {
	id     uint64
	status string
}

func summarize(o *orderbook.Order) *orderSummary {
	return &orderSummary{id: o.ID, status: o.Status.String()}
}
