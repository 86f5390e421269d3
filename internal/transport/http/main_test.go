package http

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMain(m *testing.M) {
	// cmd/server sets the same encoding at startup.
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}
