package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Ledger asset amounts travel as 7-decimal fixed point strings. Internally
// everything is int64 stroops.
const stroopsPerUnit = 10_000_000

func ParseStroops(amount string) (int64, error) {
	if strings.HasPrefix(amount, "-") {
		return 0, fmt.Errorf("invalid asset amount %q", amount)
	}
	whole, frac, _ := strings.Cut(amount, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	if len(frac) > 7 {
		return 0, fmt.Errorf("invalid asset amount %q", amount)
	}
	stroops := units * stroopsPerUnit
	if frac != "" {
		sub, err := strconv.ParseInt(frac+strings.Repeat("0", 7-len(frac)), 10, 64)
		if err != nil {
			return 0, err
		}
		stroops += sub
	}
	return stroops, nil
}

func FormatStroops(stroops int64) string {
	return fmt.Sprintf("%d.%07d", stroops/stroopsPerUnit, stroops%stroopsPerUnit)
}
