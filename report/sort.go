/*
sort.go - Caller-driven ordering for tabular report rows

PURPOSE:
  Report tables are sorted by whatever column the caller names, in either
  direction. Values compare numerically when both sides are numbers
  (decimals included) and as strings otherwise, so a single comparator
  serves amount columns and name columns alike.
*/
package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Direction orders a sorted column.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Row is one record of a tabular report, keyed by column name.
type Row map[string]any

// SortRows orders rows in place by the named column. Rows missing the
// column sort as empty values.
func SortRows(rows []Row, column string, direction Direction) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][column], rows[j][column])
		if direction == Descending {
			return c > 0
		}
		return c < 0
	})
}

// compareValues orders two cell values: numerically when both parse as
// numbers, as strings otherwise.
func compareValues(a, b any) int {
	an, aok := toDecimal(a)
	bn, bok := toDecimal(b)
	if aok && bok {
		return an.Cmp(bn)
	}
	return strings.Compare(toString(a), toString(b))
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	case string:
		d, err := decimal.NewFromString(x)
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case interface{ String() string }:
		return x.String()
	default:
		return ""
	}
}
