package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatTotal возвращает сумму с двумя знаками после точки: "12.30".
func FormatTotal(total decimal.Decimal) string {
	return total.StringFixed(2)
}

// FormatBRL возвращает сумму в виде "R$ 12,30".
func FormatBRL(total decimal.Decimal) string {
	return "R$ " + strings.Replace(total.StringFixed(2), ".", ",", 1)
}
