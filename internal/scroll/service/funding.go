package service

import (
	"math"
	"strconv"
	"strings"

	dErrors "scrollvault/pkg/domain-errors"
)

var fundingStripper = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseFunding reads a declaration such as "$75,000.50".
func ParseFunding(declaration string) (float64, error) {
	cleaned := fundingStripper.Replace(strings.TrimSpace(declaration))
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid funding declaration")
	}
	return amount, nil
}

// FormatUSD renders amount as "$1,234.56".
func FormatUSD(amount float64) string {
	s := strconv.FormatFloat(math.Abs(amount), 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if amount < 0 {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
