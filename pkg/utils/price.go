package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice converts a display price such as "$1,199.00" or "USD 29" to float64.
func ParsePrice(priceStr string) float64 {
	if priceStr == "" {
		return 0
	}

	clean := strings.ReplaceAll(priceStr, ",", "")
	match := numberPattern.FindString(clean)
	if match == "" {
		return 0
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return price
}

// ParseRating extracts the rating from text like "4.5 out of 5 stars".
// Values outside 0-5 are clamped.
func ParseRating(ratingStr string) float64 {
	match := numberPattern.FindString(ratingStr)
	if match == "" {
		return 0
	}

	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	switch {
	case rating < 0:
		return 0
	case rating > 5:
		return 5
	}
	return rating
}

// ParseCount reads an integer count such as "(2,847 reviews)".
func ParseCount(countStr string) int {
	match := numberPattern.FindString(strings.ReplaceAll(countStr, ",", ""))
	if match == "" {
		return 0
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return int(n)
}

// RoundMoney rounds d to cents and returns it as float64 for JSON output.
func RoundMoney(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// FormatPrice renders a price as "$1,199.00".
func FormatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
