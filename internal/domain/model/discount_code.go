package model

import (
	"math/rand/v2"
	"regexp"
)

// DiscountCodePrefix marks codes issued by the 10% lead offer.
const DiscountCodePrefix = "TNT10-"

const (
	discountSuffixLen = 6
	base36            = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var discountCodePattern = regexp.MustCompile(`^TNT10-[A-Z0-9]{6}$`)

// GenerateDiscountCode returns a shareable code in the form TNT10-XXXXXX.
// Codes come from a non-cryptographic source and are not checked for
// collisions; the 36^6 keyspace only makes them unlikely to repeat.
func GenerateDiscountCode() string {
	return generateDiscountCode(rand.IntN)
}

func generateDiscountCode(intn func(n int) int) string {
	buf := make([]byte, 0, len(DiscountCodePrefix)+discountSuffixLen)
	buf = append(buf, DiscountCodePrefix...)
	for i := 0; i < discountSuffixLen; i++ {
		buf = append(buf, base36[intn(len(base36))])
	}
	return string(buf)
}

// IsDiscountCode reports whether s has the issued-code shape.
func IsDiscountCode(s string) bool {
	return discountCodePattern.MatchString(s)
}
