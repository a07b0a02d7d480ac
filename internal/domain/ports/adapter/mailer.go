package adapter

import (
	"context"
	"time"
)

// DiscountEmail is the customer-facing message carrying an issued code.
type DiscountEmail struct {
	ToName     string
	ToEmail    string
	Code       string
	Headline   string
	Terms      []string
	ValidUntil time.Time
}

type Mailer interface {
	Name() string
	SendDiscount(ctx context.Context, msg DiscountEmail) error
}
