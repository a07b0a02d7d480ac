package model

import (
	"fmt"
	"strings"
	"time"
)

// Offer describes the promotional terms attached to an issued code.
// The validity window and exclusions come from configuration.
type Offer struct {
	Percent      int
	ValidityDays int
	Exclusions   []string
}

func (o Offer) Headline() string {
	return fmt.Sprintf("Your exclusive %d%% discount code", o.Percent)
}

// ValidUntil is the last moment a code issued at t can be redeemed.
func (o Offer) ValidUntil(t time.Time) time.Time {
	return t.AddDate(0, 0, o.ValidityDays)
}

// Terms lists the conditions shown under the code.
func (o Offer) Terms() []string {
	scope := "Applicable to all services"
	if len(o.Exclusions) > 0 {
		scope += " (excluding " + strings.Join(o.Exclusions, ", ") + ")"
	}
	return []string{
		fmt.Sprintf("Valid for %d days from today", o.ValidityDays),
		scope,
		"One-time use per customer",
	}
}
