package adapter

import "context"

// StaffNotifier tells the shop about a new lead.
type StaffNotifier interface {
	Name() string
	NotifyLead(ctx context.Context, text string) error
}
