package domain

import "time"

// ScanRecord is one confirmed (or rejected) admin scan, kept for audit.
type ScanRecord struct {
	ID         string
	SessionID  string
	UserID     string
	Raw        string
	Normalized string
	Format     string
	Backend    string
	CreatedAt  time.Time
}
