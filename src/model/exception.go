package model

import "time"

// Exception represents a tick-level failure that must be persisted
// so it can be surfaced in the monitor status.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "shadowmonitor"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "monitor"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "fetch_candles"

	Message string `gorm:"type:text" json:"message"`
	Kind    string `gorm:"size:20;index" json:"kind"` // validation | fetch | order | notify | internal

	// Severity level
	Level string `gorm:"size:20;index" json:"level"`

	// Loop key (symbol_interval) when the failure belongs to one strategy.
	Context string `gorm:"size:100" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
