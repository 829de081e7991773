package model

// MonitorStatus is derived on request, never stored.
type MonitorStatus struct {
	IsRunning      bool        `json:"is_running"`
	Stopping       bool        `json:"stopping,omitempty"` // Stop is waiting for loops to finish
	ActiveSymbols  []string    `json:"active_symbols"`
	TotalSignals   int64       `json:"total_signals"`
	TotalOrders    int64       `json:"total_orders"`
	TotalContracts int         `json:"total_contracts"`
	LastCheck      int64       `json:"last_check"`
	RecentErrors   []Exception `json:"recent_errors"`
}

// OperationResult is the outcome of a lifecycle call such as start or stop.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
