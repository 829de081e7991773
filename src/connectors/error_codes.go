package connectors

import "fmt"

// GateErrorLabels maps Gate API v4 error labels to human-readable messages.
var GateErrorLabels = map[string]string{
	"INVALID_PARAM_VALUE":     "Invalid parameter value",
	"INVALID_PROTOCOL":        "Invalid parameter value",
	"INVALID_ARGUMENT":        "Invalid argument",
	"INVALID_REQUEST_BODY":    "Invalid request body",
	"MISSING_REQUIRED_PARAM":  "Missing required parameter",
	"BAD_REQUEST":             "Invalid request",
	"INVALID_CONTENT_TYPE":    "Invalid Content-Type header",
	"INVALID_KEY":             "Invalid API key",
	"IP_FORBIDDEN":            "Request IP not in whitelist",
	"READ_ONLY":               "API key is read-only",
	"INVALID_SIGNATURE":       "Invalid signature",
	"MISSING_REQUIRED_HEADER": "Missing required authentication header",
	"REQUEST_EXPIRED":         "Request timestamp too far from server time",
	"ACCOUNT_LOCKED":          "Account is locked",
	"FORBIDDEN":               "No permission for this operation",
	"USER_NOT_FOUND":          "User has no futures account",
	"CONTRACT_NOT_FOUND":      "Contract not found",
	"CONTRACT_IN_DELISTING":   "Contract is delisting",
	"POSITION_NOT_FOUND":      "Position not found",
	"ORDER_NOT_FOUND":         "Order not found",
	"INSUFFICIENT_AVAILABLE":  "Insufficient available balance",
	"RISK_LIMIT_EXCEEDED":     "Position size exceeds risk limit",
	"REDUCE_ONLY_FAIL":        "Reduce-only order would increase position",
	"LIQUIDATE_IMMEDIATELY":   "Order would trigger immediate liquidation",
	"ORDER_FOK":               "Fill-or-kill order not fully filled",
	"ORDER_POC_IMMEDIATE":     "Post-only order would match immediately",
	"TOO_MANY_REQUESTS":       "Request rate limit exceeded",
	"SERVER_ERROR":            "Internal server error",
	"TOO_BUSY":                "Server is too busy",
}

// GetErrorMsg returns a human-readable message for a given Gate error label.
// If the label is unknown, returns a generic message including the label.
func GetErrorMsg(label string) string {
	if msg, ok := GateErrorLabels[label]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_GATE_ERROR_%s", label)
}
