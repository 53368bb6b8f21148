package models

import "time"

// TableRow is a single row of client-supplied tabular data. Values are
// heterogeneous scalars (string, number, boolean, null) or nested structures;
// no schema is enforced beyond string keys.
type TableRow struct {
	Data map[string]any `json:"data"`
}

type RequestData struct {
	TableData []TableRow `json:"table_data"`
}

// ProcessRequest is the body of POST /api/v1/process.
type ProcessRequest struct {
	UserPrompt  string      `json:"user_prompt"`
	RequestData RequestData `json:"request_data"`
}

type ResponseData struct {
	TableData []TableRow `json:"table_data"`
}

// ProcessResponse carries the model's explanation plus the transformed table.
// Row count and order are not guaranteed to match the input.
type ProcessResponse struct {
	AIMessage    string       `json:"ai_message"`
	ResponseData ResponseData `json:"response_data"`
}

// ErrorResponse is the uniform error payload for every failed request.
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// Intent is the category of transformation the user asked for, chosen once
// per request by the classification call.
type Intent string

const (
	IntentFiltering      Intent = "data_filtering"
	IntentTransformation Intent = "data_transformation"
	IntentAnalysis       Intent = "data_analysis"
)

// DefaultIntent is used when classification fails or returns an unknown label.
const DefaultIntent = IntentTransformation

// Intents lists every recognized intent category, in classification-prompt order.
func Intents() []Intent {
	return []Intent{IntentFiltering, IntentTransformation, IntentAnalysis}
}

// ParseIntent maps a model-returned label onto a known Intent.
func ParseIntent(s string) (Intent, bool) {
	for _, in := range Intents() {
		if s == string(in) {
			return in, true
		}
	}
	return "", false
}

// AccessLog records one handled /process request. KeyHash is a fingerprint of
// the client key, never the key itself.
type AccessLog struct {
	ID             int64     `json:"id"`
	KeyHash        string    `json:"key_hash"`
	Endpoint       string    `json:"endpoint"`
	Method         string    `json:"method"`
	StatusCode     int       `json:"status_code"`
	ResponseTimeMs int       `json:"response_time_ms"`
	RequestSize    int64     `json:"request_size"`
	ResponseSize   int64     `json:"response_size"`
	Intent         string    `json:"intent"`
	Timestamp      time.Time `json:"timestamp"`
}

// UsageStat is a per-day aggregate over access logs.
type UsageStat struct {
	Day          time.Time `json:"day"`
	Requests     int64     `json:"requests"`
	Errors       int64     `json:"errors"`
	AvgLatencyMs float64   `json:"avg_latency_ms"`
}
