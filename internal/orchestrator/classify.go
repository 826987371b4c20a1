package orchestrator

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// errorBody is the loose shape of a non-2xx response.
// The error field is either a code string or an object with code and message.
type errorBody struct {
	Code       string
	Message    string
	RetryAfter *int
	ResetAt    *time.Time
}

func parseErrorBody(body []byte) errorBody {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return errorBody{}
	}

	var eb errorBody
	if raw, ok := fields["error"]; ok {
		var code string
		if json.Unmarshal(raw, &code) == nil {
			eb.Code = code
		} else {
			var nested struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			if json.Unmarshal(raw, &nested) == nil {
				eb.Code = nested.Code
				eb.Message = nested.Message
			}
		}
	}
	if raw, ok := fields["message"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil && strings.TrimSpace(msg) != "" {
			eb.Message = msg
		}
	}
	for _, key := range []string{"retryAfter", "retry_after"} {
		if raw, ok := fields[key]; ok && eb.RetryAfter == nil {
			eb.RetryAfter = parseSeconds(raw)
		}
	}
	for _, key := range []string{"resetAt", "reset_at"} {
		if raw, ok := fields[key]; ok && eb.ResetAt == nil {
			var s string
			if json.Unmarshal(raw, &s) == nil {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					eb.ResetAt = &t
				}
			}
		}
	}
	return eb
}

// parseSeconds accepts a JSON number or numeric string, rounded up to whole seconds
func parseSeconds(raw json.RawMessage) *int {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		n = json.Number(strings.TrimSpace(s))
	}
	f, err := n.Float64()
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return ceilSeconds(f)
}

// MaxRetryAfterSeconds caps back-off hints so later duration arithmetic cannot overflow
const MaxRetryAfterSeconds = 24 * 60 * 60

// ceilSeconds rounds a non-negative hint up to whole seconds, capped at MaxRetryAfterSeconds
func ceilSeconds(f float64) *int {
	secs := MaxRetryAfterSeconds
	if f < MaxRetryAfterSeconds {
		secs = max(int(math.Ceil(f)), 0)
	}
	return &secs
}

// isRateLimitCode matches codes such as rate_limit_exceeded, RATE_LIMITED or too_many_requests
func isRateLimitCode(code string) bool {
	folded := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, code)
	return strings.Contains(folded, "ratelimit") || strings.Contains(folded, "toomanyrequests")
}

// classify maps a fully read response onto an Outcome
func (o *Orchestrator) classify(status int, header http.Header, body []byte, receivedAt time.Time) Outcome {
	if status >= 200 && status < 300 {
		return o.success(body)
	}

	eb := parseErrorBody(body)

	if status == http.StatusTooManyRequests || isRateLimitCode(eb.Code) {
		retryAfter, resetAt := rateLimitHints(eb, header, receivedAt)
		return RateLimited{
			Message:           firstNonEmpty(eb.Message, genericRateLimitMessage),
			RetryAfterSeconds: retryAfter,
			ResetAt:           resetAt,
		}
	}

	if status >= 400 && status < 500 {
		return ValidationError{Message: firstNonEmpty(eb.Message, humanize(eb.Code), genericValidationMessage)}
	}

	o.logger.Warn("Server error response", "tool", o.tool.Kind, "status", status, "code", eb.Code)
	return ServerError{Message: firstNonEmpty(eb.Message, genericServerMessage)}
}

// rateLimitHints normalizes back-off hints to seconds and an absolute reset time.
// Body hints win over the Retry-After header, which wins over X-RateLimit-Reset.
func rateLimitHints(eb errorBody, header http.Header, receivedAt time.Time) (*int, *time.Time) {
	resetAt := parseResetHeader(header.Get("X-RateLimit-Reset"), receivedAt)
	if resetAt == nil {
		resetAt = eb.ResetAt
	}

	retryAfter := eb.RetryAfter
	if retryAfter == nil {
		retryAfter = parseRetryAfterHeader(header.Get("Retry-After"), receivedAt)
	}
	if retryAfter == nil && resetAt != nil {
		if d := resetAt.Sub(receivedAt); d > 0 {
			retryAfter = ceilSeconds(d.Seconds())
		}
	}
	return retryAfter, resetAt
}

// parseRetryAfterHeader accepts delta-seconds or an HTTP date
func parseRetryAfterHeader(v string, receivedAt time.Time) *int {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if secs, err := strconv.ParseUint(v, 10, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		// ParseUint saturates on overflow
		return ceilSeconds(float64(secs))
	}
	if t, err := http.ParseTime(v); err == nil {
		return ceilSeconds(t.Sub(receivedAt).Seconds())
	}
	return nil
}

// parseResetHeader treats large values as unix seconds and small ones as a delta
func parseResetHeader(v string, receivedAt time.Time) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	var t time.Time
	if n > 1_000_000_000 {
		t = time.Unix(n, 0)
	} else {
		t = receivedAt.Add(time.Duration(n) * time.Second)
	}
	return &t
}

func humanize(code string) string {
	if code == "" {
		return ""
	}
	s := strings.ReplaceAll(strings.ReplaceAll(code, "_", " "), "-", " ")
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
