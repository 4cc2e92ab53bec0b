package fusion

import "fmt"

// rawExcerptLen bounds how much raw judge output errors carry.
// Enough to debug a broken prompt/schema contract without leaking the
// full response.
const rawExcerptLen = 500

// ParseError reports a judge response that was not valid JSON even after
// defensive extraction. Fatal for the request: a malformed response means
// the prompt/schema contract broke.
type ParseError struct {
	Reason string
	Raw    string // truncated raw response for diagnosis
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("judge response parse error: %s (response: %s)", e.Reason, e.Raw)
}

// JudgeUnavailableError reports a transport, auth, or rate-limit failure
// calling the judge.
type JudgeUnavailableError struct {
	Err error
}

func (e *JudgeUnavailableError) Error() string {
	return fmt.Sprintf("judge unavailable: %v", e.Err)
}

func (e *JudgeUnavailableError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a blocking stage that exceeded its deadline
type TimeoutError struct {
	Stage string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

func rawExcerpt(raw string) string {
	runes := []rune(raw)
	if len(runes) <= rawExcerptLen {
		return raw
	}
	return string(runes[:rawExcerptLen])
}
