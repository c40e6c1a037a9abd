package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"google.golang.org/genai"
)

// ErrAllCoolingDown is the cause reported when every credential is still in
// its cooldown window and nothing was attempted.
var ErrAllCoolingDown = errors.New("every credential is cooling down after quota exhaustion")

const resourceExhausted = "RESOURCE_EXHAUSTED"

// IsQuotaExhausted reports whether err is the provider's rate or quota limit,
// the only failure class that rotating to another credential can fix.
//
// Structured provider errors are classified by status code and status name.
// The textual match only applies to errors that carry no structure at all.
func IsQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}

	var quotaErr *common.QuotaExhaustedError
	if errors.As(err, &quotaErr) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isQuotaStatus(apiErr.Code, apiErr.Status)
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return isQuotaStatus(apiErrPtr.Code, apiErrPtr.Status)
	}

	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, resourceExhausted)
}

func isQuotaStatus(code int, status string) bool {
	return code == http.StatusTooManyRequests || strings.EqualFold(status, resourceExhausted)
}
