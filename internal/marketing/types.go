package marketing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
)

type createListRequest struct {
	Name string `json:"name"`
}

type createListResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactCount int    `json:"contact_count"`
}

type upsertContactsResponse struct {
	JobID string `json:"job_id"`
}

type globalUnsubscribeRequest struct {
	RecipientEmails []string `json:"recipient_emails"`
}

// APIError is a non-2xx answer from SendGrid.
type APIError struct {
	StatusCode int
	Messages   []string
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("sendgrid: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("sendgrid: status %d", e.StatusCode)
}

// Retryable reports whether the call may succeed if repeated later.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func newAPIError(resp *rest.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: resp.Body}
	var payload struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal([]byte(resp.Body), &payload) == nil {
		for _, e := range payload.Errors {
			if e.Field != "" {
				apiErr.Messages = append(apiErr.Messages, e.Field+": "+e.Message)
			} else {
				apiErr.Messages = append(apiErr.Messages, e.Message)
			}
		}
	}
	return apiErr
}
