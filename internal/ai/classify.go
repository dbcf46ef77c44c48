package ai

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xxxsen/studynote/internal/pkg/errors"
	"google.golang.org/genai"
)

// classifyError maps backend failures onto the service's sentinel errors so
// upper layers can translate them into stable response codes.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", errors.ErrQuotaExceeded, apiErr.Message)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: api access denied: %s", errors.ErrInternal, apiErr.Message)
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource_exhausted"):
		return fmt.Errorf("%w: %v", errors.ErrQuotaExceeded, err)
	case strings.Contains(msg, "deadline"), strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: upstream timeout: %v", errors.ErrNetwork, err)
	case strings.Contains(msg, "api key not valid"), strings.Contains(msg, "permission"):
		return fmt.Errorf("%w: api access denied: %v", errors.ErrInternal, err)
	}
	return fmt.Errorf("%w: %v", errors.ErrInternal, err)
}
