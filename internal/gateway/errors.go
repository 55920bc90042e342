package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agora-social/agora-sync/internal/domain"
)

// classifyReadError maps provider errors onto the domain taxonomy. Reverts
// surface through call errors as message text, so string matching is the only
// signal available across providers.
func classifyReadError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert") {
		return fmt.Errorf("%w: %v", domain.ErrReverted, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
}
