// internal/notify/notifier.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"
)

// Event kinds.
const (
	EventTaskAssigned   = "task.assigned"
	EventExportReady    = "export.ready"
	EventImportFinished = "import.finished"
	EventPartialFailure = "partial.failure"
)

// Event is one console notification.
type Event struct {
	Kind       string
	Subject    string
	Body       string
	Recipient  string
	Attributes map[string]string
}

// Text renders the event as a plain message: the body followed by the
// attributes in key order.
func (e Event) Text() string {
	var b strings.Builder
	b.WriteString(e.Body)
	if len(e.Attributes) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, e.Attributes[k])
	}
	return b.String()
}

// Notifier delivers events to one channel.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every channel and joins their failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch sends event and only logs a failure. Callers use it where a
// notification must never fail the operation that triggered it.
func Dispatch(ctx context.Context, n Notifier, log logger.Logger, event Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		logger.Component(log, "notify").Warn("notification failed", map[string]interface{}{
			"kind":  event.Kind,
			"error": apperrors.NewNotificationSendFailedError(event.Kind, err),
		})
	}
}
