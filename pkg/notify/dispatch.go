package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Dispatch sends summary to every notifier. A failing notifier does not stop
// the others; their errors are combined.
func Dispatch(ctx context.Context, notifiers []Notifier, summary RunSummary) error {
	var err error
	for _, n := range notifiers {
		if sendErr := n.Send(ctx, summary); sendErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", n.Name(), sendErr))
		}
	}
	return err
}
