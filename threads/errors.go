package threads

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// Interrupted is returned by a function that stopped because its interrupt channel closed
	// before it finished.
	Interrupted = errors.New("Interrupted")

	// ErrCombined wraps the errors of more than one thread.
	ErrCombined = errors.New("Combined errors")
)

// CombineErrors returns nil, the single error, or one error joining all messages. The result is
// Interrupted when every error was Interrupted so callers can still recognize a clean stop.
func CombineErrors(errs ...error) error {
	var list []error
	allInterrupted := true
	for _, err := range errs {
		if err == nil {
			continue
		}

		if errors.Cause(err) != Interrupted {
			allInterrupted = false
		}

		list = append(list, err)
	}

	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}

	messages := make([]string, len(list))
	for i, err := range list {
		messages[i] = err.Error()
	}

	if allInterrupted {
		return errors.Wrap(Interrupted, strings.Join(messages, "|"))
	}

	return errors.Wrap(ErrCombined, strings.Join(messages, "|"))
}
