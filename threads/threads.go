package threads

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

// Thread runs a function in a go routine and reports when it completes through a WaitGroup or a
// channel. The function is stopped by closing its interrupt channel, so it should select on the
// interrupt alongside any data channel it reads.
type Thread struct {
	name string

	interruptFunction InterruptFunction
	interrupt         chan interface{}

	frequency    time.Duration
	taskFunction TaskFunction

	complete   *chan interface{}
	wait       *sync.WaitGroup
	err        error
	isComplete bool
	wasStopped bool

	sync.Mutex
}

type Threads []*Thread

// InterruptFunction should select on interrupt and return when it is closed if not before.
type InterruptFunction func(ctx context.Context, interrupt <-chan interface{}) error

// TaskFunction performs one run of a periodic task.
type TaskFunction func(ctx context.Context) error

func (ts Threads) Start(ctx context.Context) {
	for _, thread := range ts {
		thread.Start(ctx)
	}
}

func (ts Threads) Stop(ctx context.Context) {
	for _, thread := range ts {
		thread.Stop(ctx)
	}
}

// Error combines the errors of all of the threads.
func (ts Threads) Error() error {
	var errs []error
	for _, thread := range ts {
		if err := thread.Error(); err != nil {
			errs = append(errs, err)
		}
	}

	return CombineErrors(errs...)
}

// NewThread creates a thread around a function that is stopped by closing an interrupt channel.
func NewThread(name string, function InterruptFunction) *Thread {
	// Buffered so a stop doesn't block when the function isn't selecting yet.
	return &Thread{
		name:              name,
		interruptFunction: function,
		interrupt:         make(chan interface{}, 1),
	}
}

// NewPeriodicTask creates a thread that calls the function every frequency until stopped or the
// function returns an error.
func NewPeriodicTask(name string, frequency time.Duration, function TaskFunction) *Thread {
	return &Thread{
		name:         name,
		frequency:    frequency,
		taskFunction: function,
		interrupt:    make(chan interface{}, 1),
	}
}

func (t *Thread) Name() string {
	return t.name
}

// SetWait specifies a shared wait to add to when starting and mark done when complete.
func (t *Thread) SetWait(wait *sync.WaitGroup) {
	t.Lock()
	defer t.Unlock()

	t.wait = wait
}

// GetCompleteChannel returns a channel that is closed when the function completes.
func (t *Thread) GetCompleteChannel() <-chan interface{} {
	t.Lock()
	defer t.Unlock()

	complete := make(chan interface{}, 1)
	t.complete = &complete
	return complete
}

func (t *Thread) Start(ctx context.Context) {
	t.Lock()
	name := t.name
	wait := t.wait
	t.Unlock()

	if wait != nil {
		wait.Add(1)
	}

	go func() {
		logger.Verbose(ctx, "Starting: %s", name)

		var err error
		if t.interruptFunction != nil {
			err = t.interruptFunction(ctx, t.interrupt)
		} else if t.taskFunction != nil {
			err = t.runPeriodic(ctx)
		}

		if err == nil {
			logger.Verbose(ctx, "Finished: %s", name)
		} else if errors.Cause(err) == Interrupted {
			logger.Verbose(ctx, "Finished: %s : %s", name, err)
		} else {
			logger.Warn(ctx, "Finished: %s : %s", name, err)
		}

		t.Lock()
		t.err = err
		if t.complete != nil {
			close(*t.complete)
		}
		t.isComplete = true
		t.Unlock()

		if wait != nil {
			wait.Done()
		}
	}()
}

func (t *Thread) runPeriodic(ctx context.Context) error {
	for {
		select {
		case <-t.interrupt:
			return nil

		case <-time.After(t.frequency):
			if err := t.taskFunction(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop closes the interrupt channel. It is safe to call more than once.
func (t *Thread) Stop(ctx context.Context) {
	t.Lock()
	defer t.Unlock()

	if t.wasStopped {
		return
	}

	close(t.interrupt)
	t.wasStopped = true
}

func (t *Thread) IsComplete() bool {
	t.Lock()
	defer t.Unlock()

	return t.isComplete
}

func (t *Thread) Error() error {
	if t == nil {
		return nil
	}

	t.Lock()
	defer t.Unlock()

	return errors.Wrap(t.err, t.name)
}
