package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/Vikkingg13/BitCapsule/threads"

	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

// DefaultFrequency is how often the height is polled.
const DefaultFrequency = 10 * time.Minute

// HeightSource returns the current chain tip height.
type HeightSource interface {
	CurrentHeight(ctx context.Context) (uint32, error)
}

// BlockFeed pushes new block heights until interrupted.
type BlockFeed interface {
	Listen(ctx context.Context, heights chan<- uint32, interrupt <-chan interface{}) error
}

// Watcher waits for the chain to reach an unlock height. A transaction with its lock time set to
// the unlock height can be mined in the block after the tip reaches it, so the capsule is spendable
// once the tip height is at least the unlock height.
type Watcher struct {
	unlockHeight int64
	source       HeightSource
	feed         BlockFeed
	frequency    time.Duration

	height   uint32
	seen     bool
	unlocked chan interface{}
	once     sync.Once

	sync.Mutex
}

// NewWatcher creates a watcher that polls source. feed is optional and delivers heights between
// polls.
func NewWatcher(unlockHeight int64, source HeightSource, feed BlockFeed,
	frequency time.Duration) *Watcher {

	if frequency <= 0 {
		frequency = DefaultFrequency
	}

	return &Watcher{
		unlockHeight: unlockHeight,
		source:       source,
		feed:         feed,
		frequency:    frequency,
		unlocked:     make(chan interface{}),
	}
}

// Height returns the highest height seen.
func (w *Watcher) Height() uint32 {
	w.Lock()
	defer w.Unlock()

	return w.height
}

// Remaining returns the number of blocks until the unlock height, zero once reached.
func (w *Watcher) Remaining() int64 {
	w.Lock()
	defer w.Unlock()

	return remaining(w.unlockHeight, w.height)
}

func remaining(unlockHeight int64, height uint32) int64 {
	if r := unlockHeight - int64(height); r > 0 {
		return r
	}
	return 0
}

// Unlocked returns a channel that is closed when the unlock height is reached.
func (w *Watcher) Unlocked() <-chan interface{} {
	return w.unlocked
}

// Run watches until the unlock height is reached and returns nil, or until the interrupt closes
// and returns threads.Interrupted.
func (w *Watcher) Run(ctx context.Context, interrupt <-chan interface{}) error {
	if err := w.poll(ctx); err != nil {
		logger.Warn(ctx, "Failed to poll height : %s", err)
	}

	select {
	case <-w.unlocked:
		return nil
	default:
	}

	var allThreads threads.Threads
	var wait sync.WaitGroup

	pollThread := threads.NewPeriodicTask("Height Poll", w.frequency, w.pollTask)
	pollThread.SetWait(&wait)
	pollComplete := pollThread.GetCompleteChannel()
	allThreads = append(allThreads, pollThread)

	heights := make(chan uint32, 10)
	var feedComplete <-chan interface{}
	if w.feed != nil {
		feedThread := threads.NewThread("Block Feed",
			func(ctx context.Context, interrupt <-chan interface{}) error {
				return w.feed.Listen(ctx, heights, interrupt)
			})
		feedThread.SetWait(&wait)
		feedComplete = feedThread.GetCompleteChannel()
		allThreads = append(allThreads, feedThread)
	}

	allThreads.Start(ctx)

	stop := func() {
		allThreads.Stop(ctx)
		wait.Wait()
	}

	for {
		select {
		case height := <-heights:
			w.update(ctx, height)

		case <-w.unlocked:
			stop()
			return nil

		case <-pollComplete:
			stop()
			return errors.Wrap(allThreads.Error(), "poll")

		case <-feedComplete:
			// Polling continues without the feed.
			logger.Warn(ctx, "Block feed stopped : %v", allThreads[1].Error())
			feedComplete = nil

		case <-interrupt:
			stop()
			return threads.Interrupted
		}
	}
}

// pollTask keeps the periodic thread running through oracle failures.
func (w *Watcher) pollTask(ctx context.Context) error {
	if err := w.poll(ctx); err != nil {
		logger.Warn(ctx, "Failed to poll height : %s", err)
	}
	return nil
}

func (w *Watcher) poll(ctx context.Context) error {
	height, err := w.source.CurrentHeight(ctx)
	if err != nil {
		return errors.Wrap(err, "current height")
	}

	w.update(ctx, height)
	return nil
}

func (w *Watcher) update(ctx context.Context, height uint32) {
	w.Lock()
	if w.seen && height <= w.height {
		w.Unlock()
		return
	}
	w.height = height
	w.seen = true
	left := remaining(w.unlockHeight, height)
	w.Unlock()

	logger.InfoWithFields(ctx, []logger.Field{
		logger.Uint64("height", uint64(height)),
		logger.Uint64("unlock_height", uint64(w.unlockHeight)),
		logger.Uint64("remaining", uint64(left)),
	}, "Block height")

	if left == 0 {
		w.once.Do(func() {
			logger.Info(ctx, "Unlock height %d reached", w.unlockHeight)
			close(w.unlocked)
		})
	}
}
