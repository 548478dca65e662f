package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded security rejection.
type Event struct {
	// ID is a generated UUID.
	ID string

	// Kind is the stable rejection kind (validation_error,
	// rate_limit_exceeded, generation_failed).
	Kind string

	// Category is the rule class or window behind the rejection.
	Category string

	// InputHash is the one-way hash prefix of the offending input; empty
	// for rejections with no input text (quota denials).
	InputHash string

	// InputLength is the length of the offending input in bytes.
	InputLength int

	// ClientID is the resolved client identifier.
	ClientID string

	// CreatedAt is when the event was recorded.
	CreatedAt time.Time
}

// Store persists events. Implementations must be safe for concurrent use.
type Store interface {
	// Save persists one event.
	Save(ctx context.Context, event *Event) error

	// Purge deletes events created before olderThan, returning the count.
	Purge(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases store resources.
	Close() error
}

// RecorderConfig configures the asynchronous recorder.
type RecorderConfig struct {
	// Buffer is the event channel capacity. Events beyond a full buffer are
	// dropped and counted rather than blocking the request path.
	// Default: 1000.
	Buffer int

	// WriteTimeout bounds each store write. Default: 5 seconds.
	WriteTimeout time.Duration
}

// Recorder writes events to a Store asynchronously.
type Recorder struct {
	store        Store
	events       chan *Event
	done         chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
	writeTimeout time.Duration
	dropped      atomic.Int64
	closeOnce    sync.Once
}

// NewRecorder starts a recorder draining into store. A nil logger falls back
// to slog.Default.
func NewRecorder(store Store, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		store:        store,
		events:       make(chan *Event, cfg.Buffer),
		done:         make(chan struct{}),
		logger:       logger.With("component", "audit.recorder"),
		writeTimeout: cfg.WriteTimeout,
	}

	r.wg.Add(1)
	go r.drain()

	return r
}

// Record enqueues an event for the given rejection. The input text is hashed
// immediately and never retained. Record never blocks: when the buffer is
// full the event is dropped and counted.
func (r *Recorder) Record(kind, category, inputText, clientID string) {
	event := &Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		Category:    category,
		InputHash:   HashPrefix(inputText),
		InputLength: len(inputText),
		ClientID:    clientID,
		CreatedAt:   time.Now(),
	}

	select {
	case r.events <- event:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops the drain goroutine after flushing queued events. The store is
// not closed; the caller owns it.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) drain() {
	defer r.wg.Done()

	for {
		select {
		case event := <-r.events:
			r.write(event)
		case <-r.done:
			// Flush whatever is queued before exiting.
			for {
				select {
				case event := <-r.events:
					r.write(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.store.Save(ctx, event); err != nil {
		r.logger.Error("failed to persist audit event",
			"error", err,
			"kind", event.Kind)
	}
}
