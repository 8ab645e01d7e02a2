// Package recurve is a single-writer fact store over two copy-on-write
// tries: target to ring to arrow, and ring to target to arrow. One goroutine
// owns the diary and the roots; callers talk to it over a bounded channel
// and get immutable Bundles back.
package recurve

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/huynhanx03/recurvedb/pkg/hamt"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// DefaultMailboxSize is the default capacity of the request channel.
	DefaultMailboxSize = 64

	diaryFile = "diary.dat"
	rootsFile = "roots.dat"
)

// Config holds connection options. The zero value is usable.
type Config struct {
	// MailboxSize bounds queued requests; senders block once it is full.
	MailboxSize int
	// SyncWrites fsyncs the diary and roots log on every commit.
	SyncWrites bool
	Logger     *zap.Logger
	// FrameCache, if set, is shared by the writer and every Bundle.
	FrameCache hamt.FrameCache
	// Registerer, if set, receives the connection's metrics.
	Registerer prometheus.Registerer
}

type actionKind uint8

const (
	actionRelease actionKind = iota
	actionLatest
)

type action struct {
	kind    actionKind
	flights []Flight
	reply   chan result
}

type result struct {
	bundle *Bundle
	err    error
}

// Recurve is a connection to one store. Its methods are safe for concurrent
// use; writes are applied one at a time in the order they are received.
type Recurve struct {
	name    string
	dir     string
	actions chan action
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Connect opens or creates the store folder/name and starts its writer.
func Connect(name, folder string, cfg Config) (*Recurve, error) {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = DefaultMailboxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	dir := filepath.Join(folder, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "recurve: create %s", dir)
	}

	st, err := open(name, dir, cfg)
	if err != nil {
		return nil, err
	}

	r := &Recurve{
		name:    name,
		dir:     dir,
		actions: make(chan action, cfg.MailboxSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go r.run(st)
	return r, nil
}

// Name returns the store name.
func (r *Recurve) Name() string { return r.name }

// Dir returns the folder holding the store files.
func (r *Recurve) Dir() string { return r.dir }

// Release writes a batch and returns a Bundle that includes it. If any
// flight fails nothing from the batch becomes visible.
func (r *Recurve) Release(src FlightSource) (*Bundle, error) {
	flights := src.Flights()
	return r.request(action{kind: actionRelease, flights: flights})
}

// Draw collects flights through fn and releases them as one batch.
func (r *Recurve) Draw(fn func(*DrawScope)) (*Bundle, error) {
	scope := &DrawScope{}
	fn(scope)
	return r.Release(scope.volley)
}

// Latest returns a Bundle of the last committed state.
func (r *Recurve) Latest() (*Bundle, error) {
	return r.request(action{kind: actionLatest})
}

func (r *Recurve) request(a action) (*Bundle, error) {
	a.reply = make(chan result, 1)
	select {
	case r.actions <- a:
	case <-r.done:
		return nil, ErrClosed
	}

	select {
	case res := <-a.reply:
		return res.bundle, res.err
	case <-r.stopped:
		select {
		case res := <-a.reply:
			return res.bundle, res.err
		default:
			return nil, ErrClosed
		}
	}
}

// Close stops the writer after the request in progress and releases the
// files. Bundles obtained earlier keep reading their snapshot.
func (r *Recurve) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		<-r.stopped
	})
	return r.closeErr
}

func (r *Recurve) run(st *state) {
	defer close(r.stopped)
	defer func() { r.closeErr = st.close() }()

	for {
		select {
		case <-r.done:
			return
		case a := <-r.actions:
			switch a.kind {
			case actionRelease:
				b, err := st.release(a.flights)
				a.reply <- result{bundle: b, err: err}
			case actionLatest:
				a.reply <- result{bundle: st.bundle()}
			}
		}
	}
}
