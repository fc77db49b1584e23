package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for a change
	WaitTimeout = 25 * time.Second
)

// WaitRegistry manages long-polling clients waiting for a game's version to change
type WaitRegistry struct {
	mu       sync.Mutex
	waiters  map[string][]*WaitRequest // gameID → waiting clients
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// WaitRequest represents a single client waiting for game updates.
// Notify is closed exactly once: on change, timeout, cancellation, game removal or shutdown.
type WaitRequest struct {
	GameID  string
	Version uint64 // Last version the client has seen
	Notify  chan struct{}
	timer   *time.Timer
	once    sync.Once
}

func (r *WaitRequest) release() {
	r.once.Do(func() {
		r.timer.Stop()
		close(r.Notify)
	})
}

// NewWaitRegistry creates a new wait registry
func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*WaitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait registers a client to wait for the game to move past version.
// The returned channel is closed when the client should re-read the game.
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string, version uint64) <-chan struct{} {
	req := &WaitRequest{
		GameID:  gameID,
		Version: version,
		Notify:  make(chan struct{}),
	}
	req.timer = time.AfterFunc(WaitTimeout, func() {
		w.removeWaiter(req)
	})

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		req.release()
		return req.Notify
	}
	w.waiters[gameID] = append(w.waiters[gameID], req)
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			w.removeWaiter(req)
		case <-req.Notify:
		case <-w.shutdown:
			w.removeWaiter(req)
		}
	}()

	return req.Notify
}

// NotifyGame wakes clients whose known version differs from the current one
func (w *WaitRegistry) NotifyGame(gameID string, version uint64) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	var keep, wake []*WaitRequest
	for _, req := range waitList {
		if req.Version != version {
			wake = append(wake, req)
		} else {
			keep = append(keep, req)
		}
	}
	if len(keep) == 0 {
		delete(w.waiters, gameID)
	} else {
		w.waiters[gameID] = keep
	}
	w.mu.Unlock()

	for _, req := range wake {
		req.release()
	}
}

// RemoveGame wakes and drops all waiters for a game (called before game deletion)
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range waitList {
		req.release()
	}
}

// Waiting reports the number of clients currently parked on a game
func (w *WaitRegistry) Waiting(gameID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters[gameID])
}

// Shutdown releases every waiter and waits for the cleanup goroutines
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.shutdown)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out")
	}
}

func (w *WaitRegistry) removeWaiter(req *WaitRequest) {
	w.mu.Lock()
	waitList := w.waiters[req.GameID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[req.GameID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}
	if len(w.waiters[req.GameID]) == 0 {
		delete(w.waiters, req.GameID)
	}
	w.mu.Unlock()

	req.release()
}
