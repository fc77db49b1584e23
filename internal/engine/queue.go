package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"checkers/internal/board"
	"checkers/internal/player"

	"github.com/rs/zerolog/log"
)

const (
	defaultWorkers = 2
	queueSize      = 100
	computeTimeout = 5 * time.Second
)

var (
	ErrQueueFull     = errors.New("engine queue is full")
	ErrQueueShutdown = errors.New("engine queue is shutting down")
	ErrNoMove        = errors.New("computer player returned no move")
)

// Task asks a computer player to choose a move on a private copy of the board
type Task struct {
	GameID   string
	Seq      uint64 // Lets the owner drop results that arrive after a restart
	Board    *board.Board
	Player   player.Player
	Response chan<- Result
}

// Result is the outcome of a move computation
type Result struct {
	GameID  string
	Seq     uint64
	Move    board.Move
	Elapsed time.Duration
	Error   error
}

// Queue runs move computations off the game-owning goroutines
type Queue struct {
	tasks   chan Task
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewQueue creates a queue with the given worker count
func NewQueue(workerCount int) *Queue {
	if workerCount < 1 {
		workerCount = defaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		tasks:   make(chan Task, queueSize),
		workers: workerCount,
		ctx:     ctx,
		cancel:  cancel,
	}

	q.start()
	return q
}

func (q *Queue) start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case task := <-q.tasks:
			result := q.processTask(task)

			// Send result if receiver still listening
			select {
			case task.Response <- result:
			case <-time.After(100 * time.Millisecond):
				log.Debug().Int("worker", id).Str("game", task.GameID).Msg("discarding abandoned move result")
			}

		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) processTask(task Task) (result Result) {
	start := time.Now()
	result = Result{GameID: task.GameID, Seq: task.Seq}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("move computation panicked: %v", r)
		}
		result.Elapsed = time.Since(start)
	}()

	move, ok := task.Player.Move(task.Board)
	if !ok {
		result.Error = ErrNoMove
		return result
	}
	result.Move = move
	return result
}

// Submit adds a task to the queue without blocking
func (q *Queue) Submit(task Task) error {
	if q.ctx.Err() != nil {
		return ErrQueueShutdown
	}
	select {
	case q.tasks <- task:
		return nil
	case <-q.ctx.Done():
		return ErrQueueShutdown
	default:
		return ErrQueueFull
	}
}

// SubmitAsync queues a computation and invokes callback with its result from
// a separate goroutine. The board must not be shared with the caller.
func (q *Queue) SubmitAsync(gameID string, seq uint64, b *board.Board, p player.Player, callback func(Result)) error {
	respChan := make(chan Result, 1)

	task := Task{
		GameID:   gameID,
		Seq:      seq,
		Board:    b,
		Player:   p,
		Response: respChan,
	}

	if err := q.Submit(task); err != nil {
		return err
	}

	go func() {
		select {
		case result := <-respChan:
			callback(result)
		case <-time.After(computeTimeout):
			callback(Result{
				GameID: gameID,
				Seq:    seq,
				Error:  fmt.Errorf("move computation timed out after %s", computeTimeout),
			})
		}
	}()

	return nil
}

// Shutdown stops the workers and waits for in-flight computations
func (q *Queue) Shutdown(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
