package game

import (
	"context"
	"time"

	"checkers/internal/board"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/engine"
	"checkers/internal/player"

	"github.com/rs/zerolog/log"
)

type wakeKind int

const (
	wakeChosen  wakeKind = iota // Computer move computed
	wakePlay                    // Highlight shown long enough, play it
	wakeRematch                 // Post-game delay elapsed
)

type wakeup struct {
	kind  wakeKind
	token uint64 // Computer turn token, or game seq for rematch
	move  board.Move
	err   error
}

// Runner owns a Game on a single goroutine. Input adapters talk to it through
// commands; computer moves are computed on a worker and handed back here
// before they touch the board.
type Runner struct {
	id    string
	game  *Game
	cfg   config.Config
	queue *engine.Queue
	pacer engine.Pacer

	cmds chan Command
	wake chan wakeup
	done chan struct{}
	ctx  context.Context

	computing  bool
	token      uint64
	rematchSeq uint64
}

// NewRunner wraps a started game. A nil queue computes moves on a plain
// goroutine; a nil pacer means no pauses.
func NewRunner(id string, g *Game, cfg config.Config, queue *engine.Queue, pacer engine.Pacer) *Runner {
	if pacer == nil {
		pacer = engine.NoPacer{}
	}
	return &Runner{
		id:    id,
		game:  g,
		cfg:   cfg,
		queue: queue,
		pacer: pacer,
		cmds:  make(chan Command),
		wake:  make(chan wakeup, 4),
		done:  make(chan struct{}),
	}
}

// Run processes commands and computer turns until ctx is cancelled
func (r *Runner) Run(ctx context.Context) {
	r.ctx = ctx
	defer close(r.done)

	log.Debug().Str("game", r.id).Msg("runner started")
	r.schedule()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("game", r.id).Msg("runner stopped")
			return

		case cmd := <-r.cmds:
			cmd.reply <- cmd.apply(r.game)
			r.schedule()

		case w := <-r.wake:
			r.handleWakeup(w)
			r.schedule()
		}
	}
}

// Done is closed when Run returns
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Execute sends cmd to the owning goroutine and waits for its response
func (r *Runner) Execute(ctx context.Context, cmd Command) (Response, error) {
	cmd.reply = make(chan Response, 1)

	select {
	case r.cmds <- cmd:
	case <-r.done:
		return Response{}, ErrRunnerStopped
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-cmd.reply:
		return resp, resp.Err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (r *Runner) Move(ctx context.Context, origin, target board.Coordinates) (board.Move, Snapshot, error) {
	resp, err := r.Execute(ctx, NewMoveCommand(origin, target))
	return resp.Move, resp.Snapshot, err
}

func (r *Runner) ChangePlayer(ctx context.Context, team core.Team, playerType core.PlayerType) (bool, Snapshot, error) {
	resp, err := r.Execute(ctx, NewChangePlayerCommand(team, playerType))
	return resp.Applied, resp.Snapshot, err
}

func (r *Runner) Restart(ctx context.Context, data *board.SaveData) (bool, Snapshot, error) {
	resp, err := r.Execute(ctx, NewRestartCommand(data))
	return resp.Applied, resp.Snapshot, err
}

func (r *Runner) ToggleHighlighting(ctx context.Context) (bool, error) {
	resp, err := r.Execute(ctx, NewToggleHighlightingCommand())
	return resp.Highlighting, err
}

func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	resp, err := r.Execute(ctx, NewSnapshotCommand())
	return resp.Snapshot, err
}

func (r *Runner) Save(ctx context.Context) (board.SaveData, Snapshot, error) {
	resp, err := r.Execute(ctx, NewSaveCommand())
	return resp.Save, resp.Snapshot, err
}

// schedule starts whatever background step the current state needs
func (r *Runner) schedule() {
	if r.game.State() == core.StateGameOver {
		if seq := r.game.Seq(); r.rematchSeq != seq {
			r.rematchSeq = seq
			go r.rematch(seq)
		}
		return
	}

	if r.computing || !r.game.ComputerToMove() {
		return
	}

	r.computing = true
	r.token++
	go r.think(r.token, r.game.BoardClone(), r.game.CurrentPlayer())
}

func (r *Runner) think(token uint64, b *board.Board, p player.Player) {
	r.pause(r.cfg.AIMoveDelay)

	deliver := func(res engine.Result) {
		r.post(wakeup{kind: wakeChosen, token: token, move: res.Move, err: res.Error})
	}

	if r.queue != nil {
		err := r.queue.SubmitAsync(r.id, token, b, p, deliver)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("game", r.id).Msg("engine queue unavailable, computing inline")
	}

	move, ok := p.Move(b)
	res := engine.Result{GameID: r.id, Seq: token, Move: move}
	if !ok {
		res.Error = engine.ErrNoMove
	}
	deliver(res)
}

func (r *Runner) rematch(seq uint64) {
	r.pause(r.cfg.PostGameDelay)
	r.post(wakeup{kind: wakeRematch, token: seq})
}

func (r *Runner) pause(d time.Duration) {
	if err := r.pacer.Pause(r.ctx, d); err != nil {
		log.Debug().Err(err).Str("game", r.id).Msg("pause interrupted, continuing")
	}
}

func (r *Runner) post(w wakeup) {
	select {
	case r.wake <- w:
	case <-r.done:
	}
}

func (r *Runner) handleWakeup(w wakeup) {
	switch w.kind {
	case wakeChosen:
		if !r.computing || w.token != r.token {
			return
		}
		move := w.move
		if w.err != nil {
			log.Error().Err(w.err).Str("game", r.id).Msg("computer move failed, retrying on the game goroutine")
			var ok bool
			if move, ok = r.game.CurrentPlayer().Move(r.game.BoardClone()); !ok {
				panic("game: computer player produced no move for " + r.game.Turn().Name())
			}
		}
		r.game.AnnounceComputerMove(move)
		go func(token uint64) {
			r.pause(r.cfg.AIMoveDelay)
			r.post(wakeup{kind: wakePlay, token: token, move: move})
		}(w.token)

	case wakePlay:
		if !r.computing || w.token != r.token {
			return
		}
		r.computing = false
		if err := r.game.PlayComputerMove(w.move); err != nil {
			log.Warn().Err(err).Str("game", r.id).Msg("computer move dropped")
		}

	case wakeRematch:
		if w.token == r.game.Seq() && r.game.State() == core.StateGameOver {
			log.Info().Str("game", r.id).Msg("starting a new game")
			r.game.Start()
		}
	}
}
