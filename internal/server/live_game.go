package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/table"
)

type noticeKind int

const (
	noticeTurn noticeKind = iota
	noticeTimeout
	noticeOver
)

// notice tells the driver a turn started, a turn timer fired or the game ended.
type notice struct {
	kind   noticeKind
	round  string
	turn   int
	player string
}

func (n notice) sameTurn(o notice) bool {
	return n.round == o.round && n.turn == o.turn && n.player == o.player
}

// liveGame is the server's side of a running table: who is connected to
// which seat, the bots, and the turn timer.
type liveGame struct {
	table  *table.Table
	clock  quartz.Clock
	logger *log.Logger
	bots   map[string]bot.Agent

	notices  chan notice
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	humans  map[string]*Connection // nil once disconnected
	round   string
	current notice
	timer   *quartz.Timer
}

func newLiveGame(t *table.Table, clock quartz.Clock, logger *log.Logger) *liveGame {
	return &liveGame{
		table:   t,
		clock:   clock,
		logger:  logger.With("game", t.ID()),
		bots:    make(map[string]bot.Agent),
		notices: make(chan notice, 64),
		done:    make(chan struct{}),
		humans:  make(map[string]*Connection),
	}
}

// deliver fans events out to connected players, each seeing only what they
// may see, and queues driver work.
func (lg *liveGame) deliver(events []game.Event) {
	lg.mu.Lock()
	conns := make(map[string]*Connection, len(lg.humans))
	for id, c := range lg.humans {
		if c != nil {
			conns[id] = c
		}
	}
	lg.mu.Unlock()

	for _, e := range events {
		data, err := NewEventData(lg.table.ID(), e)
		if err != nil {
			lg.logger.Error("Failed to encode event", "type", e.EventType(), "error", err)
			continue
		}
		for id, c := range conns {
			if game.VisibleTo(e, id) {
				_ = c.Send(MessageTypeEvent, data)
			}
		}

		switch e := e.(type) {
		case game.RoundStartedEvent:
			lg.mu.Lock()
			lg.round = e.RoundID
			lg.mu.Unlock()
		case game.TurnStartedEvent:
			lg.notify(notice{kind: noticeTurn, round: lg.roundID(), turn: e.Turn, player: e.Player})
		case game.GameEndedEvent:
			lg.notify(notice{kind: noticeOver})
		}
	}
}

func (lg *liveGame) notify(n notice) {
	select {
	case lg.notices <- n:
	case <-lg.done:
	}
}

func (lg *liveGame) roundID() string {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.round
}

func (lg *liveGame) human(id string) *Connection {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.humans[id]
}

func (lg *liveGame) connections() []*Connection {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	conns := make([]*Connection, 0, len(lg.humans))
	for _, c := range lg.humans {
		if c != nil {
			conns = append(conns, c)
		}
	}
	return conns
}

// disconnect frees a seat. If it is that player's turn the default play is
// made straight away.
func (lg *liveGame) disconnect(id string) {
	lg.mu.Lock()
	if _, ok := lg.humans[id]; !ok {
		lg.mu.Unlock()
		return
	}
	lg.humans[id] = nil
	current := lg.current
	lg.mu.Unlock()

	lg.logger.Info("Player disconnected, seat will play defaults", "player", id)
	if current.player == id {
		current.kind = noticeTimeout
		select {
		case lg.notices <- current:
		case <-lg.done:
		default:
		}
	}
}

func (lg *liveGame) setCurrent(n notice) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.current = n
}

func (lg *liveGame) isCurrent(n notice) bool {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.current.sameTurn(n)
}

func (lg *liveGame) startTimer(d time.Duration, n notice) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.timer != nil {
		lg.timer.Stop()
	}
	n.kind = noticeTimeout
	lg.timer = lg.clock.AfterFunc(d, func() {
		lg.logger.Warn("Turn timed out", "player", n.player, "turn", n.turn)
		select {
		case lg.notices <- n:
		case <-lg.done:
		default:
		}
	})
}

func (lg *liveGame) stopTimer() {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.timer != nil {
		lg.timer.Stop()
		lg.timer = nil
	}
}

func (lg *liveGame) stop() {
	lg.stopOnce.Do(func() {
		lg.stopTimer()
		close(lg.done)
	})
}
