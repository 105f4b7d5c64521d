// Package game implements the rules engine for a Love Letter style card game.
//
// A Round deals a shuffled deck from a catalog, runs the draw-then-play turn
// cycle, resolves each card's effect and decides the round winner. A Session
// strings rounds together, awarding one token per round win until a player
// reaches the token threshold.
//
// # Basic Usage
//
//	s, err := game.NewSession(deck.Classic, []string{"alice", "bob", "carol"},
//	    randutil.NewSeededShuffler(42), game.WithSessionID("g1"))
//	events, err := s.StartRound()
//	view, err := s.PrivateState("alice")
//	out, err := s.Submit(view.Plays[0])
//
// Every accepted command returns the events it produced. Events with a
// non-nil Audience (a drawn card, a Priest reveal, a Baron comparison) must
// only be shown to those players.
//
// # Errors
//
// Rejected plays return errors matching ErrIllegalPlay or ErrInvalidTarget
// and leave the state unchanged. ErrIllegalState and ErrInvariantViolation
// mean the round is corrupt and should be abandoned.
//
// # Deterministic Testing
//
// The engine never calls a random primitive. Pass a deck.Shuffler: a seeded
// randutil.Shuffler for replays, or deck.Rig to put known cards on top:
//
//	r, events, err := game.NewRound(players, deck.Classic,
//	    deck.Rig(deck.Guard, deck.Princess, deck.King))
//
// Neither Round nor Session is safe for concurrent use; package table runs
// each game on its own goroutine.
package game
