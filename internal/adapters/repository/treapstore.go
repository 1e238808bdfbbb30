package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/internal/domain/types"
	"github.com/okian/talentscope/pkg/metrics"
)

// Treap-based, in-memory Ranking.
//
// Ordering: potential DESC, then player name ASC. "less" means ranks
// earlier, so an in-order walk yields the leaderboard best to worst.

// Potentials are compared in fixed point so that float noise below the
// sixth decimal does not split ties.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*scoreScale >= math.MaxInt64:
		return scoreFP(math.MaxInt64)
	case x*scoreScale <= math.MinInt64:
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(x * scoreScale))
}

type node struct {
	name  string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aName string, bScore scoreFP, bName string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aName < bName
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, name string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{name: name, score: score, prio: prio, size: 1}
	}
	if less(score, name, n.score, n.name) {
		n.left = insert(n.left, name, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, name, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, name string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && name == n.name:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, name, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, name, score)
		}
	case less(score, name, n.score, n.name):
		n.left = deleteNode(n.left, name, score)
	default:
		n.right = deleteNode(n.right, name, score)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

type record struct {
	score scoreFP
	entry types.Entry
}

// Leaderboard ranks players by the best predicted potential across their
// seasons.
type Leaderboard struct {
	mu     sync.RWMutex
	root   *node
	byName map[string]record
}

var _ Ranking = (*Leaderboard)(nil)

// NewLeaderboard returns an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{byName: make(map[string]record)}
}

// Upsert sets the entry of a player, replacing any previous one.
func (l *Leaderboard) Upsert(_ context.Context, e types.Entry) {
	defer observeUpdate(time.Now())

	l.mu.Lock()
	l.put(e)
	n := len(l.byName)
	l.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	metrics.UpdateLeaderboardPlayers(n)
}

// UpdateBest sets the entry only when it improves on the stored potential.
func (l *Leaderboard) UpdateBest(_ context.Context, e types.Entry) bool {
	defer observeUpdate(time.Now())

	l.mu.Lock()
	if old, ok := l.byName[e.PlayerName]; ok && toFixedPoint(e.Potential) <= old.score {
		l.mu.Unlock()
		return false
	}
	l.put(e)
	n := len(l.byName)
	l.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	metrics.UpdateLeaderboardPlayers(n)
	return true
}

// put assumes the write lock is held.
func (l *Leaderboard) put(e types.Entry) {
	ns := toFixedPoint(e.Potential)
	if old, ok := l.byName[e.PlayerName]; ok {
		l.root = deleteNode(l.root, e.PlayerName, old.score)
	}
	e.Rank = 0
	l.byName[e.PlayerName] = record{score: ns, entry: e}
	l.root = insert(l.root, e.PlayerName, ns, rand.Uint64())
}

// Remove drops a player. It reports whether the player was ranked.
func (l *Leaderboard) Remove(_ context.Context, name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	old, ok := l.byName[name]
	if !ok {
		return false
	}
	l.root = deleteNode(l.root, name, old.score)
	delete(l.byName, name)
	metrics.UpdateLeaderboardPlayers(len(l.byName))
	return true
}

// Reset replaces the whole leaderboard.
func (l *Leaderboard) Reset(_ context.Context, entries []types.Entry) {
	l.mu.Lock()
	l.root = nil
	l.byName = make(map[string]record, len(entries))
	for _, e := range entries {
		if old, ok := l.byName[e.PlayerName]; ok && toFixedPoint(e.Potential) <= old.score {
			continue
		}
		l.put(e)
	}
	n := len(l.byName)
	l.mu.Unlock()
	metrics.UpdateLeaderboardPlayers(n)
}

// Rank returns the entry of a player with its dense rank. Players sharing
// a potential share a rank and the next potential takes the next rank.
func (l *Leaderboard) Rank(_ context.Context, name string) (types.Entry, error) {
	defer observeQuery(time.Now())

	l.mu.RLock()
	defer l.mu.RUnlock()

	target, ok := l.byName[name]
	if !ok {
		metrics.RecordErrorByComponent("leaderboard", "not_found")
		return types.Entry{}, ErrNotFound
	}

	rank, prev, first := 0, scoreFP(0), true
	walk(l.root, func(n *node) bool {
		if n.score < target.score {
			return false
		}
		if first || n.score != prev {
			rank++
			prev, first = n.score, false
		}
		return n.score != target.score
	})
	e := target.entry
	e.Rank = rank
	return e, nil
}

// TopN returns up to n entries best first. A non-empty position restricts
// the walk to that position, and ranks are dense within the result.
func (l *Leaderboard) TopN(_ context.Context, n int, position model.Position) ([]types.Entry, error) {
	defer observeQuery(time.Now())

	if n < 1 {
		metrics.RecordErrorByComponent("leaderboard", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(l.byName)))
	rank, prev := 0, scoreFP(0)
	walk(l.root, func(nd *node) bool {
		rec := l.byName[nd.name]
		if position != "" && rec.entry.Position != string(position) {
			return true
		}
		if len(out) == 0 || rec.score != prev {
			rank++
			prev = rec.score
		}
		e := rec.entry
		e.Rank = rank
		out = append(out, e)
		return len(out) < n
	})
	return out, nil
}

// Count returns the number of ranked players.
func (l *Leaderboard) Count(_ context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byName)
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}

func observeUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
}
