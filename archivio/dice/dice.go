// Package dice provides the random factors used by contested tests.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

//go:generate mockgen -source=dice.go -destination=mock/roller.go -package=mock

// ChallengeSides is the size of the die rolled on each side of a challenge.
const ChallengeSides = 5

// Roller draws uniform integers in [1, sides].
type Roller interface {
	Roll(sides int) int
}

// RandRoller is a goroutine-safe Roller backed by math/rand.
type RandRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandRoller returns a roller with a deterministic seed.
func NewRandRoller(seed int64) *RandRoller {
	return &RandRoller{rng: rand.New(rand.NewSource(seed))}
}

// NewSeededRoller returns a roller seeded from crypto/rand.
func NewSeededRoller() (*RandRoller, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewRandRoller(seed), nil
}

func (r *RandRoller) Roll(sides int) int {
	if sides <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(sides) + 1
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Fixed replays a predetermined sequence of rolls, cycling when exhausted.
// It is meant for fixtures and replays.
type Fixed struct {
	mu    sync.Mutex
	rolls []int
	next  int
}

func NewFixed(rolls ...int) *Fixed {
	return &Fixed{rolls: rolls}
}

func (f *Fixed) Roll(sides int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rolls) == 0 {
		return 1
	}
	v := f.rolls[f.next%len(f.rolls)]
	f.next++
	if v < 1 {
		v = 1
	}
	if v > sides {
		v = sides
	}
	return v
}
