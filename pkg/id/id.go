// Package id issues sweep run identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator issues ULIDs that sort by creation time, also within one
// millisecond.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator uses now and a monotonic reader over seed. Tests pass a fixed
// clock and seed to get repeatable ids.
func NewGenerator(now func() time.Time, seed int64) *Generator {
	return &Generator{
		now:     now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// only when the clock runs backwards past the monotonic window
		panic(err)
	}
	return id.String()
}

var std = NewGenerator(time.Now, seed())

func seed() int64 {
	var s int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &s)
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return s
}

// New returns a fresh run id.
func New() string { return std.Next() }

// Time reports when a run id was issued.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("run id %q: %w", s, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}
