package fake

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Counter is a helper to delay errors or actions. It can be nil without
// panics.
type Counter struct {
	sync.Mutex
	Value int
}

// NewCounter returns a new counter set to the given value.
func NewCounter(value int) *Counter {
	return &Counter{
		Value: value,
	}
}

// Done returns true when the counter reached zero.
func (c *Counter) Done() bool {
	if c == nil {
		return true
	}

	c.Lock()
	defer c.Unlock()

	return c.Value <= 0
}

// Decrease decrements the counter.
func (c *Counter) Decrease() {
	if c == nil {
		return
	}

	c.Lock()
	c.Value--
	c.Unlock()
}

// syncBuffer is a buffer safe for concurrent writes of a logger.
type syncBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.Lock()
	defer b.Unlock()

	return b.buf.String()
}

// CheckLog returns a logger and a check function. When called, the function
// verifies that the logger has written the message.
func CheckLog(msg string) (zerolog.Logger, func(t *testing.T)) {
	out := &syncBuffer{}
	logger := zerolog.New(out).Level(zerolog.TraceLevel)

	check := func(t *testing.T) {
		require.Contains(t, out.String(), msg)
	}

	return logger, check
}
