package hal

import "time"

// SysClock is a free-running microsecond counter based on the monotonic
// clock. The uint32 wraps roughly every 71 minutes; consumers handle the
// wrap with modular arithmetic.
type SysClock struct {
	start time.Time
}

// NewSysClock starts counting from now.
func NewSysClock() *SysClock {
	return &SysClock{start: time.Now()}
}

// Now returns microseconds since the clock started, modulo 2^32.
func (c *SysClock) Now() uint32 {
	return uint32(time.Since(c.start).Microseconds())
}
