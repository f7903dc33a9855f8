package memory

import (
	"testing"

	"github.com/marcolindberg/gobc/addr"
	"github.com/stretchr/testify/assert"
)

func TestTimerOverflowReloadsAfterDelay(t *testing.T) {
	timer := &Timer{}
	timer.SetSeed(0)
	fired := 0
	timer.TimerInterruptHandler = func() { fired++ }

	timer.Write(addr.TAC, 0x05) // enabled, fastest rate (bit 3)
	timer.Write(addr.TMA, 0x7A)
	timer.Write(addr.TIMA, 0xFF)

	// Tick until TIMA overflows; the interrupt should not fire on the same
	// tick that rolls over to 0x00, only after the reload delay.
	for i := 0; i < 16 && timer.tima != 0; i++ {
		timer.Tick(1)
	}
	assert.Equal(t, byte(0x00), timer.tima)
	assert.Equal(t, 0, fired)

	timer.Tick(4)
	assert.Equal(t, byte(0x7A), timer.tima)
	assert.Equal(t, 1, fired)
}

func TestTimerDividerResetsOnWrite(t *testing.T) {
	timer := &Timer{}
	timer.SetSeed(0x1234)
	timer.Write(addr.DIV, 0x99)
	assert.Equal(t, byte(0x00), timer.Read(addr.DIV))
}
