package memory

import "time"

// rtc implements the MBC3 real-time clock: five latched registers
// (seconds, minutes, hours, day-low, day-high/flags) plus a halt bit and a
// day-counter-overflow carry bit. Elapsed time is derived from a wall-clock
// base instant rather than ticked per CPU cycle, matching the hardware's
// independent oscillator.
type rtc struct {
	base     time.Time // instant the counter was last synced to latched/seconds=0
	halted   bool
	haltedAt time.Time // wall time at which halt began

	latched   bool
	seconds   byte
	minutes   byte
	hours     byte
	days      uint16 // 9-bit day counter
	dayCarry  bool   // overflow past day 511
	selectReg byte   // which of the 5 registers 0x08-0x0C is selected

	now func() time.Time
}

func newRTC() *rtc {
	return &rtc{base: time.Time{}, now: time.Now}
}

// elapsed returns the number of whole seconds accumulated since base,
// pinned to the halt instant while halted.
func (r *rtc) elapsed() int64 {
	if r.base.IsZero() {
		return 0
	}
	end := r.now()
	if r.halted {
		end = r.haltedAt
	}
	return int64(end.Sub(r.base).Seconds())
}

// latch copies the live, derived time-of-day into the readable registers.
// Writing 0x00 then 0x01 to the latch-clock-data register (0x6000-0x7FFF
// banking-mode-select address space, handled by the MBC) triggers this.
func (r *rtc) latch() {
	total := r.elapsed()
	days := total / 86400
	rem := total % 86400
	r.hours = byte((rem / 3600) % 24)
	r.minutes = byte((rem / 60) % 60)
	r.seconds = byte(rem % 60)
	if days > 511 {
		r.dayCarry = true
		days = days % 512
	}
	r.days = uint16(days)
}

func (r *rtc) readSelected() byte {
	switch r.selectReg {
	case 0x08:
		return r.seconds
	case 0x09:
		return r.minutes
	case 0x0A:
		return r.hours
	case 0x0B:
		return byte(r.days)
	case 0x0C:
		v := byte(r.days>>8) & 0x01
		if r.halted {
			v |= 0x40
		}
		if r.dayCarry {
			v |= 0x80
		}
		return v
	default:
		return 0xFF
	}
}

// writeSelected writes the selected register, then rebases base so the
// just-written value is what the next latch() reproduces rather than being
// overwritten by it.
func (r *rtc) writeSelected(value byte) {
	r.latch()
	switch r.selectReg {
	case 0x08:
		r.seconds = value % 60
	case 0x09:
		r.minutes = value % 60
	case 0x0A:
		r.hours = value % 24
	case 0x0B:
		r.days = (r.days & 0x100) | uint16(value)
	case 0x0C:
		r.days = (r.days & 0x0FF) | (uint16(value&0x01) << 8)
		wasHalted := r.halted
		r.halted = value&0x40 != 0
		r.dayCarry = value&0x80 != 0
		if r.halted && !wasHalted {
			r.haltedAt = r.now()
		}
	}
	r.rebase()
}

// rebase re-anchors base to the instant that would derive the current
// days/hours/minutes/seconds fields via elapsed(), so a register write's
// effect is what the next latch() reproduces instead of being discarded by
// it.
func (r *rtc) rebase() {
	total := time.Duration(r.days)*24*time.Hour +
		time.Duration(r.hours)*time.Hour +
		time.Duration(r.minutes)*time.Minute +
		time.Duration(r.seconds)*time.Second
	if r.halted {
		r.base = r.haltedAt.Add(-total)
	} else {
		r.base = r.now().Add(-total)
	}
}

// snapshot/restore support save-file persistence (memory/save.go).
type rtcSnapshot struct {
	BaseUnixNano int64
	Halted       bool
	HaltedAtNano int64
	Seconds      byte
	Minutes      byte
	Hours        byte
	Days         uint16
	DayCarry     bool
}

func (r *rtc) snapshot() rtcSnapshot {
	r.latch()
	return rtcSnapshot{
		BaseUnixNano: r.base.UnixNano(),
		Halted:       r.halted,
		HaltedAtNano: r.haltedAt.UnixNano(),
		Seconds:      r.seconds,
		Minutes:      r.minutes,
		Hours:        r.hours,
		Days:         r.days,
		DayCarry:     r.dayCarry,
	}
}

func (r *rtc) restore(s rtcSnapshot) {
	r.base = time.Unix(0, s.BaseUnixNano)
	r.halted = s.Halted
	r.haltedAt = time.Unix(0, s.HaltedAtNano)
	r.seconds = s.Seconds
	r.minutes = s.Minutes
	r.hours = s.Hours
	r.days = s.Days
	r.dayCarry = s.DayCarry
}
