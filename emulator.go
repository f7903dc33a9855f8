package gobc

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcolindberg/gobc/cpu"
	"github.com/marcolindberg/gobc/memory"
	"github.com/marcolindberg/gobc/video"
)

// cyclesPerFrame is the fixed machine-cycle budget of one 59.7Hz frame:
// 154 scanlines (144 visible + 10 VBlank) at 456 cycles each.
const cyclesPerFrame = 70224

// DebuggerState is the Emulator's run mode, checked at the top of every
// Update call.
type DebuggerState int

const (
	// DebuggerRunning executes full frames normally.
	DebuggerRunning DebuggerState = iota
	// DebuggerPaused executes nothing until resumed or stepped.
	DebuggerPaused
	// DebuggerStep executes exactly one CPU instruction then pauses.
	DebuggerStep
)

// Emulator is the root struct and entry point for running the core: it
// owns the CPU, MMU, PPU and the bus that fans cycles between them, and
// exposes the host-facing surface a frontend drives (load a ROM, step a
// frame, read pixels/samples, forward input).
type Emulator struct {
	cfg Config

	cpu *cpu.CPU
	mem *memory.MMU
	ppu *video.PPU
	bus *bus

	colorMode bool

	mu               sync.RWMutex
	debuggerState    DebuggerState
	stepRequested    bool
	frameCount       uint64
	instructionCount uint64
}

// New creates an Emulator with no cartridge loaded, powered on with an
// empty NoMBC cartridge (matching the platform's no-game state).
func New(cfg Config) *Emulator {
	e := &Emulator{cfg: cfg}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))
	return e
}

// LoadCartridge powers the core on with romImage loaded, optionally
// restoring previously saved battery RAM/RTC state from saveData (pass nil
// for a fresh cartridge).
func (e *Emulator) LoadCartridge(romImage []byte, saveData []byte) error {
	cart := memory.NewCartridgeWithData(romImage)
	e.init(memory.NewWithCartridge(cart))

	if saveData != nil {
		if err := e.mem.LoadSaveRAM(saveData); err != nil {
			return fmt.Errorf("gobc: loading save data: %w", err)
		}
	}
	return nil
}

func (e *Emulator) init(mem *memory.MMU) {
	e.colorMode = e.resolveColorMode(mem)
	mem.SetColorMode(e.colorMode)

	e.mem = mem
	e.ppu = video.NewPPU(mem, e.colorMode, e.cfg.colorGamma(), e.cfg.colorSaturation())
	e.bus = newBus(mem, e.ppu)
	e.bus.resetCycles()
	e.frameCount = 0
	e.instructionCount = 0
	e.mem.APU.SetSampleRate(e.cfg.sampleRate())

	e.cpu = cpu.New(e.bus, e.colorMode)

	if !e.cfg.SkipBootROM && len(e.cfg.BootROM) > 0 {
		mem.SetBootROM(e.cfg.BootROM)
		e.cpu.Reg = cpu.Registers{}
	} else {
		mem.SetTimerSeed(0xABCC)
		e.cpu.Reset(e.colorMode)
	}

	e.debuggerState = DebuggerRunning
	slog.Debug("emulator initialized", "colorMode", e.colorMode, "title", mem.Cartridge().Title)
}

func (e *Emulator) resolveColorMode(mem *memory.MMU) bool {
	switch e.cfg.System {
	case SystemClassic:
		return false
	case SystemColor:
		return true
	default:
		return mem.Cartridge().ColorSupported
	}
}

// Reset reinitializes the currently loaded cartridge to power-on state.
func (e *Emulator) Reset() {
	cart := e.mem.Cartridge()
	e.init(memory.NewWithCartridge(cart))
}

// Update runs one frame: whole instructions until at least one frame's
// worth of cycles has elapsed, so the last instruction can carry the total
// a few cycles past it (or, in a paused/stepping debugger state, whatever
// that state calls for) and returns. A host calls this once per vsync.
func (e *Emulator) Update() {
	e.mu.RLock()
	state := e.debuggerState
	e.mu.RUnlock()

	switch state {
	case DebuggerPaused:
		return
	case DebuggerStep:
		e.mu.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.mu.Unlock()
		if !requested {
			return
		}
		e.stepCPU()
		e.SetDebuggerState(DebuggerPaused)
		return
	default:
		e.runFrame()
	}
}

func (e *Emulator) runFrame() {
	e.bus.resetCycles()
	for e.bus.total < cyclesPerFrame {
		e.stepCPU()
	}
	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.Reg.PC))
	}
}

func (e *Emulator) stepCPU() {
	e.cpu.Step()
	e.instructionCount++
}

// GetFrameBuffer returns the PPU's current framebuffer.
func (e *Emulator) GetFrameBuffer() *video.FrameBuffer { return e.ppu.GetFrameBuffer() }

// TakeAudioSamples drains up to count resampled stereo sample pairs
// produced since the last call.
func (e *Emulator) TakeAudioSamples(count int) []int16 {
	if count <= 0 {
		count = e.cfg.sampleBufferLength()
	}
	return e.mem.APU.GetSamples(count)
}

// Press forwards a button-down edge to the joypad, requesting the joypad
// interrupt on a high-to-low transition of a currently selected line group,
// and waking a classic-variant STOP freeze.
func (e *Emulator) Press(key memory.JoypadKey) {
	e.mem.Joypad().Press(key)
	e.cpu.Resume()
}

// Release forwards a button-up edge to the joypad.
func (e *Emulator) Release(key memory.JoypadKey) {
	e.mem.Joypad().Release(key)
}

// SaveRAM serializes battery-backed external RAM (and RTC state, for
// MBC3 cartridges) for host-side persistence. Returns nil, nil if the
// loaded cartridge has no battery.
func (e *Emulator) SaveRAM() ([]byte, error) { return e.mem.SaveRAM() }

// CPU exposes the CPU for debugger/introspection use.
func (e *Emulator) CPU() *cpu.CPU { return e.cpu }

// SetHooks attaches debugger observer callbacks (instruction/memory/stack)
// to the CPU. Pass the zero value to detach.
func (e *Emulator) SetHooks(hooks cpu.Hooks) { e.cpu.Hooks = hooks }

// MMU exposes the bus for debugger/introspection use.
func (e *Emulator) MMU() *memory.MMU { return e.mem }

// SetDebuggerState changes the run mode applied on the next Update call.
func (e *Emulator) SetDebuggerState(state DebuggerState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.debuggerState = state
}

// DebuggerState reports the current run mode.
func (e *Emulator) DebuggerState() DebuggerState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.debuggerState
}

// StepInstruction arms a single-instruction step for the next Update call,
// switching into DebuggerStep mode.
func (e *Emulator) StepInstruction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
}

// FrameCount returns the number of frames completed since the last Reset
// or LoadCartridge.
func (e *Emulator) FrameCount() uint64 { return e.frameCount }
