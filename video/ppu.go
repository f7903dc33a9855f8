package video

import (
	"fmt"
	"log/slog"

	"github.com/marcolindberg/gobc/addr"
	"github.com/marcolindberg/gobc/bit"
	"github.com/marcolindberg/gobc/memory"
)

// Mode is the PPU's current rendering stage, matching STAT bits 1-0.
type Mode int

const (
	HBlankMode Mode = 0
	VBlankMode Mode = 1
	OAMReadMode Mode = 2
	VRAMReadMode Mode = 3
)

const (
	hblankCycles       = 204
	oamScanlineCycles  = 80
	vramScanlineCycles = 172
	scanlineCycles     = oamScanlineCycles + vramScanlineCycles + hblankCycles
	cyclesPerFrame     = 70224
)

// PPU renders one scanline at a time into a FrameBuffer, driving its mode
// state machine off CPU cycle counts rather than modeling the per-pixel
// fetcher/FIFO (out of scope, see the core's design notes).
type PPU struct {
	memory      *memory.MMU
	framebuffer *FrameBuffer
	bgPixelBuffer    []byte // BG/window color index per pixel, for sprite priority
	bgPriorityBuffer []bool // CGB BG-to-OBJ priority bit per pixel
	spritePriority   *SpritePriorityBuffer

	colorMode bool
	cgbPalette *CGBPalette

	mode           Mode
	line           int
	cycles         int
	modeCounterAux int
	vBlankLine     int
	isScanLineTransfered bool
	windowLine     int
}

// NewPPU creates a PPU bound to mmu. colorMode enables CGB tile
// attributes, palette RAM, and OAM-index-only sprite priority.
func NewPPU(mmu *memory.MMU, colorMode bool, gamma, saturation float64) *PPU {
	ppu := &PPU{
		memory:           mmu,
		framebuffer:      NewFrameBuffer(),
		bgPixelBuffer:    make([]byte, FramebufferSize),
		bgPriorityBuffer: make([]bool, FramebufferSize),
		spritePriority:   NewSpritePriorityBuffer(colorMode),
		colorMode:        colorMode,
		mode:             VBlankMode,
		line:             144,
	}
	mmu.SetPPUMode(int(VBlankMode))
	if colorMode {
		ppu.cgbPalette = NewCGBPalette(gamma, saturation)
	}

	lcdc := mmu.Read(addr.LCDC)
	slog.Debug("PPU initialized", "LCDC", fmt.Sprintf("0x%02X", lcdc), "colorMode", colorMode)

	return ppu
}

func (p *PPU) GetFrameBuffer() *FrameBuffer { return p.framebuffer }

// Tick advances the PPU's mode state machine by cycles CPU clock ticks,
// rendering a scanline when VRAMReadMode is first entered and requesting
// STAT/VBlank interrupts on mode transitions.
func (p *PPU) Tick(cycles int) {
	p.cycles += cycles

	switch p.mode {
	case HBlankMode:
		if p.cycles < hblankCycles {
			break
		}
		p.cycles -= hblankCycles
		p.setMode(OAMReadMode)
		p.setLY(p.line + 1)

		if p.line == 144 {
			p.setMode(VBlankMode)
			p.vBlankLine = 0
			p.modeCounterAux = p.cycles
			p.windowLine = 0

			p.memory.RequestInterrupt(addr.VBlankInterrupt)
			if p.memory.ReadBit(uint8(statVblankIrq), addr.STAT) {
				p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
			}
		} else if p.memory.ReadBit(uint8(statOamIrq), addr.STAT) {
			p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	case VBlankMode:
		p.modeCounterAux += cycles

		if p.modeCounterAux >= scanlineCycles {
			p.modeCounterAux -= scanlineCycles
			p.vBlankLine++
			if p.vBlankLine <= 9 {
				p.setLY(p.line + 1)
			}
		}

		if p.cycles >= 4104 && p.modeCounterAux >= 4 && p.line == 153 {
			p.setLY(0)
		}

		if p.cycles >= 4560 {
			p.cycles -= 4560
			p.setMode(OAMReadMode)
			if p.memory.ReadBit(uint8(statOamIrq), addr.STAT) {
				p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
			}
		}
	case OAMReadMode:
		if p.cycles >= oamScanlineCycles {
			p.cycles -= oamScanlineCycles
			p.setMode(VRAMReadMode)
			p.isScanLineTransfered = false
		}
	case VRAMReadMode:
		if !p.isScanLineTransfered {
			if p.readLCDCVariable(lcdDisplayEnable) == 1 {
				p.drawScanline()
			}
			p.isScanLineTransfered = true
		}

		if p.cycles >= vramScanlineCycles {
			p.cycles -= vramScanlineCycles
			p.setMode(HBlankMode)
			p.memory.NotifyHBlank()
			if p.memory.ReadBit(uint8(statHblankIrq), addr.STAT) {
				p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
			}
		}
	}

	if p.cycles >= cyclesPerFrame {
		p.cycles -= cyclesPerFrame
	}
}

func (p *PPU) drawScanline() {
	if p.readLCDCVariable(lcdDisplayEnable) != 1 {
		lineWidth := p.line * FramebufferWidth
		for i := 0; i < FramebufferWidth; i++ {
			p.framebuffer.buffer[lineWidth+i] = uint32(ClassicWhite)
		}
		return
	}

	p.drawBackground()
	p.drawWindow()
	p.drawSprites()
}

// bgTileAttributes decodes the CGB-only tile attribute byte stored in VRAM
// bank 1 at the same offset as the tile map entry in bank 0.
type bgTileAttributes struct {
	palette  int
	bank     int
	flipX    bool
	flipY    bool
	priority bool
}

func (p *PPU) readBGAttributes(tileMapAddr uint16) bgTileAttributes {
	if !p.colorMode {
		return bgTileAttributes{}
	}
	raw := p.memory.ReadVRAMBank(1, tileMapAddr)
	return bgTileAttributes{
		palette:  int(raw & 0x07),
		bank:     int((raw >> 3) & 0x01),
		flipX:    bit.IsSet(5, raw),
		flipY:    bit.IsSet(6, raw),
		priority: bit.IsSet(7, raw),
	}
}

func (p *PPU) bgColor(attrs bgTileAttributes, colorIndex byte) uint32 {
	if !p.colorMode {
		palette := p.memory.Read(addr.BGP)
		shade := (palette >> (colorIndex * 2)) & 0x03
		return ClassicShadeForIndex(shade)
	}
	bgr555 := p.memory.BGPaletteColor15(attrs.palette, int(colorIndex))
	return p.cgbPalette.Lookup(bgr555)
}

func (p *PPU) objColor(cgbPalette int, dmgPaletteAddr uint16, colorIndex byte) uint32 {
	if !p.colorMode {
		palette := p.memory.Read(dmgPaletteAddr)
		shade := (palette >> (colorIndex * 2)) & 0x03
		return ClassicShadeForIndex(shade)
	}
	bgr555 := p.memory.OBJPaletteColor15(cgbPalette, int(colorIndex))
	return p.cgbPalette.Lookup(bgr555)
}

func (p *PPU) drawBackground() {
	lineWidth := p.line * FramebufferWidth
	backgroundEnabled := p.readLCDCVariable(bgDisplay) == 1

	if !backgroundEnabled && !p.colorMode {
		color := p.bgColor(bgTileAttributes{}, 0)
		for i := range FramebufferWidth {
			p.framebuffer.buffer[lineWidth+i] = color
			p.bgPixelBuffer[lineWidth+i] = 0
			p.bgPriorityBuffer[lineWidth+i] = false
		}
		return
	}

	useSignedTileSet := p.readLCDCVariable(bgWindowTileDataSelect) == 0
	useTileMapZero := p.readLCDCVariable(bgTileMapDisplaySelect) == 0

	tilesAddr := addr.TileData0
	if useSignedTileSet {
		tilesAddr = addr.TileData2
	}
	tileMapAddr := addr.TileMap1
	if useTileMapZero {
		tileMapAddr = addr.TileMap0
	}

	scrollX := p.memory.Read(addr.SCX)
	scrollY := p.memory.Read(addr.SCY)
	lineScrolled := (p.line + int(scrollY)) & 0xFF
	lineScrolled32 := (lineScrolled / 8) * 32
	tilePixelY := lineScrolled % 8

	for screenPixelX := 0; screenPixelX < FramebufferWidth; screenPixelX++ {
		mapPixelX := (screenPixelX + int(scrollX)) & 0xFF
		mapTileX := mapPixelX / 8
		mapTileXOffset := mapPixelX % 8
		mapTileEntry := tileMapAddr + uint16(lineScrolled32+mapTileX)

		mapTileValue := p.memory.ReadVRAMAt(mapTileEntry)
		attrs := p.readBGAttributes(mapTileEntry)

		tilePixelYEffective := tilePixelY
		if attrs.flipY {
			tilePixelYEffective = 7 - tilePixelY
		}
		tilePixelY2 := tilePixelYEffective * 2

		tileAddr := tileAddressFor(tilesAddr, useSignedTileSet, mapTileValue, tilePixelY2)

		low := p.memory.ReadVRAMBank(attrs.bank, tileAddr)
		high := p.memory.ReadVRAMBank(attrs.bank, tileAddr+1)

		xOffset := mapTileXOffset
		if attrs.flipX {
			xOffset = 7 - mapTileXOffset
		}
		pixelIndex := uint8(7 - xOffset)

		pixel := byte(0)
		if bit.IsSet(pixelIndex, low) {
			pixel |= 1
		}
		if bit.IsSet(pixelIndex, high) {
			pixel |= 2
		}

		pos := lineWidth + screenPixelX
		p.framebuffer.buffer[pos] = p.bgColor(attrs, pixel)
		p.bgPixelBuffer[pos] = pixel
		p.bgPriorityBuffer[pos] = attrs.priority
	}
}

func tileAddressFor(tilesAddr uint16, signedTileSet bool, tileValue byte, pixelY2 int) uint16 {
	if signedTileSet {
		return uint16(int(tilesAddr) + int(int8(tileValue))*16 + pixelY2)
	}
	return tilesAddr + uint16(int(tileValue)*16+pixelY2)
}

func (p *PPU) drawWindow() {
	if p.windowLine > 143 {
		return
	}
	if p.readLCDCVariable(windowDisplayEnable) != 1 {
		return
	}

	wx := int(p.memory.Read(addr.WX)) - 7
	wy := p.memory.Read(addr.WY)
	if wx > 159 || wy > 143 || int(wy) > p.line {
		return
	}

	useSignedTileSet := p.readLCDCVariable(bgWindowTileDataSelect) == 0
	useTileMapZero := p.readLCDCVariable(windowTileMapSelect) == 0

	tilesAddr := addr.TileData0
	if useSignedTileSet {
		tilesAddr = addr.TileData2
	}
	tileMapAddr := addr.TileMap1
	if useTileMapZero {
		tileMapAddr = addr.TileMap0
	}

	y32 := (p.windowLine / 8) * 32
	pixelY := p.windowLine & 7
	lineWidth := p.line * FramebufferWidth

	endTileX := (FramebufferWidth - wx + 7) / 8
	if endTileX > 32 {
		endTileX = 32
	}

	for x := 0; x < endTileX; x++ {
		tileEntry := tileMapAddr + uint16(y32+x)
		tileValue := p.memory.ReadVRAMAt(tileEntry)
		attrs := p.readBGAttributes(tileEntry)

		effectivePixelY := pixelY
		if attrs.flipY {
			effectivePixelY = 7 - pixelY
		}
		tileAddr := tileAddressFor(tilesAddr, useSignedTileSet, tileValue, effectivePixelY*2)

		low := p.memory.ReadVRAMBank(attrs.bank, tileAddr)
		high := p.memory.ReadVRAMBank(attrs.bank, tileAddr+1)

		xOffset := x * 8
		for pixelX := 0; pixelX < 8; pixelX++ {
			bufferX := xOffset + pixelX + wx
			if bufferX < wx || bufferX >= FramebufferWidth {
				continue
			}

			srcX := pixelX
			if attrs.flipX {
				srcX = 7 - pixelX
			}
			pixelIndex := uint8(7 - srcX)

			pixel := byte(0)
			if bit.IsSet(pixelIndex, low) {
				pixel |= 1
			}
			if bit.IsSet(pixelIndex, high) {
				pixel |= 2
			}

			pos := lineWidth + bufferX
			if pos >= len(p.framebuffer.buffer) {
				continue
			}
			p.framebuffer.buffer[pos] = p.bgColor(attrs, pixel)
			p.bgPixelBuffer[pos] = pixel
			p.bgPriorityBuffer[pos] = attrs.priority
		}
	}
	p.windowLine++
}

func (p *PPU) drawSprites() {
	if p.readLCDCVariable(spriteDisplayEnable) != 1 {
		return
	}

	spriteHeight := 8
	if p.readLCDCVariable(spriteSize) == 1 {
		spriteHeight = 16
	}

	lineWidth := p.line * FramebufferWidth
	var spritesToDraw []int

	for sprite := 0; sprite < 40; sprite++ {
		oamAddr := addr.OAMStart + uint16(sprite*4)
		spriteY := int(p.memory.ReadOAMAt(oamAddr)) - 16
		if spriteY > p.line || (spriteY+spriteHeight) <= p.line {
			continue
		}
		spritesToDraw = append(spritesToDraw, sprite)
		if len(spritesToDraw) >= 10 {
			break
		}
	}

	p.spritePriority.Clear()
	for _, sprite := range spritesToDraw {
		oamAddr := addr.OAMStart + uint16(sprite*4)
		spriteX := int(p.memory.ReadOAMAt(oamAddr+1)) - 8
		for pixelOffset := range 8 {
			p.spritePriority.TryClaimPixel(spriteX+pixelOffset, sprite, spriteX)
		}
	}

	for _, sprite := range spritesToDraw {
		oamAddr := addr.OAMStart + uint16(sprite*4)
		spriteY := int(p.memory.ReadOAMAt(oamAddr)) - 16
		spriteX := int(p.memory.ReadOAMAt(oamAddr+1)) - 8
		spriteTile := p.memory.ReadOAMAt(oamAddr + 2)
		spriteFlags := p.memory.ReadOAMAt(oamAddr + 3)

		hasPixels := false
		for x := 0; x < 8; x++ {
			if p.spritePriority.GetOwner(spriteX+x) == sprite {
				hasPixels = true
				break
			}
		}
		if !hasPixels {
			continue
		}

		spriteMask := 0xFF
		if spriteHeight == 16 {
			spriteMask = 0xFE
		}
		spriteTile16 := (int(spriteTile) & spriteMask) * 16

		flipX := bit.IsSet(5, spriteFlags)
		flipY := bit.IsSet(6, spriteFlags)
		aboveBG := !bit.IsSet(7, spriteFlags)

		vramBank := 0
		cgbPaletteIdx := int(spriteFlags & 0x07)
		dmgPaletteAddr := addr.OBP0
		if p.colorMode {
			vramBank = int((spriteFlags >> 3) & 0x01)
		} else if bit.IsSet(4, spriteFlags) {
			dmgPaletteAddr = addr.OBP1
		}

		pixelY := p.line - spriteY
		if flipY {
			pixelY = spriteHeight - 1 - pixelY
		}

		var pixelY2, offset int
		if spriteHeight == 16 && pixelY >= 8 {
			pixelY2 = (pixelY - 8) * 2
			offset = 16
		} else {
			pixelY2 = pixelY * 2
		}

		tileAddr := addr.TileData0 + uint16(spriteTile16+pixelY2+offset)
		low := p.memory.ReadVRAMBank(vramBank, tileAddr)
		high := p.memory.ReadVRAMBank(vramBank, tileAddr+1)

		for pixelX := 0; pixelX < 8; pixelX++ {
			bufferX := spriteX + pixelX
			if p.spritePriority.GetOwner(bufferX) != sprite {
				continue
			}

			pixelIdx := 7 - pixelX
			if flipX {
				pixelIdx = pixelX
			}

			pixel := byte(0)
			if bit.IsSet(uint8(pixelIdx), low) {
				pixel |= 1
			}
			if bit.IsSet(uint8(pixelIdx), high) {
				pixel |= 2
			}
			if pixel == 0 {
				continue
			}

			position := lineWidth + bufferX
			if !aboveBG {
				if p.colorMode {
					// CGB: BG tile's own priority bit, or LCDC bit0 acting
					// as a master BG-over-everything switch, can still
					// override a non-priority sprite.
					if p.readLCDCVariable(bgDisplay) == 1 && (p.bgPriorityBuffer[position] || p.bgPixelBuffer[position] != 0) {
						continue
					}
				} else if p.bgPixelBuffer[position] != 0 {
					continue
				}
			}

			p.framebuffer.buffer[position] = p.objColor(cgbPaletteIdx, dmgPaletteAddr, pixel)
		}
	}
}

type statFlag uint8

const (
	statLycIrq       statFlag = 6
	statOamIrq       statFlag = 5
	statVblankIrq    statFlag = 4
	statHblankIrq    statFlag = 3
	statLycCondition statFlag = 2
)

type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteSize             lcdcFlag = 2
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

func (p *PPU) readLCDCVariable(flag lcdcFlag) byte {
	if bit.IsSet(uint8(flag), p.memory.Read(addr.LCDC)) {
		return 1
	}
	return 0
}

func (p *PPU) compareLYToLYC() {
	ly := p.memory.Read(addr.LY)
	lyc := p.memory.Read(addr.LYC)
	stat := p.memory.Read(addr.STAT)

	if ly == lyc {
		stat = bit.Set(uint8(statLycCondition), stat)
		if bit.IsSet(uint8(statLycIrq), stat) {
			p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		stat = bit.Reset(uint8(statLycCondition), stat)
	}
	p.memory.Write(addr.STAT, stat)
}

func (p *PPU) setMode(mode Mode) {
	p.mode = mode
	p.memory.SetPPUMode(int(mode))
	stat := p.memory.Read(addr.STAT)
	stat = stat&0xFC | byte(mode)
	p.memory.Write(addr.STAT, stat)
}

func (p *PPU) setLY(line int) {
	p.line = line
	p.memory.Write(addr.LY, byte(p.line))
	p.compareLYToLYC()
}

