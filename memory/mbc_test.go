package memory

import "testing"

func TestMBC1(t *testing.T) {
	t.Run("ROM Bank 0 (Fixed)", func(t *testing.T) {
		rom := make([]uint8, 0x8000)
		for i := range rom {
			rom[i] = uint8(i & 0xFF)
		}
		mbc := NewMBC1(rom, false, 0)
		for addr := uint16(0x0000); addr < 0x4000; addr++ {
			if got, want := mbc.Read(addr), uint8(addr&0xFF); got != want {
				t.Errorf("Read(0x%04X) = 0x%02X; want 0x%02X", addr, got, want)
			}
		}
	})

	t.Run("ROM Bank Switching", func(t *testing.T) {
		rom := make([]uint8, 0x10000)
		for i := range rom {
			rom[i] = uint8(i / 0x4000)
		}
		mbc := NewMBC1(rom, false, 0)
		mbc.Write(0x2000, 2)
		if got := mbc.Read(0x4000); got != 2 {
			t.Errorf("Read(0x4000) = 0x%02X; want 0x02", got)
		}
	})

	t.Run("Bank 0 Translation", func(t *testing.T) {
		mbc := NewMBC1(make([]uint8, 0x8000), false, 0)
		mbc.Write(0x2000, 0)
		if mbc.romBank != 1 {
			t.Errorf("ROM bank 0 not translated to 1, got %d", mbc.romBank)
		}
	})

	t.Run("Bank 0x20/0x40/0x60 skip quirk", func(t *testing.T) {
		mbc := NewMBC1(make([]uint8, 0x200000), false, 0)
		mbc.Write(0x2000, 0x20)
		if mbc.romBank != 0x01 {
			t.Errorf("expected 0x20 written to the low bank register to select bank 0x01, got 0x%02X", mbc.romBank)
		}
	})

	t.Run("RAM Enable/Disable", func(t *testing.T) {
		mbc := NewMBC1(make([]uint8, 0x8000), false, 1)
		if got := mbc.Read(0xA000); got != 0xFF {
			t.Errorf("disabled RAM read = 0x%02X; want 0xFF", got)
		}
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA000, 0x42)
		if got := mbc.Read(0xA000); got != 0x42 {
			t.Errorf("enabled RAM read = 0x%02X; want 0x42", got)
		}
	})
}

func TestMBC2BuiltinRAM(t *testing.T) {
	mbc := NewMBC2(make([]uint8, 0x8000), false)
	mbc.Write(0x0000, 0x0A) // enable
	mbc.Write(0xA000, 0xF7)
	if got := mbc.Read(0xA000); got != 0xF7 {
		t.Errorf("MBC2 RAM should mask to low nibble (with high nibble always 1), got 0x%02X", got)
	}
}

func TestMBC3RTCLatch(t *testing.T) {
	rom := make([]uint8, 0x8000)
	mbc := NewMBC3(rom, true, true, 1)

	mbc.Write(0x0000, 0x0A) // RAM/RTC enable
	mbc.Write(0x4000, 0x08) // select seconds register
	mbc.Write(0x6000, 0x00)
	mbc.Write(0x6000, 0x01) // latch
	if got := mbc.Read(0xA000); got != 0 {
		t.Errorf("freshly latched seconds = %d; want 0", got)
	}
}

func TestMBC5WideROMBank(t *testing.T) {
	rom := make([]uint8, 600*0x4000)
	for bank := 0; bank < 600; bank++ {
		rom[bank*0x4000] = uint8(bank)
		rom[bank*0x4000+1] = uint8(bank >> 8)
	}
	mbc := NewMBC5(rom, false, false, 0)
	mbc.Write(0x2000, 0x58) // low 8 bits of bank 344 (0x158)
	mbc.Write(0x3000, 0x01) // bit 8
	if got := mbc.Read(0x4000); got != 0x58 {
		t.Errorf("Read(0x4000) = 0x%02X; want 0x58", got)
	}
}
