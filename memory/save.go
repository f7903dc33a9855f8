package memory

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const saveMagic = "GOBCSAVE"

// SaveRAM serializes the cartridge's battery-backed external RAM (and, for
// MBC3, the RTC state) to a byte slice suitable for writing to a host file.
// Returns nil, nil if the cartridge has no battery.
func (m *MMU) SaveRAM() ([]byte, error) {
	if m.mbc == nil || !m.mbc.HasBattery() {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.WriteString(saveMagic)

	ram := m.mbc.ExternalRAM()
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(ram))); err != nil {
		return nil, err
	}
	buf.Write(ram)

	if carrier, ok := m.mbc.(rtcCarrier); ok {
		snap := carrier.RTCState()
		buf.WriteByte(1)
		if err := binary.Write(&buf, binary.LittleEndian, snap); err != nil {
			return nil, err
		}
	} else {
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

// LoadSaveRAM restores external RAM (and RTC state, if present) previously
// produced by SaveRAM. A length mismatch against the currently loaded
// cartridge's RAM is an error, since it almost certainly means the save
// belongs to a different ROM.
func (m *MMU) LoadSaveRAM(data []byte) error {
	if m.mbc == nil || !m.mbc.HasBattery() {
		return fmt.Errorf("memory: cartridge has no battery-backed RAM")
	}

	r := bytes.NewReader(data)
	magic := make([]byte, len(saveMagic))
	if _, err := r.Read(magic); err != nil || string(magic) != saveMagic {
		return fmt.Errorf("memory: not a valid save file")
	}

	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return err
	}

	ram := m.mbc.ExternalRAM()
	if int(length) != len(ram) {
		return fmt.Errorf("memory: save RAM size %d does not match cartridge RAM size %d", length, len(ram))
	}
	if _, err := r.Read(ram); err != nil {
		return err
	}

	hasRTC, err := r.ReadByte()
	if err != nil {
		return err
	}
	if hasRTC == 1 {
		carrier, ok := m.mbc.(rtcCarrier)
		if !ok {
			return fmt.Errorf("memory: save file carries RTC state but cartridge has no RTC")
		}
		var snap rtcSnapshot
		if err := binary.Read(r, binary.LittleEndian, &snap); err != nil {
			return err
		}
		carrier.RestoreRTCState(snap)
	}

	return nil
}
