package console

import (
	"strings"

	"go.bug.st/serial/enumerator"
)

// PicoVID is the Raspberry Pi USB vendor ID used by the bridge's Pico W.
const PicoVID = "2E8A"

// PortInfo holds details about a serial port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// IsPico reports whether the port belongs to a Raspberry Pi Pico board.
func (p PortInfo) IsPico() bool {
	return p.IsUSB && strings.EqualFold(p.VID, PicoVID)
}

// ListPorts returns available serial ports.
func ListPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	var result []PortInfo
	for _, p := range ports {
		result = append(result, PortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	return result, nil
}

// FindPico returns the first Pico port, if any.
func FindPico(ports []PortInfo) (PortInfo, bool) {
	for _, p := range ports {
		if p.IsPico() {
			return p, true
		}
	}
	return PortInfo{}, false
}
