package device

import (
	"strings"

	"go.bug.st/serial/enumerator"
)

// infineonVID is the USB vendor ID of Infineon radar baseboards.
const infineonVID = "058B"

// PortInfo annotates a device port with what the operating system knows
// about it.
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
	// Infineon is set when the USB vendor ID belongs to Infineon.
	Infineon bool `json:"infineon"`
}

// PortLister returns the operating system's serial port details.
type PortLister func() ([]*enumerator.PortDetails, error)

// DescribePorts matches port names against the operating system's serial
// port list. Ports the OS does not report keep only their name; an
// enumerator failure is logged and leaves every port undescribed.
func DescribePorts(ports []string) []PortInfo {
	return describePorts(enumerator.GetDetailedPortsList, ports)
}

func describePorts(list PortLister, ports []string) []PortInfo {
	out := make([]PortInfo, 0, len(ports))

	details, err := list()
	if err != nil {
		logf("serial port details unavailable: %v", err)
	}
	byName := make(map[string]*enumerator.PortDetails, len(details))
	for _, d := range details {
		if d != nil {
			byName[d.Name] = d
		}
	}

	for _, name := range ports {
		info := PortInfo{Name: name}
		if d, ok := byName[name]; ok {
			info.IsUSB = d.IsUSB
			info.VID = d.VID
			info.PID = d.PID
			info.SerialNumber = d.SerialNumber
			info.Product = d.Product
			info.Infineon = d.IsUSB && strings.EqualFold(d.VID, infineonVID)
		}
		out = append(out, info)
	}
	return out
}
