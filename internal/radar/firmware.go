package radar

import (
	"fmt"
	"strconv"
	"strings"
)

// FirmwareVersion is the RadarBaseboardMCU7 firmware version.
type FirmwareVersion struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
	Build uint16 `json:"build"`
}

// MinimumFirmware is the oldest firmware the acquisition layer supports.
var MinimumFirmware = FirmwareVersion{Major: 1, Minor: 1, Build: 5}

// AtLeast reports whether v is the same as or newer than min. Components are
// compared numerically, major first.
func (v FirmwareVersion) AtLeast(min FirmwareVersion) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	return v.Build >= min.Build
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// ParseFirmwareVersion parses "major.minor.build". Missing trailing
// components are zero, so "1.2" is 1.2.0.
func ParseFirmwareVersion(s string) (FirmwareVersion, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return FirmwareVersion{}, fmt.Errorf("empty firmware version")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return FirmwareVersion{}, fmt.Errorf("invalid firmware version %q: expected major.minor.build", s)
	}
	var out [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return FirmwareVersion{}, fmt.Errorf("invalid firmware version %q: %w", s, err)
		}
		out[i] = uint16(n)
	}
	return FirmwareVersion{Major: out[0], Minor: out[1], Build: out[2]}, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so versions can be
// written as strings in configuration files.
func (v *FirmwareVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseFirmwareVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (v FirmwareVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
