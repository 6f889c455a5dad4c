package radar

// DeviceInfo describes the radar front end as reported by the driver.
type DeviceInfo struct {
	Description       string `json:"description"`
	MinRFFrequencyKHz uint32 `json:"min_rf_frequency_khz"`
	MaxRFFrequencyKHz uint32 `json:"max_rf_frequency_khz"`
	NumTXAntennas     uint8  `json:"num_tx_antennas"`
	NumRXAntennas     uint8  `json:"num_rx_antennas"`
	MaxTXPower        uint8  `json:"max_tx_power"`
	NumTempSensors    uint8  `json:"num_temp_sensors"`
	HWMajor           uint8  `json:"hw_major"`
	HWMinor           uint8  `json:"hw_minor"`
	InterleavedRX     bool   `json:"interleaved_rx"`
}
