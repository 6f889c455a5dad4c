package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/ltr11/internal/device"
	"github.com/banshee-data/ltr11/internal/radar"
)

func newPortsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List radar devices that are not in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			drv, err := a.newDriver(a.cfg)
			if err != nil {
				return err
			}
			ports := device.DescribePorts(device.ListAvailablePorts(drv))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ports)
			}
			if len(ports) == 0 {
				fmt.Fprintln(out, "no devices found")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PORT\tVID:PID\tSERIAL\tPRODUCT")
			for _, p := range ports {
				id := "-"
				if p.IsUSB {
					id = p.VID + ":" + p.PID
				}
				product := p.Product
				if p.Infineon && product == "" {
					product = "Infineon radar baseboard"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, id, p.SerialNumber, product)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show firmware, front-end and configuration of the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			info, err := s.DeviceInfo()
			if err != nil {
				return err
			}
			cfg, err := device.ReadConfiguration(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session:   %s\n", s.ID())
			fmt.Fprintf(out, "firmware:  %s\n", s.Firmware())
			fmt.Fprintf(out, "device:    %s (hw %d.%d)\n", info.Description, info.HWMajor, info.HWMinor)
			fmt.Fprintf(out, "rf range:  %.3f - %.3f GHz\n",
				float64(info.MinRFFrequencyKHz)/1e6, float64(info.MaxRFFrequencyKHz)/1e6)
			fmt.Fprintf(out, "antennas:  %d tx, %d rx\n", info.NumTXAntennas, info.NumRXAntennas)
			fmt.Fprintf(out, "config:    %s\n", cfg)
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or write the device configuration",
	}
	cmd.AddCommand(newConfigGetCmd(a), newConfigSetCmd(a))
	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the configuration stored on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, err := device.ReadConfiguration(s)
			if err != nil {
				return err
			}
			return printConfiguration(cmd, cfg, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printConfiguration(cmd *cobra.Command, cfg radar.Configuration, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// radarFlags overrides fields of the radar section from the command line.
type radarFlags struct {
	mode              string
	adc               string
	pulseWidth        int
	pulseRepetition   int
	holdTime          int
	threshold         uint8
	txPower           uint8
	rxGain            uint8
	samplingFrequency uint32
	rfIndex           uint8
}

func (f *radarFlags) register(cmd *cobra.Command) {
	d := radar.DefaultConfiguration()
	fl := cmd.Flags()
	fl.StringVar(&f.mode, "mode", d.Mode.String(), "continuous or pulsed")
	fl.StringVar(&f.adc, "adc", d.ADC.String(), "internal or baseboard")
	fl.IntVar(&f.pulseWidth, "pulse-width", d.PulseWidth, "pulse width index (0-3)")
	fl.IntVar(&f.pulseRepetition, "pulse-repetition", d.PulseRepetition, "pulse repetition index (0-3)")
	fl.IntVar(&f.holdTime, "hold-time", d.HoldTime, "detector hold time index (0-15)")
	fl.Uint8Var(&f.threshold, "threshold", d.DetectionThreshold, "detection threshold (0 most sensitive, 15 least)")
	fl.Uint8Var(&f.txPower, "tx-power", d.TXPowerLevel, "transmit power level (0-7)")
	fl.Uint8Var(&f.rxGain, "rx-gain", d.RXIFGain, "receiver IF gain (0-8)")
	fl.Uint32Var(&f.samplingFrequency, "sampling-frequency", d.SamplingFrequencyHz, "sampling frequency in Hz (continuous mode)")
	fl.Uint8Var(&f.rfIndex, "rf-index", d.RFCenterFreqIndex, "RF center frequency index (0-14)")
}

// apply returns base with every flag the user set.
func (f *radarFlags) apply(cmd *cobra.Command, base radar.Configuration) (radar.Configuration, error) {
	fl := cmd.Flags()
	cfg := base
	if fl.Changed("mode") {
		if err := cfg.Mode.UnmarshalText([]byte(f.mode)); err != nil {
			return cfg, err
		}
	}
	if fl.Changed("adc") {
		if err := cfg.ADC.UnmarshalText([]byte(f.adc)); err != nil {
			return cfg, err
		}
	}
	if fl.Changed("pulse-width") {
		cfg.PulseWidth = f.pulseWidth
	}
	if fl.Changed("pulse-repetition") {
		cfg.PulseRepetition = f.pulseRepetition
	}
	if fl.Changed("hold-time") {
		cfg.HoldTime = f.holdTime
	}
	if fl.Changed("threshold") {
		cfg.DetectionThreshold = f.threshold
	}
	if fl.Changed("tx-power") {
		cfg.TXPowerLevel = f.txPower
	}
	if fl.Changed("rx-gain") {
		cfg.RXIFGain = f.rxGain
	}
	if fl.Changed("sampling-frequency") {
		cfg.SamplingFrequencyHz = f.samplingFrequency
	}
	if fl.Changed("rf-index") {
		cfg.RFCenterFreqIndex = f.rfIndex
	}
	return cfg, cfg.Validate()
}

func newConfigSetCmd(a *app) *cobra.Command {
	var f radarFlags
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Write the configured radar section, with flag overrides, to the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.apply(cmd, a.cfg.Radar)
			if err != nil {
				return err
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := device.Apply(s, cfg); err != nil {
				return err
			}
			got, err := device.ReadConfiguration(s)
			if err != nil {
				return err
			}
			if !got.Equivalent(cfg) {
				return fmt.Errorf("device reports %s after writing %s", got, cfg)
			}
			return printConfiguration(cmd, got, false)
		},
	}
	f.register(cmd)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Read or write raw chip registers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "read ADDR",
			Short: "Read a 16-bit register",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseUint(args[0], 8)
				if err != nil {
					return fmt.Errorf("register address: %w", err)
				}
				s, err := a.openSession()
				if err != nil {
					return err
				}
				defer s.Close()

				v, err := s.ReadRegister(uint8(addr))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "0x%02x = 0x%04x\n", addr, v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "write ADDR VALUE",
			Short: "Write a 16-bit register",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseUint(args[0], 8)
				if err != nil {
					return fmt.Errorf("register address: %w", err)
				}
				value, err := parseUint(args[1], 16)
				if err != nil {
					return fmt.Errorf("register value: %w", err)
				}
				s, err := a.openSession()
				if err != nil {
					return err
				}
				defer s.Close()

				return s.WriteRegister(uint8(addr), uint16(value))
			},
		},
	)
	return cmd
}

// parseUint accepts decimal, 0x hex and 0b binary numbers.
func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}
