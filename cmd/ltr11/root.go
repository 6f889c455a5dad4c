package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/ltr11/internal/config"
	"github.com/banshee-data/ltr11/internal/device"
	"github.com/banshee-data/ltr11/internal/driver"
	"github.com/banshee-data/ltr11/internal/driver/native"
	"github.com/banshee-data/ltr11/internal/driver/sim"
	"github.com/banshee-data/ltr11/internal/monitoring"
	"github.com/banshee-data/ltr11/internal/radar"
	"github.com/banshee-data/ltr11/internal/version"
)

// simPort is the port name of the simulated device.
const simPort = "sim0"

type app struct {
	configPath  string
	port        string
	simulate    bool
	minFirmware string
	quiet       bool

	cfg       *config.Config
	newDriver func(cfg *config.Config) (driver.Driver, error)
	create    func(name string) (io.WriteCloser, error)
}

func newApp() *app {
	return &app{newDriver: defaultDriver, create: createFile}
}

func createFile(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func defaultDriver(cfg *config.Config) (driver.Driver, error) {
	if cfg.Device.Simulate {
		return newSimulator(), nil
	}
	drv, err := native.New()
	if err != nil {
		return nil, fmt.Errorf("%w (build with -tags ltr11 or pass --sim)", err)
	}
	return drv, nil
}

// simProducePerRead keeps the simulated FIFO from overflowing for any
// sample count: a read is served once the FIFO holds the chunk, so at most
// one chunk plus one batch is ever buffered.
const simProducePerRead = 512

func newSimulator() *sim.Driver {
	drv := sim.New(simPort)
	drv.SetProduceRate(simPort, simProducePerRead)
	drv.DetectWith(simPort, simulatedVisitor)
	return drv
}

// simulatedVisitor walks up to the sensor, walks away and stays away, in
// phases of 20 polls.
func simulatedVisitor(call int) radar.Detection {
	phase := (call / 20) % 4
	d := radar.Detection{Motion: phase < 2, Direction: radar.Departing}
	if phase == 0 {
		d.Direction = radar.Approaching
	}
	return d
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "ltr11",
		Short:        "Inspect, configure and run presence policies on a BGT60LTR11AIP radar",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "configuration file (.yaml, .yml or .json)")
	pf.StringVarP(&a.port, "port", "p", "", "serial port of the radar (default: first device found)")
	pf.BoolVar(&a.simulate, "sim", false, "use a simulated device instead of the native library")
	pf.StringVar(&a.minFirmware, "min-firmware", radar.MinimumFirmware.String(), "minimum accepted firmware version")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress log output")

	root.AddCommand(
		newPortsCmd(a),
		newInfoCmd(a),
		newConfigCmd(a),
		newRegisterCmd(a),
		newCaptureCmd(a),
		newDetectCmd(a),
		newBlankCmd(a),
		newEscalateCmd(a),
		newDirectionCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration file, if any, and applies the global flags
// on top of it.
func (a *app) load(cmd *cobra.Command) error {
	if a.quiet {
		log.SetOutput(io.Discard)
		monitoring.SetLogger(nil)
	}

	cfg := config.Defaults()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Device.Port = a.port
	}
	if flags.Changed("sim") {
		cfg.Device.Simulate = a.simulate
	}
	if flags.Changed("min-firmware") {
		v, err := radar.ParseFirmwareVersion(a.minFirmware)
		if err != nil {
			return fmt.Errorf("--min-firmware: %w", err)
		}
		cfg.Device.MinFirmware = v
	}
	a.cfg = cfg
	return nil
}

func (a *app) openSession() (*device.Session, error) {
	drv, err := a.newDriver(a.cfg)
	if err != nil {
		return nil, err
	}
	return device.Open(drv, a.cfg.Device.Port, device.WithMinimumFirmware(a.cfg.Device.MinFirmware))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
