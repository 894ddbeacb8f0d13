package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"github.com/itohio/capdance/pkg/buttons"
	"github.com/itohio/capdance/pkg/config"
	"github.com/itohio/capdance/pkg/handoff"
	"github.com/itohio/capdance/pkg/pad"
	"github.com/itohio/capdance/pkg/sampler"
	"github.com/itohio/capdance/pkg/sensor"
	"github.com/itohio/capdance/pkg/stats"
	"github.com/itohio/capdance/pkg/telemetry"
)

func main() {
	var (
		portFlag     = flag.String("p", "", "Sampling bridge serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag   = flag.String("config", "capdance.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use mocked sensors instead of the sampling bridge")
		teleplotFlag = flag.String("teleplot", "", "Teleplot output: serial port, or - for stdout (overrides config)")
		playerFlag   = flag.Int("player", 0, "Keymap of player 1 or 2 (overrides config)")
		layoutFlag   = flag.String("layout", "", fmt.Sprintf("Built-in layout %v (overrides config)", pad.BuiltinNames()))
		portsFlag    = flag.Bool("ports", false, "List serial ports and exit")
		consoleFlag  = flag.Bool("console", true, "Read config commands from stdin")
	)
	flag.Parse()

	if *portsFlag {
		listPorts()
		return
	}

	cfg := loadConfig(*configFlag)

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *teleplotFlag != "" {
		cfg.Serial.TeleplotPort = *teleplotFlag
	}
	if *playerFlag != 0 {
		cfg.Pad.Player = *playerFlag
	}
	if *layoutFlag != "" {
		cfg.Pad.Layout = *layoutFlag
		cfg.Pad.Sensors = nil
	}

	layout, err := cfg.Layout()
	if err != nil {
		log.Fatalf("Invalid sensor layout: %v", err)
	}
	keymap, err := buttons.PlayerKeymap(cfg.Pad.Player)
	if err != nil {
		log.Fatalf("Invalid player: %v", err)
	}
	store, err := config.NewStore(cfg.Tunables)
	if err != nil {
		log.Fatalf("Invalid tunables: %v", err)
	}

	bank, closeBank, err := openBank(cfg, *mockFlag)
	if err != nil {
		log.Fatalf("Failed to open sensors: %v", err)
	}
	defer closeBank()

	poller, err := sensor.NewPoller(layout, bank)
	if err != nil {
		log.Fatalf("Failed to create poller: %v", err)
	}

	ring, err := telemetry.NewRing(telemetry.DefaultRingSize)
	if err != nil {
		log.Fatalf("Failed to create telemetry buffer: %v", err)
	}
	status := handoff.NewStatusQueue()
	snapshots := handoff.NewMailbox[*stats.Snapshot]()

	summary := cfg.Serial.SummarySensor
	tap, err := summaryTap(layout, ring, summary)
	if err != nil {
		log.Fatalf("Invalid summary_sensor: %v", err)
	}

	driver, err := sampler.New(layout, poller, store,
		sampler.WithStatus(status),
		sampler.WithSnapshots(snapshots),
		sampler.WithTap(tap),
	)
	if err != nil {
		log.Fatalf("Failed to create sampler: %v", err)
	}

	tele := telemetry.NewReporter(ring)
	closers := openSinks(cfg, tele)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	loop := newReportLoop(layout, store, driver, status, snapshots, keymap, tele)
	loop.summarySensor = summary

	if *consoleFlag {
		go runConsole(os.Stdin, os.Stdout, store, cfg, *configFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := driver.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	})
	g.Go(func() error {
		// a blocked sensor read only returns once the bank is closed
		<-ctx.Done()
		closeBank()
		return nil
	})
	g.Go(func() error {
		return loop.Run(ctx)
	})

	log.Printf("capdance: layout %s, %d sensors, player %d", layout.Name(), layout.Len(), cfg.Pad.Player)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("capdance: %v", err)
	}
	log.Println("capdance: stopped")
}

// loadConfig loads the config file. A file written with another schema version
// is replaced by defaults.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrVersionMismatch) {
		log.Printf("Config %s: %v, resetting to defaults", path, err)
		cfg = config.Default()
		if err := cfg.Save(path); err != nil {
			log.Printf("Failed to save default configuration: %v", err)
		}
		return cfg
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

// openBank returns the mocked bank or the sampling bridge on the configured port.
func openBank(cfg *config.Config, mock bool) (sensor.Bank, func() error, error) {
	if mock {
		m := sensor.NewMock(&cfg.Mock)
		return m, m.Close, nil
	}
	s, err := sensor.OpenSerial(cfg.Serial.Port, cfg.Serial.BaudRate)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// summaryTap feeds the readings of one sensor into the telemetry ring.
func summaryTap(layout *pad.Layout, ring *telemetry.Ring, index int) (func(round []int16), error) {
	if index < 0 || index >= layout.Len() {
		return nil, fmt.Errorf("sensor %d not in layout %s with %d sensors", index, layout.Name(), layout.Len())
	}
	return func(round []int16) {
		ring.Push(round[index])
	}, nil
}

// openSinks attaches the configured telemetry sinks.
func openSinks(cfg *config.Config, tele *telemetry.Reporter) []io.Closer {
	var closers []io.Closer

	switch cfg.Serial.TeleplotPort {
	case "":
	case "-":
		tele.AddSink(telemetry.NewTeleplot(os.Stdout))
	default:
		port, err := serial.Open(cfg.Serial.TeleplotPort, &serial.Mode{BaudRate: cfg.Serial.BaudRate})
		if err != nil {
			log.Printf("Failed to open teleplot port %s: %v", cfg.Serial.TeleplotPort, err)
			break
		}
		tele.AddSink(telemetry.NewTeleplot(port))
		closers = append(closers, port)
	}

	if cfg.MQTT.Broker != "" {
		sink, err := telemetry.ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			log.Printf("MQTT telemetry disabled: %v", err)
		} else {
			tele.AddSink(sink)
			closers = append(closers, sink)
		}
	}
	return closers
}

func listPorts() {
	ports, err := sensor.Ports()
	if err != nil {
		log.Fatalf("%v", err)
	}
	for _, p := range ports {
		fmt.Println(p.Name)
	}
}
