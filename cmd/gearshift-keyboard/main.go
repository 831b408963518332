// Command gearshift-keyboard reads an H-pattern gear shifter and types a key
// on a virtual keyboard for every gear change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/gearshift-keyboard/internal/config"
	"github.com/sweeney/gearshift-keyboard/internal/gpio"
	"github.com/sweeney/gearshift-keyboard/internal/keyboard"
	"github.com/sweeney/gearshift-keyboard/internal/logic"
	"github.com/sweeney/gearshift-keyboard/internal/mqtt"
	"github.com/sweeney/gearshift-keyboard/internal/status"
	"github.com/sweeney/gearshift-keyboard/internal/web"
)

func main() {
	def := config.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file")
	poll := flag.Duration("poll", def.Poll(), "Shifter polling interval")
	hold := flag.Duration("hold", def.Hold(), "Minimum key hold time")
	broker := flag.String("broker", def.MQTT.Broker, "MQTT broker address (empty to disable)")
	httpAddr := flag.String("http", def.HTTP.Addr, "HTTP status address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", def.Heartbeat(), "Heartbeat interval (0 to disable)")
	logLevel := flag.String("log-level", def.Logging.Level, "Log level: error, warn, info, debug")
	printState := flag.Bool("print-state", false, "Print current gear and exit")

	flag.Parse()

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfigFile(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	// Only flags given on the command line override the file.
	var o config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			o.Poll = poll
		case "hold":
			o.Hold = hold
		case "broker":
			o.Broker = broker
		case "http":
			o.HTTPAddr = httpAddr
		case "heartbeat":
			o.Heartbeat = heartbeat
		case "log-level":
			o.LogLevel = logLevel
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level, _ := config.ParseLogLevel(cfg.Logging.Level)
	logger := config.NewLogger(os.Stdout, level)

	if err := run(cfg, *printState, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, printState bool, logger *slog.Logger) error {
	sampler := gpio.NewRealSampler(cfg.Shifter.GPIOChip, cfg.Shifter.IIODevice, cfg.Shifter.ADCBits)
	defer sampler.Close()

	x, y, button := cfg.Channels()
	decoder := logic.NewDecoder(x, y, button, cfg.ToThresholds())
	if err := decoder.Begin(sampler); err != nil {
		return fmt.Errorf("init shifter: %w", err)
	}

	if printState {
		gear := decoder.CurrentPosition()
		fmt.Printf("Gear: %s, Shifter: %s\n", gear, connectedString(decoder.Connected()))
		return nil
	}

	keys, err := cfg.KeyMap()
	if err != nil {
		return err
	}

	kb := keyboard.NewUinput(cfg.Keyboard.Device)
	defer kb.Close()
	scheduler := logic.NewScheduler(kb, cfg.ToSchedulerConfig())
	if err := scheduler.Begin(); err != nil {
		return fmt.Errorf("init keyboard: %w", err)
	}

	var publisher mqtt.Publisher = mqtt.Discard{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.Discard{}
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Config{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			BufferSize: cfg.MQTT.Buffer,
		}, logger)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	// Tracker first so the STARTUP event carries a full snapshot.
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll().Milliseconds(),
		HoldMs:      cfg.Hold().Milliseconds(),
		QueueSize:   cfg.Keyboard.QueueCapacity,
		HeartbeatMs: cfg.Heartbeat().Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})
	tracker.SetMQTTConnected(mqttStatus.IsConnected())

	snap := tracker.Snapshot()
	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}); err != nil {
		logger.Warn("failed to publish startup event", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	broadcast := func() {}
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, logger)
		broadcast = srv.Broadcast

		g.Go(func() error {
			srv.Run(gctx)
			return nil
		})
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			return srv.Shutdown(sctx)
		})
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	logger.Info("started",
		"poll", cfg.Poll(), "hold", cfg.Hold(), "queue", cfg.Keyboard.QueueCapacity,
		"broker", cfg.MQTT.Broker, "heartbeat", cfg.Heartbeat())

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		defer cancel()
		return runLoop(gctx, loopDeps{
			decoder:    decoder,
			scheduler:  scheduler,
			keys:       keys,
			publisher:  publisher,
			mqttStatus: mqttStatus,
			tracker:    tracker,
			broadcast:  broadcast,
			heartbeat:  cfg.Heartbeat(),
			logger:     logger,
		}, time.Now, ticker.C, sigCh)
	})

	return g.Wait()
}

// loopDeps are the collaborators driven by runLoop.
type loopDeps struct {
	decoder    *logic.Decoder
	scheduler  *logic.Scheduler
	keys       logic.KeyMap
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	broadcast  func()
	heartbeat  time.Duration
	logger     *slog.Logger
}

func runLoop(ctx context.Context, d loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	monitor := logic.NewMonitor(d.keys, now())
	var (
		lastChange   time.Time
		samplerStats logic.DecoderStats
		mqttUp       bool
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("context canceled, shutting down")
			d.publishShutdown(now(), "CANCELED")
			return nil

		case s := <-sig:
			d.logger.Info("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			d.publishShutdown(now(), signalName)
			return nil

		case <-tick:
			t := now()
			changed := false

			gear := d.decoder.CurrentPosition()
			if st := d.decoder.Stats(); st != samplerStats {
				d.logger.Warn("shifter read error",
					"analog_errors", st.AnalogErrors, "digital_errors", st.DigitalErrors)
				samplerStats = st
			}

			events := monitor.Process(logic.Input{
				Gear:      gear,
				Connected: d.decoder.Connected(),
				Time:      t,
			})

			for _, event := range events {
				changed = true
				d.logger.Info("event", "type", event.Type, "gear", event.Gear,
					"previous", event.Previous, "connected", event.Connected)

				if event.Type == logic.EventGearChange {
					lastChange = event.Timestamp
					if event.Key != 0 && !d.scheduler.Enqueue(event.Key) {
						d.logger.Warn("key queue full, dropping", "key", event.Key)
					}
				}
				if err := d.publisher.Publish(event); err != nil {
					d.logger.Warn("publish error", "error", err)
				}
			}

			if ke := d.scheduler.Tick(t); ke != nil {
				changed = true
				if ke.Err != nil {
					d.logger.Warn("keyboard output error", "action", ke.Action, "key", ke.Key, "error", ke.Err)
				} else {
					d.logger.Debug("key", "action", ke.Action, "key", ke.Key)
				}
			}

			if !monitor.IsBaselined() {
				continue
			}

			if up := d.mqttStatus.IsConnected(); up != mqttUp {
				mqttUp = up
				changed = true
				d.tracker.SetMQTTConnected(up)
			}

			counts := logic.Totals(monitor.EventCountsSnapshot(), d.scheduler.Stats(), d.decoder.Stats())
			held, _ := d.scheduler.Held()
			current, connected := monitor.CurrentState()
			d.tracker.Update(status.Update{
				Gear:       current,
				Connected:  connected,
				Baselined:  true,
				Held:       held,
				Pending:    d.scheduler.Pending(),
				Counts:     counts,
				LastChange: lastChange,
			})

			if hb := monitor.CheckHeartbeat(t, d.heartbeat, counts); hb != nil {
				d.logger.Info("heartbeat", "uptime", hb.Uptime,
					"gear_changes", hb.Counts.GearChanges, "keys_pressed", hb.Counts.KeysPressed,
					"keys_dropped", hb.Counts.KeysDropped, "disconnects", hb.Counts.Disconnects)

				snap := d.tracker.Snapshot()
				if err := d.publisher.PublishSystem(mqtt.SystemEvent{
					Timestamp:  hb.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}); err != nil {
					d.logger.Warn("heartbeat publish error", "error", err)
				}
			}

			if changed {
				d.broadcast()
			}
		}
	}
}

func (d loopDeps) publishShutdown(t time.Time, reason string) {
	d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	snap := d.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		d.logger.Warn("failed to publish shutdown event", "error", err)
	} else {
		d.logger.Info("published shutdown event")
	}
}

func connectedString(c bool) string {
	if c {
		return "connected"
	}
	return "disconnected"
}
