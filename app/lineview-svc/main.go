package main

import (
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"

	"github.com/wclement60/bus-connect-sub003/app/lineview-svc/lineview"
	"github.com/wclement60/bus-connect-sub003/foundation/database"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "LINEVIEW : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		DB   struct {
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		Nats struct {
			URL                 string `conf:"default:nats://localhost:4222"`
			SnapshotSubject     string `conf:"default:lineview.realtime-snapshot"`
			VehicleEventSubject string `conf:"default:lineview.vehicle-events"`
		}
		Line struct {
			NetworkId               string   `conf:"default:default"`
			RouteIds                []string
			VehiclePositionsUrl     string   `conf:"default:http://localhost:8100/vehiclePositions"`
			RefreshEverySeconds     int      `conf:"default:30"`
			VehiclePollEverySeconds int      `conf:"default:15"`
			AnimationSeconds        int      `conf:"default:5"`
			FrameMillis             int      `conf:"default:50"`
		}
		Web struct {
			Port int `conf:"default:8080"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Serve live line timetable and vehicle state"
	const prefix = "LINEVIEW"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	// =========================================================================
	// Start Database

	log.Println("main: Initializing database support")

	db, err := database.Open(database.Config{
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Host:       cfg.DB.Host,
		Name:       cfg.DB.Name,
		DisableTLS: cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Printf("main: Database Stopping : %s", cfg.DB.Host)
		err = db.Close()
		if err != nil {
			log.Printf("main: error closing database: %v", err)
		}
	}()

	// =========================================================================
	// Connect NATS

	log.Printf("main: Connecting to nats at %s", cfg.Nats.URL)
	natsConn, err := nats.Connect(cfg.Nats.URL)
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	defer natsConn.Close()

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	service := lineview.NewService(log, db, natsConn, lineview.Conf{
		NetworkId:               cfg.Line.NetworkId,
		RouteIds:                cfg.Line.RouteIds,
		HTTPPort:                cfg.Web.Port,
		RefreshEverySeconds:     cfg.Line.RefreshEverySeconds,
		VehiclePollEverySeconds: cfg.Line.VehiclePollEverySeconds,
		VehiclePositionsUrl:     cfg.Line.VehiclePositionsUrl,
		SnapshotSubject:         cfg.Nats.SnapshotSubject,
		VehicleEventSubject:     cfg.Nats.VehicleEventSubject,
		AnimationSeconds:        cfg.Line.AnimationSeconds,
		FrameMillis:             cfg.Line.FrameMillis,
	})
	return service.Run(shutdown)
}
