package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/nodepath81/diffservd/internal/app"
	"github.com/nodepath81/diffservd/internal/config"
	"github.com/nodepath81/diffservd/internal/geoip"
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/packet"
	"github.com/nodepath81/diffservd/internal/simulate"
	"github.com/nodepath81/diffservd/internal/util"
	"github.com/nodepath81/diffservd/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		runCmd("config.yaml")
		return
	}

	switch os.Args[1] {
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		configPath := fs.String("config", "config.yaml", "path to scheduler config")
		_ = fs.Parse(os.Args[2:])
		runCmd(*configPath)
	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		configPath := fs.String("config", "config.yaml", "path to scheduler config")
		_ = fs.Parse(os.Args[2:])
		checkCmd(*configPath)
	case "inspect":
		inspectCmd(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Println(version.Version)
	case "help", "-h", "--help":
		printHelp()
	default:
		printHelp()
		os.Exit(1)
	}
}

func runCmd(configPath string) {
	logger := util.NewLogger()
	supervisor := app.NewSupervisor(configPath, logger)
	if err := supervisor.Start(); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")
	supervisor.Stop()
}

func checkCmd(configPath string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}
	if _, err := config.Build(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("config valid: kind=%s queues=%d\n", cfg.Kind, len(cfg.Queues))
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to scheduler config")
	srcIP := fs.String("src", "10.0.0.1", "source IPv4 address")
	dstIP := fs.String("dst", "10.0.0.2", "destination IPv4 address")
	proto := fs.Uint("proto", uint(headerview.ProtoTCP), "IP protocol number")
	srcPort := fs.Uint("src-port", 1234, "source port")
	dstPort := fs.Uint("dst-port", 80, "destination port")
	_ = fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}
	sched, err := config.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}

	buf := simulate.Build(simulate.Packet{
		SrcIP:   net.ParseIP(*srcIP),
		DstIP:   net.ParseIP(*dstIP),
		Proto:   uint8(*proto),
		SrcPort: uint16(*srcPort),
		DstPort: uint16(*dstPort),
	})
	view, err := headerview.Parse(buf, headerview.FramingPPP)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("header: src=%s dst=%s proto=%d src_port=%d dst_port=%d\n",
		view.SrcIP, view.DstIP, view.Proto, view.SrcPort, view.DstPort)

	pkt := packet.New(buf)
	if idx, ok := sched.Classify(pkt); ok {
		fmt.Printf("classify: class_index=%d\n", idx)
	} else {
		fmt.Println("classify: no match (classification failed)")
	}

	if cfg.GeoIPDB != "" {
		db := geoip.OpenOrNil(cfg.GeoIPDB)
		defer db.Close()
		if ann, ok := db.Lookup(view.DstIP); ok {
			fmt.Printf("geoip: dst_country=%s\n", ann.Country)
		} else {
			fmt.Println("geoip: no annotation")
		}
	}
}

func printHelp() {
	fmt.Print(`diffservd - DiffServ egress packet scheduler

Usage:
  diffservd run --config <path>      Start the scheduler with its control server
  diffservd check --config <path>    Validate a scheduler config
  diffservd inspect --config <path>  Classify one synthetic packet and print the result
  diffservd version                  Print build version
  diffservd help                     Show this help
`)
}
