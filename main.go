package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rkjdid/util"
	"github.com/solar3s/eeprommer/hal"
	"github.com/solar3s/eeprommer/programmer"
	"github.com/solar3s/eeprommer/web"
)

var rootConfig *web.Config

var (
	device   = flag.String("dev", "", "path to serial port, if empty it will be searched automatically")
	rootPath = flag.String("root", "", "path to eeprommer's main directory (defaults to executable path)")
	cfgPath  = flag.String("config", "", "path to config (defaults to <root>/config.toml)")
	sim      = flag.Bool("sim", false, "drive a simulated chip instead of gpio pins")
	verbose  = flag.Bool("v", false, "higher verbosity")
	version  = flag.Bool("version", false, "print version & exit")
)

func init() {
	flag.Parse()

	// print version & exit
	if *version {
		fmt.Printf("eeprommer %s\n", Version)
		os.Exit(0)
	}

	if *rootPath == "" {
		exe, err := os.Executable()
		if err != nil {
			log.Fatalf("couldn't get path to executable: %s", err)
		}
		*rootPath = filepath.Dir(exe)
	}
	err := os.MkdirAll(*rootPath, 0755)
	if err != nil {
		log.Fatalf("couldn't mkdir \"%s\": %s", *rootPath, err)
	}

	if *cfgPath == "" {
		*cfgPath = filepath.Join(*rootPath, "config.toml")
	}

	err = util.ReadTomlFile(&rootConfig, *cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("error reading config \"%s\": %s", *cfgPath, err)
		}
		rootConfig = &web.DefaultConfig
		err = util.WriteTomlFile(rootConfig, *cfgPath)
		if err != nil {
			log.Fatalf("error creating config \"%s\": %s", *cfgPath, err)
		}
		log.Printf("created new config file \"%s\"", *cfgPath)
	}

	if *device != "" {
		rootConfig.Device = *device
	}
	if *sim {
		rootConfig.Board.Driver = hal.DriverSim
	}
	if *verbose {
		rootConfig.Web.Verbose = true
		rootConfig.Programmer.Verbose = true
	}

	log.Printf("using config file: %s", *cfgPath)
}

// openLink opens the host link described by cfg.
func openLink(cfg *web.Config) (*programmer.SerialConnection, error) {
	switch cfg.Link {
	case web.LinkTerm:
		if cfg.Device == "" {
			return nil, errors.New("term link needs an explicit device path")
		}
		return programmer.OpenTerm(cfg.Device, cfg.Serial.BaudRate)
	case web.LinkSerial, "":
		if cfg.Device == "" {
			return programmer.FindSerial(&cfg.Serial)
		}
		return programmer.OpenPortName(cfg.Device, &cfg.Serial)
	}
	return nil, errors.Errorf("unknown link \"%s\"", cfg.Link)
}

func main() {
	board, err := hal.Open(&rootConfig.Board)
	if err != nil {
		log.Fatalf("error opening %s board: %s", rootConfig.Board.Driver, err)
	}

	conn, err := openLink(rootConfig)
	if err != nil {
		log.Fatal("error opening host link: ", err)
	}
	conn.Start()
	log.Printf("connected to \"%s\"", conn.Path())

	ctrl := programmer.NewController(conn, board, &rootConfig.Programmer)
	if err = ctrl.Setup(); err != nil {
		log.Printf("setup failed on \"%s\": %s", conn.Path(), err)
		conn.Close()
		os.Exit(1)
	}
	ctrl.Start()

	if rootConfig.Web.ListenAddr != "" {
		log.Printf("starting webserver on http://%s ...", rootConfig.Web.ListenAddr)
		go web.StartServer(Version, ctrl, rootConfig)

		// small delay to allow for panic in StartServer
		<-time.After(time.Millisecond * 500)
	}
	log.Println("Press <Ctrl-C> to quit")

	trap := make(chan os.Signal, 1)
	signal.Notify(trap, os.Interrupt)
	select {
	case <-trap:
		fmt.Println()
		log.Println("quit received...")
	case <-ctrl.Done():
		log.Println("controller stopped:", ctrl.Snapshot().LastError)
	}

	cleanExit := make(chan struct{})
	go func() {
		// closing the link first unblocks a command waiting on the host
		closed := make(chan error, 1)
		go func() {
			closed <- conn.Close()
		}()
		ctrl.Stop()
		if err := <-closed; err != nil {
			log.Println("in conn.Close:", err)
		}
		close(cleanExit)
	}()
	select {
	case <-time.After(time.Second * 10):
		log.Panicln("no clean exit after 10sec, please report panic log to https://github.com/solar3s/eeprommer/issues")
	case <-cleanExit:
	}
}
