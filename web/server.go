package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rkjdid/util"
	"github.com/solar3s/eeprommer/programmer"

	_ "net/http/pprof"
)

type ServerConfig struct {
	ListenAddr        string // empty disables the server
	Verbose           bool
	WebsocketInterval util.Duration
}

var DefaultServerConfig = ServerConfig{
	ListenAddr:        "localhost:3636",
	WebsocketInterval: util.Duration(time.Second),
}

// Device is what the server reports on.
type Device interface {
	Snapshot() programmer.Snapshot
	Config() programmer.Config
}

type Server struct {
	Config  *Config
	Device  Device
	Version string

	router     *mux.Router
	wsUpgrader *websocket.Upgrader
}

// NewServer registers every endpoint on a new router.
func NewServer(version string, dev Device, cfg *Config) *Server {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	srv := &Server{
		Config:  cfg,
		Device:  dev,
		Version: version,
	}
	srv.wsUpgrader = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	verbose := srv.Config.Web.Verbose
	srv.router = mux.NewRouter()

	// pprof handlers
	srv.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	// shh
	srv.router.Handle("/favicon.ico", http.HandlerFunc(NoContent))

	srv.router.Handle("/websocket",
		Logger(http.HandlerFunc(srv.Websocket), "ws-snapshot", verbose)).
		Methods("GET", "HEAD")
	srv.router.Handle("/snapshot",
		Logger(http.HandlerFunc(srv.Snapshot), "snapshot", verbose)).
		Methods("GET", "HEAD")
	srv.router.Handle("/config",
		Logger(http.HandlerFunc(srv.DeviceConfig), "config", verbose)).
		Methods("GET", "HEAD")
	srv.router.Handle("/",
		Logger(http.HandlerFunc(srv.Home), "web", verbose)).
		Methods("GET", "HEAD")
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// StartServer starts a new http.Server using provided version, Device & Config.
// It either doesn't return or exits (http.Listen)
func StartServer(version string, dev Device, cfg *Config) {
	srv := NewServer(version, dev, cfg)
	httpServer := &http.Server{
		Handler:      srv,
		Addr:         srv.Config.Web.ListenAddr,
		WriteTimeout: 4 * time.Second,
		ReadTimeout:  4 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal("http.ListenAndServer:", err)
	}
}

// Websocket streams device snapshots to the client, every
// WebsocketInterval or at the rate given by the "poll" query value.
func (s *Server) Websocket(w http.ResponseWriter, r *http.Request) {
	var interval = time.Duration(s.Config.Web.WebsocketInterval)
	if v, ok := r.URL.Query()["poll"]; ok {
		if d, err := time.ParseDuration(v[0]); err == nil && d > 0 {
			interval = d
		}
	}
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("error subscribing to websocket:", err)
		return
	}

	if s.Config.Web.Verbose {
		log.Printf("websocket - subscription from %s (pollrate: %s)", conn.RemoteAddr(), interval)
	}

	go func(conn *websocket.Conn, s *Server) {
		var err error
		for {
			err = conn.WriteJSON(s.Device.Snapshot())
			if err != nil {
				if s.Config.Web.Verbose {
					log.Printf("websocket - lost connection to %s", conn.RemoteAddr())
				}
				conn.Close()
				return
			}
			<-time.After(interval)
		}
	}(conn, s)
}

// Snapshot encodes the device snapshot as json to w.
func (s *Server) Snapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Device.Snapshot())
}

// DeviceConfig encodes the programmer config as json to w.
func (s *Server) DeviceConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Device.Config())
}

// Home prints a short plain text status.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	sn := s.Device.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "eeprommer %s\n", s.Version)
	fmt.Fprintf(w, "device:   %s (%s)\n", s.Config.Device, s.Config.Board.Driver)
	fmt.Fprintf(w, "bus:      %s\n", sn.Mode)
	fmt.Fprintf(w, "status:   %s\n", sn.Status)
	fmt.Fprintf(w, "commands: %d (%d faults, last: %s)\n", sn.Commands, sn.Faults, sn.LastError)
	fmt.Fprintf(w, "bytes:    %d read, %d written\n", sn.BytesRead, sn.BytesWritten)
}
