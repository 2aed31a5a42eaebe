package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/nucleation-sim/sim"
	"github.com/inference-sim/nucleation-sim/sim/output"
)

var serveAddr string // Listen address of the trigger endpoint

// simulateFunc runs one simulation to completion.
type simulateFunc func(ctx context.Context, cfg sim.Config) (*sim.Result, error)

// SimulationServer exposes the trigger endpoint: every GET runs a fresh
// SimulationRun with the server's configuration and returns its snapshots.
type SimulationServer struct {
	cfg      sim.Config
	simulate simulateFunc
}

// NewSimulationServer creates a server running cfg on every request.
func NewSimulationServer(cfg sim.Config) *SimulationServer {
	return &SimulationServer{cfg: cfg, simulate: sim.Simulate}
}

// Router returns the HTTP routes of the server.
func (s *SimulationServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodGet)
	r.HandleFunc("/api/simulate", s.handleSimulate).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	return r
}

func (s *SimulationServer) handleSimulate(w http.ResponseWriter, r *http.Request) {
	res, err := s.simulate(r.Context(), s.cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sim.ErrInvalidConfiguration) {
			status = http.StatusUnprocessableEntity
		}
		logrus.Warnf("Simulation request failed: %v", err)
		writeJSONError(w, status, err.Error())
		return
	}

	// Encode fully before writing the header so an encoding failure still
	// yields a well-formed error response.
	var buf bytes.Buffer
	if err := output.EncodeSnapshots(&buf, res.Snapshots); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Run-ID", res.RunID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logrus.Warnf("Failed to write simulation response: %v", err)
	}
}

func (s *SimulationServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.Warnf("failed to encode json response: %v", err)
	}
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serveCmd exposes the trigger endpoint over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve GET /simulate, returning the snapshot sequence of a fresh run as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveConfig(cmd.Flags(), configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           NewSimulationServer(cfg).Router(),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(_ net.Listener) context.Context { return cmd.Context() },
		}
		go func() {
			<-cmd.Context().Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logrus.Infof("Listening on %s", serveAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
