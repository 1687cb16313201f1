package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ModelServer provides the HTTP API risk scoring uses: drawdown predictions,
// model info, health, and a websocket feed of newly trained artifacts.
type ModelServer struct {
	mu        sync.RWMutex
	predictor *Predictor
	fallback  PredictorInterface
	metrics   MetricsInterface

	router   *mux.Router
	server   *http.Server
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
}

// PredictionRequest represents the incoming prediction request
type PredictionRequest struct {
	Volatility float64 `json:"volatility"`
	MaxLossPct float64 `json:"maxLossPct"`
	RequestID  string  `json:"request_id,omitempty"`
}

// PredictionResponse represents the prediction result
type PredictionResponse struct {
	DrawdownPct float64   `json:"drawdownPct"`
	Fallback    bool      `json:"fallback"`
	RunID       string    `json:"run_id,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Latency     float64   `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// HealthStatus is returned by /health
type HealthStatus struct {
	Healthy         bool    `json:"healthy"`
	ModelLoaded     bool    `json:"model_loaded"`
	ModelAgeSeconds float64 `json:"model_age_seconds,omitempty"`
}

// NewModelServer creates a new HTTP server for model serving. predictor may
// be nil until the first SetModel; requests are then answered by fallback.
func NewModelServer(predictor *Predictor, fallback PredictorInterface, metrics MetricsInterface, port int) *ModelServer {
	ms := &ModelServer{
		predictor: predictor,
		fallback:  fallback,
		metrics:   metrics,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
	}

	r := mux.NewRouter()
	r.HandleFunc("/predict", ms.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/health", ms.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/model/info", ms.handleModelInfo).Methods(http.MethodGet)
	r.HandleFunc("/ws", ms.handleWebSocket).Methods(http.MethodGet)
	ms.router = r

	ms.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return ms
}

// Handler exposes the router, mainly for tests.
func (ms *ModelServer) Handler() http.Handler {
	return ms.router
}

// Start begins serving HTTP requests
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("Starting model server")
	return ms.server.ListenAndServe()
}

// Shutdown closes websocket clients and gracefully shuts down the server
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	ms.clientsMu.Lock()
	for c := range ms.clients {
		c.Close()
	}
	ms.clients = make(map[*websocket.Conn]bool)
	ms.clientsMu.Unlock()

	return ms.server.Shutdown(ctx)
}

// SetModel installs a newly trained artifact and pushes it to websocket
// subscribers.
func (ms *ModelServer) SetModel(a ModelArtifact) error {
	ms.mu.Lock()
	if ms.predictor == nil {
		p, err := NewPredictor(a, ms.metrics)
		if err != nil {
			ms.mu.Unlock()
			return err
		}
		ms.predictor = p
	} else if err := ms.predictor.Swap(a); err != nil {
		ms.mu.Unlock()
		return err
	}
	ms.mu.Unlock()

	ms.broadcast(a)
	return nil
}

func (ms *ModelServer) current() *Predictor {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.predictor
}

func (ms *ModelServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if !isFinite(req.Volatility) || !isFinite(req.MaxLossPct) {
		http.Error(w, "volatility and maxLossPct must be finite", http.StatusBadRequest)
		return
	}

	resp := PredictionResponse{RequestID: req.RequestID}
	var err error
	if p := ms.current(); p != nil {
		resp.DrawdownPct, err = p.PredictDrawdown(req.Volatility, req.MaxLossPct)
		resp.RunID = p.Artifact().RunID
	} else if ms.fallback != nil {
		resp.DrawdownPct, err = ms.fallback.PredictDrawdown(req.Volatility, req.MaxLossPct)
		resp.Fallback = true
	} else {
		err = ErrPredictorUnavailable
	}
	if err != nil {
		if ms.metrics != nil {
			ms.metrics.PredictionFailuresInc()
		}
		log.Error().Err(err).Msg("Prediction failed")
		http.Error(w, fmt.Sprintf("prediction failed: %v", err), http.StatusServiceUnavailable)
		return
	}

	resp.Latency = float64(time.Since(start).Microseconds()) / 1000
	resp.Timestamp = time.Now()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (ms *ModelServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Healthy: true}
	if p := ms.current(); p != nil {
		health.ModelLoaded = true
		health.ModelAgeSeconds = p.ModelAge().Seconds()
		p.UpdateModelAge()
	} else if ms.fallback == nil {
		health.Healthy = false
	}

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(health)
}

func (ms *ModelServer) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	p := ms.current()
	if p == nil {
		http.Error(w, "no model loaded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p.Artifact())
}

func (ms *ModelServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ms.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	ms.clientsMu.Lock()
	ms.clients[conn] = true
	// Send the current model while holding the lock so a concurrent
	// broadcast cannot interleave writes on this connection.
	if p := ms.current(); p != nil {
		if data, err := json.Marshal(p.Artifact()); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}
	ms.clientsMu.Unlock()

	// Keep connection alive until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	ms.clientsMu.Lock()
	delete(ms.clients, conn)
	ms.clientsMu.Unlock()
}

// broadcast sends an artifact to all connected websocket clients
func (ms *ModelServer) broadcast(a ModelArtifact) {
	data, err := json.Marshal(a)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal artifact for broadcast")
		return
	}

	ms.clientsMu.Lock()
	defer ms.clientsMu.Unlock()

	for client := range ms.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Msg("Failed to send model to WebSocket client")
			client.Close()
			delete(ms.clients, client)
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
