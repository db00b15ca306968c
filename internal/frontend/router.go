// Copyright 2025 James Ross
package frontend

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/joltworks/go-brew-queue/internal/domain"
	"github.com/joltworks/go-brew-queue/internal/obs"
	"github.com/joltworks/go-brew-queue/internal/queue"
	"github.com/joltworks/go-brew-queue/internal/validation"
	"go.uber.org/zap"
)

// Server wires the Queue Engine to the HTTP/WS boundary named in spec §6.
// It holds no queue state of its own; every handler is a thin translation
// between wire payloads and Engine calls.
type Server struct {
	engine *queue.Engine
	hub    *Hub
	log    *zap.Logger
}

func NewServer(engine *queue.Engine, hub *Hub, log *zap.Logger) *Server {
	return &Server{engine: engine, hub: hub, log: log}
}

func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/receive", s.handleReceive).Methods("POST")
	r.HandleFunc("/complete", s.handleComplete).Methods("POST")
	r.HandleFunc("/newOrder", s.hub.ServeWS).Methods("GET")
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response failed", obs.Err(err))
	}
}

// handleIndex renders the live queue snapshot (spec §6 GET /).
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	s.writeJSON(w, http.StatusOK, struct {
		Orders      []domain.Item `json:"orders"`
		TotalOrders int           `json:"totalOrders"`
		TotalDrinks int           `json:"totalDrinks"`
	}{snap.Orders, snap.TotalOrders, snap.TotalDrinks})
}

// handleHistory renders completed items and counters (spec §6 GET /history).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, struct {
		Completed       []domain.Order `json:"completed"`
		OrdersComplete  int            `json:"ordersComplete"`
	}{s.engine.GetCompletedItems(), s.engine.CountCompletedOrders()})
}

// receiveDrinkRequest mirrors the schema in internal/validation.
type receiveDrinkRequest struct {
	Name        string   `json:"drink"`
	Milk        string   `json:"milk"`
	MilkVolume  float64  `json:"milk_volume"`
	Shots       int      `json:"shots"`
	Temperature string   `json:"temperature"`
	Texture     string   `json:"texture"`
	Options     []string `json:"options"`
}

type receiveOrderRequest struct {
	OrderID  int                    `json:"orderID"`
	Customer string                 `json:"customer"`
	Drinks   []receiveDrinkRequest `json:"drinks"`
}

// handleReceive validates and admits a new order (spec §6 POST /receive).
// 200 on accept, empty body on validation failure — the engine is never
// mutated for an invalid body (spec §7 kind (a)).
func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := validation.ValidateOrder(body); err != nil {
		s.log.Warn("order rejected by validation", obs.Err(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	var req receiveOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	now := time.Now()
	drinks := make([]domain.Drink, len(req.Drinks))
	for i, d := range req.Drinks {
		drinks[i] = domain.Drink{
			Name:        d.Name,
			Milk:        d.Milk,
			MilkVolume:  d.MilkVolume,
			Shots:       d.Shots,
			Temperature: d.Temperature,
			Texture:     d.Texture,
			Options:     d.Options,
		}
	}
	order := domain.NewOrder(req.OrderID, req.Customer, now, now, drinks)

	s.engine.AddOrder(r.Context(), &order, true)
	w.WriteHeader(http.StatusOK)
}

// handleComplete marks drinks or a whole item complete (spec §6 POST /complete).
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if raw := r.FormValue("selectedDrinkIDs"); raw != "" {
		var ids []int64
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.engine.CompleteDrinks(r.Context(), ids)
	} else if raw := r.FormValue("selectedItemIndex"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.engine.CompleteItem(r.Context(), idx)
	}

	snap := s.engine.Snapshot()
	s.writeJSON(w, http.StatusOK, struct {
		UpdatedOrderList  []domain.Item `json:"updatedOrderList"`
		UpdatedTotalOrders int          `json:"updatedTotalOrders"`
		UpdatedTotalDrinks int          `json:"updatedTotalDrinks"`
	}{snap.Orders, snap.TotalOrders, snap.TotalDrinks})
}
