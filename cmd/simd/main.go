package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"robosoccer/internal/config"
	"robosoccer/internal/learn"
	"robosoccer/internal/protocol"
	"robosoccer/internal/replay"
	"robosoccer/internal/sim"
	"robosoccer/internal/world"
)

func worldVec(x, y float64) world.Vec2 { return world.Vec2{X: x, Y: y} }

type subscriber struct {
	id    string
	out   chan []byte
	every uint64
}

// server runs the match loop and streams state frames to websocket
// subscribers. Control frames from any subscriber steer the match.
type server struct {
	cfg *config.Config
	eng *sim.Engine
	rec *replay.Writer
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	paused bool
}

func main() {
	var addr, cfgPath, weights, replayPath string
	var seed int64
	flag.StringVar(&addr, "addr", "127.0.0.1:8844", "listen address")
	flag.StringVar(&cfgPath, "config", "assets/sim.yaml", "config file")
	flag.StringVar(&weights, "weights", "weights", "weights dir, or a .db file for sqlite")
	flag.StringVar(&replayPath, "replay", "", "write a .jsonl.zst replay to this path")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano()&0x7fffffff, "seed")
	flag.Parse()

	logger := log.New(os.Stderr, "simd ", log.LstdFlags)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	stores, closeStores, err := openStores(weights)
	if err != nil {
		logger.Fatalf("weights: %v", err)
	}
	defer closeStores()

	s := &server{
		cfg:  cfg,
		eng:  sim.NewEngine(cfg, stores, seed),
		log:  logger,
		subs: map[*subscriber]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	if replayPath != "" {
		w, err := replay.NewWriter(replayPath)
		if err != nil {
			logger.Fatalf("replay: %v", err)
		}
		defer w.Close()
		s.rec = w
		s.eng.SetRecording(true)
	}

	go s.runLoop()

	http.HandleFunc("/ws", s.wsHandler)
	srv := &http.Server{Addr: addr}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()
	logger.Printf("listening on %s (seed=%d)", addr, seed)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Printf("shutting down")
	_ = srv.Close()
	if err := s.eng.SaveLearners(); err != nil {
		logger.Printf("save weights: %v", err)
	}
}

// runLoop advances the engine at real-time rate and fans snapshots out.
func (s *server) runLoop() {
	dt := time.Duration(float64(time.Second) * s.cfg.Dt())
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		paused := s.paused
		s.mu.Unlock()
		if paused {
			continue
		}

		s.eng.Tick()
		snap := s.eng.Snapshot()

		if s.rec != nil {
			fr := replay.Frame{Snapshot: snap, Events: s.eng.DrainEvents()}
			if err := s.rec.Write(fr); err != nil {
				s.log.Printf("replay write: %v", err)
			}
		}

		b, err := json.Marshal(protocol.StateMsg{
			Type:            protocol.TypeState,
			ProtocolVersion: protocol.Version,
			Snapshot:        snap,
		})
		if err != nil {
			continue
		}

		s.mu.Lock()
		for sub := range s.subs {
			if sub.every > 1 && snap.Tick%sub.every != 0 {
				continue
			}
			select {
			case sub.out <- b:
			default:
				// Slow consumer: drop the frame rather than stall the loop.
			}
		}
		s.mu.Unlock()
	}
}

func (s *server) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Handshake: must send SUBSCRIBE first.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}
	if err := protocol.ValidateSubscribe(raw); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"),
			time.Now().Add(time.Second))
		return
	}
	var subMsg protocol.SubscribeMsg
	if err := json.Unmarshal(raw, &subMsg); err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	sub := &subscriber{
		id:  fmt.Sprintf("O%d", s.nextID.Add(1)),
		out: make(chan []byte, 16),
	}
	if subMsg.EveryTicks > 0 {
		sub.every = uint64(subMsg.EveryTicks)
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sub.id,
		Match: protocol.MatchParams{
			TickHz:      s.cfg.Physics.TickHz,
			FieldLength: s.cfg.Field.Length,
			FieldWidth:  s.cfg.Field.Width,
			GoalWidth:   s.cfg.Field.GoalWidth,
			RobotRadius: s.cfg.Field.RobotRadius,
		},
	}
	if err := conn.WriteJSON(welcome); err != nil {
		return
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	s.log.Printf("subscriber %s joined", sub.id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for b := range sub.out {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleControl(conn, raw)
	}
	// Deregister before closing so the broadcast loop cannot hit a
	// closed channel.
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
	close(sub.out)
	<-done
	s.log.Printf("subscriber %s left", sub.id)
}

func (s *server) handleControl(conn *websocket.Conn, raw []byte) {
	writeErr := func(code, detail string) {
		_ = conn.WriteJSON(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Detail: detail})
	}

	base, err := protocol.DecodeBase(raw)
	if err != nil || base.Type != protocol.TypeControl {
		writeErr("bad_message", "expected CONTROL")
		return
	}
	if err := protocol.ValidateControl(raw); err != nil {
		writeErr("invalid_control", err.Error())
		return
	}
	var ctl protocol.ControlMsg
	if err := json.Unmarshal(raw, &ctl); err != nil {
		writeErr("bad_message", err.Error())
		return
	}

	switch ctl.Op {
	case protocol.OpPause:
		s.mu.Lock()
		s.paused = true
		s.mu.Unlock()
	case protocol.OpResume:
		s.mu.Lock()
		s.paused = false
		s.mu.Unlock()
	case protocol.OpReset:
		s.eng.Reset()
	case protocol.OpPlaceBall:
		s.eng.PlaceBall(
			worldVec(ctl.X, ctl.Y),
			worldVec(ctl.VX, ctl.VY),
		)
	case protocol.OpPlaceBallBlueGK:
		s.eng.PlaceBallAtKeeper(+1)
	case protocol.OpPlaceBallRedGK:
		s.eng.PlaceBallAtKeeper(-1)
	}
	_ = conn.WriteJSON(protocol.AckMsg{Type: protocol.TypeAck, Op: ctl.Op})
}

func openStores(path string) (func(scope string) learn.Store, func(), error) {
	if filepath.Ext(path) == ".db" {
		db, err := learn.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return db.Store, func() { _ = db.Close() }, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, nil, err
	}
	return func(scope string) learn.Store {
		return learn.NewFileStore(filepath.Join(path, scope+".weights"))
	}, func() {}, nil
}
