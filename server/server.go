package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/guesswho/auth"
	"github.com/wfunc/guesswho/broadcast"
	"github.com/wfunc/guesswho/config"
	"github.com/wfunc/guesswho/coordinator"
	"github.com/wfunc/guesswho/game"
	"github.com/wfunc/guesswho/logger"
	"github.com/wfunc/guesswho/monitor"
	"github.com/wfunc/guesswho/network"
	"github.com/wfunc/guesswho/persistence"
	"github.com/wfunc/guesswho/random"
	guessrpc "github.com/wfunc/guesswho/rpc"
	"github.com/wfunc/guesswho/services"
	"github.com/wfunc/guesswho/session"
	"github.com/wfunc/guesswho/timer"
)

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	registry       *game.Registry
	broadcaster    broadcast.Broadcaster
	coordinator    *coordinator.Coordinator
	authService    *auth.Service
	userService    *services.UserService
	gameService    *services.GameService
	monitor        *monitor.Monitor
	rpcServer      *guessrpc.Server
	timers         *timer.TimerManager
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		sessionManager: session.NewManager(),
		registry:       game.NewRegistry(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)
	s.authService = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	s.userService = services.NewUserService(db, s.authService)
	s.gameService = services.NewGameService(db)
	s.coordinator = coordinator.New(s.registry, s.broadcaster, random.New(), s.gameService)
	s.monitor = monitor.NewMonitor("guesswho")
	s.timers = timer.NewTimerManager()

	// 初始化RPC服务器
	rpcServer, err := guessrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	rpc.Register(guessrpc.NewAdminService(s.registry, s.sessionManager, s.userService))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	hb := s.cfg.Server.HeartbeatInterval
	s.timers.AddTimer(hb, hb, s.sweepIdleConnections)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("POST /users", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /games", s.handleListGames)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

// --- WebSocket ---

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authService.VerifyToken(bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, identity)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, identity *auth.Identity) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(s.cfg.Server.HeartbeatInterval)

	sess := session.NewSession(uuid.New().String(), wsConn)
	sess.UserID = identity.ID
	sess.Username = identity.Username
	s.sessionManager.Add(sess)
	s.monitor.IncConnectedClients()

	logger.Log.Infof("New connection from %s, user %s, session ID: %s", wsConn.RemoteAddr(), identity.Username, sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.coordinator.HandleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecConnectedClients()
		s.monitor.SetActiveGames(s.registry.Count())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			evt, err := wsConn.ReadEvent()
			if err != nil {
				return
			}
			sess.Touch()

			if evt.Name == network.EventHeartbeat {
				continue
			}

			s.monitor.IncEventsReceived()
			start := time.Now()
			s.coordinator.HandleEvent(sess, evt)
			s.monitor.ObserveEventLatency(time.Since(start))
			s.monitor.SetActiveGames(s.registry.Count())
		}
	}
}

// sweepIdleConnections closes connections that have gone silent for
// several heartbeat intervals. The close wakes the connection's read
// loop, which then runs the normal disconnect path.
func (s *GameServer) sweepIdleConnections() {
	cutoff := time.Now().Add(-3 * s.cfg.Server.HeartbeatInterval)
	for _, sess := range s.sessionManager.All() {
		if sess.IdleSince().Before(cutoff) {
			logger.Log.Infof("Closing idle connection %s", sess.GetID())
			sess.Close()
		}
	}
}

// --- REST ---

func (s *GameServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.userService.Register(req)
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Log.Errorf("Register failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *GameServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.userService.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrMissingFields):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrUnknownEmail),
		errors.Is(err, services.ErrNotVerified),
		errors.Is(err, services.ErrBadPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		logger.Log.Errorf("Login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *GameServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	s.authService.RevokeToken(token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *GameServer) handleListGames(w http.ResponseWriter, r *http.Request) {
	records, err := s.gameService.ListGames()
	if err != nil {
		logger.Log.Errorf("Listing games failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *GameServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	record, err := s.gameService.GetGame(r.PathValue("id"))
	if errors.Is(err, persistence.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		logger.Log.Errorf("Fetching game failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

// bearerToken pulls the token from the Authorization header or, for
// WebSocket handshakes where headers are awkward, a query parameter.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
