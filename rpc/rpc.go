package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/guesswho/game"
	"github.com/wfunc/guesswho/logger"
	"github.com/wfunc/guesswho/services"
	"github.com/wfunc/guesswho/session"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operational queries over net/rpc.
type AdminService struct {
	registry       *game.Registry
	sessionManager *session.Manager
	userService    *services.UserService
}

func NewAdminService(registry *game.Registry, sessionManager *session.Manager, userService *services.UserService) *AdminService {
	return &AdminService{
		registry:       registry,
		sessionManager: sessionManager,
		userService:    userService,
	}
}

type StatsArgs struct{}

type StatsReply struct {
	ActiveGames      int
	ConnectedClients int
}

// Stats reports live coordinator counts.
func (a *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	reply.ActiveGames = a.registry.Count()
	reply.ConnectedClients = a.sessionManager.Count()
	return nil
}

type GetUserArgs struct {
	UserID string
}

type GetUserReply struct {
	Username string
	Email    string
}

// GetUser looks an account up by id.
func (a *AdminService) GetUser(args *GetUserArgs, reply *GetUserReply) error {
	user, err := a.userService.GetUser(args.UserID)
	if err != nil {
		return err
	}
	reply.Username = user.Username
	reply.Email = user.Email
	return nil
}
