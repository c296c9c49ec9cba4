package main

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nickyhof/relq"
	"github.com/nickyhof/relq/db"
)

// Server answers relational algebra queries over TCP, one per line.
// Connections share a single engine; the catalog behind it is read-only.
type Server struct {
	listener   net.Listener
	instance   *relq.Instance
	engine     *db.Engine
	authConfig *AuthConfig
	tlsEnabled bool
	logger     *slog.Logger
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewServer(instance *relq.Instance) *Server {
	logger := slog.Default().With("component", "server")
	engine := instance.Engine()
	engine.Logger = logger
	return &Server{
		instance: instance,
		engine:   engine,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// NewServerWithAuth creates a server that requires AUTH before queries when
// authConfig is enabled.
func NewServerWithAuth(instance *relq.Instance, authConfig *AuthConfig) *Server {
	s := NewServer(instance)
	s.authConfig = authConfig
	return s
}

func (s *Server) authRequired() bool {
	return s.authConfig != nil && s.authConfig.Enabled
}

// Start begins listening for plain TCP connections on addr.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.serve(listener)
}

// StartTLS begins listening for TLS connections using the given key pair.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	config := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	listener, err := tls.Listen("tcp", addr, config)
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.tlsEnabled = true
	return s.serve(listener)
}

func (s *Server) serve(listener net.Listener) error {
	s.listener = listener
	s.logger.Info("listening",
		"addr", listener.Addr().String(),
		"tls", s.tlsEnabled,
		"auth", s.authRequired(),
		"relations", s.instance.Catalog.Len())

	go s.acceptLoop()
	return nil
}

func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

// Stop closes the listener and waits for open connections to finish.
func (s *Server) Stop() error {
	close(s.done)
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Warn("accept failed", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	logger := s.logger.With("remote", conn.RemoteAddr().String())
	logger.Info("client connected")

	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-s.done:
			conn.SetReadDeadline(time.Now())
		case <-closed:
		}
	}()

	state := &ConnectionState{}
	reader := bufio.NewReader(conn)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF && !isClosing(s.done) {
				logger.Warn("read failed", "error", err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if lower == "quit" || lower == "exit" {
			logger.Info("client disconnected")
			return
		}

		response := s.handleLine(line, state)

		data, err := EncodeResponse(response)
		if err != nil {
			logger.Error("failed to encode response", "error", err)
			continue
		}
		if _, err := conn.Write(data); err != nil {
			logger.Warn("write failed", "error", err)
			return
		}
	}
}

func isClosing(done chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// handleLine answers an AUTH command, a JSON request or a bare query.
func (s *Server) handleLine(line string, state *ConnectionState) Response {
	requestID := uuid.NewString()

	if isAuthCommand(line) {
		if !s.authRequired() {
			return Response{Success: false, Type: "auth", RequestID: requestID, Error: "authentication not enabled"}
		}
		response := s.handleAuth(line, state)
		response.RequestID = requestID
		if response.Success {
			s.logger.Info("client authenticated", "identity", state.Identity().String(), "request_id", requestID)
		}
		return response
	}

	if s.authRequired() {
		if !state.IsAuthenticated() {
			return Response{Success: false, Type: "query", RequestID: requestID, Error: "authentication required"}
		}
		if state.expired(time.Now()) {
			state.authenticated = false
			return Response{Success: false, Type: "query", RequestID: requestID, Error: "token expired, authenticate again"}
		}
	}

	query := line
	if strings.HasPrefix(line, "{") {
		request, err := DecodeRequest([]byte(line))
		if err != nil {
			return Response{Success: false, Type: "query", RequestID: requestID, Error: fmt.Sprintf("invalid request: %v", err)}
		}
		query = strings.TrimSpace(request.Query)
	}

	response := s.executeQuery(query)
	response.RequestID = requestID
	return response
}

func (s *Server) executeQuery(query string) Response {
	result, err := s.engine.Execute(query)
	if err != nil {
		s.logger.Debug("query failed", "query", query, "error", err)
		return Response{
			Success: false,
			Type:    "query",
			Error:   err.Error(),
		}
	}

	qr := QueryResponse{
		Relation:    result.Relation.Name,
		Columns:     result.Columns,
		Data:        result.Data,
		RecordsRead: result.RecordsRead,
		TimeMs:      result.ExecutionTimeSec * 1000,
	}
	data, _ := json.Marshal(qr)
	return Response{
		Success: true,
		Type:    "query",
		Result:  data,
	}
}
