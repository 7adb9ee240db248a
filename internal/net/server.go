package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"binarymkt/internal/engine"
	"binarymkt/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession is the open connection belonging to a user.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a parsed message to the connection it arrived on.
type ClientMessage struct {
	conn    net.Conn
	message Message
}

// Exchange is the subset of *engine.Exchange the server depends on. An
// interface keeps the TCP plumbing testable without a real exchange.
type Exchange interface {
	AddMarket(ts engine.Timestamp, market engine.MarketID) (engine.MarketUpdate, error)
	Deposit(user engine.UserID, amount engine.Balance)
	SubmitOrder(ts engine.Timestamp, user engine.UserID, req engine.OrderRequest) (engine.MarketUpdate, error)
	CancelOrder(ts engine.Timestamp, user engine.UserID, id engine.OrderID) (engine.MarketUpdate, error)
	Resolve(ts engine.Timestamp, market engine.MarketID, price engine.Price) (engine.MarketUpdate, error)
}

// Server is a TCP front end that decodes wire requests, drives an Exchange,
// and writes Reports back to the requesting connection.
type Server struct {
	address  string
	port     int
	exchange Exchange
	pool     worker.Pool
	cancel   context.CancelFunc

	sessionsLock sync.Mutex
	sessions     map[engine.UserID]ClientSession
	connUsers    map[net.Conn]engine.UserID

	clientMessages chan ClientMessage
}

// New constructs a server bound to address:port, backed by exchange.
func New(address string, port int, exchange Exchange) *Server {
	return &Server{
		address:        address,
		port:           port,
		exchange:       exchange,
		pool:           worker.New(defaultNWorkers),
		sessions:       make(map[engine.UserID]ClientSession),
		connUsers:      make(map[net.Conn]engine.UserID),
		clientMessages: make(chan ClientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	s.cancel()
}

// Run accepts connections and drives them until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			log.Info().
				Str("connID", uuid.New().String()).
				Str("address", conn.RemoteAddr().String()).
				Msg("new client connected")
			s.pool.AddTask(conn)
		}
	}
}

// ReportUpdate sends an accepted MarketUpdate to user, if they have an open
// session.
func (s *Server) ReportUpdate(user engine.UserID, update engine.MarketUpdate) error {
	return s.send(user, updateReport(update))
}

// ReportError sends a rejection or error to user, if they have an open
// session.
func (s *Server) ReportError(user engine.UserID, err error) error {
	return s.send(user, errorReport(err))
}

func (s *Server) send(user engine.UserID, report Report) error {
	s.sessionsLock.Lock()
	session, ok := s.sessions[user]
	s.sessionsLock.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}

	if _, err := session.conn.Write(report.Serialize()); err != nil {
		s.dropSession(session.conn)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// sessionHandler serializes all exchange access: every accepted or rejected
// request passes through here one at a time, off the pool of connection
// workers.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			s.handleMessage(message)
		}
	}
}

func (s *Server) handleMessage(cm ClientMessage) {
	ts := engine.Timestamp(time.Now().UnixMicro())

	switch m := cm.message.(type) {
	case NewOrderMessage:
		s.bindSession(m.User, cm.conn)
		update, err := s.exchange.SubmitOrder(ts, m.User, m.Request())
		s.respond(m.User, update, err)
	case CancelOrderMessage:
		s.bindSession(m.User, cm.conn)
		update, err := s.exchange.CancelOrder(ts, m.User, m.OrderID)
		s.respond(m.User, update, err)
	case AddMarketMessage:
		if _, err := s.exchange.AddMarket(ts, m.Market); err != nil {
			log.Error().Err(err).Uint32("market", uint32(m.Market)).Msg("add market rejected")
		}
	case ResolveMessage:
		if _, err := s.exchange.Resolve(ts, m.Market, m.Price); err != nil {
			log.Error().Err(err).Uint32("market", uint32(m.Market)).Msg("resolve rejected")
		}
	case DepositMessage:
		s.bindSession(m.User, cm.conn)
		s.exchange.Deposit(m.User, m.Amount)
		update := engine.MarketUpdate{Kind: engine.DepositUpdate, Timestamp: ts, User: m.User, Amount: m.Amount}
		if err := s.ReportUpdate(m.User, update); err != nil {
			log.Error().Err(err).Msg("failed to report deposit")
		}
	default:
		log.Error().Msg("unhandled message type reached session handler")
	}
}

func (s *Server) respond(user engine.UserID, update engine.MarketUpdate, err error) {
	if err != nil {
		log.Info().Err(err).Uint32("user", uint32(user)).Msg("request rejected")
		if sendErr := s.ReportError(user, err); sendErr != nil {
			log.Error().Err(sendErr).Msg("failed to report rejection")
		}
		return
	}
	if sendErr := s.ReportUpdate(user, update); sendErr != nil {
		log.Error().Err(sendErr).Msg("failed to report update")
	}
}

func (s *Server) bindSession(user engine.UserID, conn net.Conn) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	s.sessions[user] = ClientSession{conn: conn}
	s.connUsers[conn] = user
}

func (s *Server) dropSession(conn net.Conn) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	if user, ok := s.connUsers[conn]; ok {
		delete(s.sessions, user)
		delete(s.connUsers, conn)
	}
}

// handleConnection reads one message off conn, forwards it to the session
// handler, and requeues conn for its next message. An error returned here
// ends the worker's tomb goroutine with that error, which kills the tomb
// and with it the whole pool and the session handler.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed setting connection deadline")
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			log.Debug().Err(err).Str("address", conn.RemoteAddr().String()).Msg("connection closed")
			s.dropSession(conn)
			conn.Close()
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.pool.AddTask(conn)
			return nil
		}

		s.clientMessages <- ClientMessage{conn: conn, message: message}
		s.pool.AddTask(conn)
	}
	return nil
}
