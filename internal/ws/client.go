package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/1023-Ventures/qlaunch/pkg/utils"
	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("connection is closed")

// Client is a connection to a running daemon, used by the CLI.
type Client struct {
	Conn       *websocket.Conn
	baseURL    string
	role       string
	log        logger.Logger
	handlers   map[string]func(msg *models.Inbound) error
	fallback   func(msg *models.Inbound) error
	sendCh     chan models.Message
	incomingCh chan *models.Inbound
	ctx        context.Context
	cancel     context.CancelFunc
	closeOnce  sync.Once
}

func NewClient(baseURL, role string, parentCtx context.Context, log logger.Logger) *Client {
	ctx, cancel := context.WithCancel(parentCtx)
	return &Client{
		baseURL:    baseURL,
		role:       role,
		log:        log,
		handlers:   make(map[string]func(msg *models.Inbound) error),
		sendCh:     make(chan models.Message, 256),
		incomingCh: make(chan *models.Inbound, 256),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (c *Client) Disconnected() <-chan struct{} {
	return c.ctx.Done()
}

// RegisterHandler must be called before RunPumps.
func (c *Client) RegisterHandler(msgType string, handler func(msg *models.Inbound) error) {
	c.handlers[msgType] = handler
}

// HandleAll receives every message without a dedicated handler.
func (c *Client) HandleAll(handler func(msg *models.Inbound) error) {
	c.fallback = handler
}

func (c *Client) Connect() error {
	wsURL := utils.BuildWebSocketURL(c.baseURL, c.role)
	c.log.Info("Attempting connection", "url", wsURL)
	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, wsURL, nil)
	if err != nil {
		c.log.Error("Connection error", "err", err)
		return err
	}
	c.Conn = conn
	c.log.Info("Connected to daemon", "url", wsURL)
	return nil
}

func (c *Client) Send(msg models.Message) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case c.sendCh <- msg:
		return nil
	default:
		c.log.Warn("Send buffer full, dropping message")
		return errors.New("send buffer full")
	}
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.Conn != nil {
			err = c.Conn.Close()
		}
	})
	return err
}
