package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 1 << 20 // 1MB
)

// Conn 与服务端的 WebSocket 连接：读协程上报原始消息，写协程从发送队列写出
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	connected atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Dial 建立连接
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewConn(ws), nil
}

// NewConn 包装已建立的连接
func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	c.connected.Store(true)
	return c
}

// Connected 连接是否可用
func (c *Conn) Connected() bool {
	return c != nil && c.connected.Load()
}

// Send 序列化命令并压入发送队列（非阻塞，满则丢弃）
// 未连接时返回 ErrNotConnected，调用方直接丢弃命令，不排队
func (c *Conn) Send(cmd any) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	b, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	select {
	case c.send <- b:
	case <-c.done:
		return ErrNotConnected
	default:
		// 为了实时性，队列满时丢弃
		Log.Warnw("send queue full, command dropped", "bytes", len(b))
	}
	return nil
}

// Run 启动写协程并在当前协程执行读循环，直到连接断开或 ctx 结束
// onMessage 在读协程中调用，需自行投递到逻辑线程
func (c *Conn) Run(ctx context.Context, onMessage func([]byte)) error {
	go c.writePump()
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()
	return c.readPump(onMessage)
}

// Close 发送关闭帧并关闭底层连接，可重复调用
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			err = nil
		}
		c.closeErr = multierr.Append(err, c.ws.Close())
	})
	return c.closeErr
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				Log.Warnw("write failed", "err", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

// readPump 读取服务端消息，原样交给 onMessage
func (c *Conn) readPump(onMessage func([]byte)) error {
	defer c.Close()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		onMessage(payload)
	}
}
