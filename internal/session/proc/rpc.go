package proc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

// ErrConnClosed is returned when using a closed connection.
var ErrConnClosed = errors.New("connection closed")

// RPCError represents a JSON-RPC error from the backend.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// codeMethodNotFound is the JSON-RPC standard method-not-found code,
// returned for backend-initiated requests we do not implement.
const codeMethodNotFound = -32601

// NotificationHandler handles a notification from the backend.
type NotificationHandler func(method string, params []byte)

// request is an outgoing JSON-RPC request or notification.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// response is a reply to a backend-initiated request.
type response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int64     `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// Conn speaks JSON-RPC 2.0 with Content-Length framing over a session's
// stdio pipes. Incoming traffic is classified by peeking at the raw
// message fields rather than decoding into a probe struct.
type Conn struct {
	reader *bufio.Reader
	writer io.Writer

	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   atomic.Int64
	pending  map[int64]chan gjson.Result
	handlers map[string]NotificationHandler

	closed atomic.Bool
	done   chan struct{}
}

// NewConn creates a connection over the given pipes.
func NewConn(r io.Reader, w io.Writer) *Conn {
	return &Conn{
		reader:   bufio.NewReaderSize(r, 64*1024),
		writer:   w,
		pending:  make(map[int64]chan gjson.Result),
		handlers: make(map[string]NotificationHandler),
		done:     make(chan struct{}),
	}
}

// Start begins reading messages in a background goroutine.
func (c *Conn) Start(ctx context.Context) {
	go c.readLoop(ctx)
}

// Close stops the connection. Pending calls fail with ErrConnClosed.
func (c *Conn) Close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.done)

	c.mu.Lock()
	c.pending = make(map[int64]chan gjson.Result)
	c.mu.Unlock()
}

// Notify sends a notification to the backend.
func (c *Conn) Notify(method string, params any) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	return c.send(&request{JSONRPC: "2.0", Method: method, Params: params})
}

// Call sends a request and decodes the backend's result into result,
// which may be nil to discard it.
func (c *Conn) Call(ctx context.Context, method string, params, result any) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	id := c.nextID.Add(1)
	ch := make(chan gjson.Result, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.send(&request{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrConnClosed
	case msg := <-ch:
		if errField := msg.Get("error"); errField.Exists() {
			rpcErr := &RPCError{
				Code:    int(errField.Get("code").Int()),
				Message: errField.Get("message").String(),
			}
			if data := errField.Get("data"); data.Exists() {
				rpcErr.Data = data.Value()
			}
			return rpcErr
		}
		if result == nil {
			return nil
		}
		raw := msg.Get("result").Raw
		if raw == "" {
			raw = "null"
		}
		return json.Unmarshal([]byte(raw), result)
	}
}

// OnNotification registers a handler for a backend notification method.
// The method "*" matches any method without a dedicated handler.
func (c *Conn) OnNotification(method string, handler NotificationHandler) {
	c.mu.Lock()
	c.handlers[method] = handler
	c.mu.Unlock()
}

// send writes one framed message.
func (c *Conn) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := fmt.Fprintf(c.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// readLoop reads and dispatches messages until the pipe closes.
func (c *Conn) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		body, err := c.readMessage()
		if err != nil {
			if c.closed.Load() || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			continue
		}

		c.dispatch(body)
	}
}

// readMessage reads one Content-Length framed message body.
func (c *Conn) readMessage() ([]byte, error) {
	var contentLength int
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					contentLength = n
				}
			}
		}
		// Other headers (Content-Type) are ignored.
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// dispatch classifies a message by its raw fields and routes it.
func (c *Conn) dispatch(body []byte) {
	msg := gjson.ParseBytes(body)
	method := msg.Get("method")
	id := msg.Get("id")

	switch {
	case method.Exists() && id.Exists():
		// Backend-initiated request. None are implemented.
		_ = c.send(&response{
			JSONRPC: "2.0",
			ID:      id.Int(),
			Error:   &RPCError{Code: codeMethodNotFound, Message: "method not found"},
		})

	case method.Exists():
		c.handleNotification(method.String(), []byte(msg.Get("params").Raw))

	case id.Exists():
		c.handleResponse(id.Int(), msg)
	}
}

// handleResponse delivers a response to its waiting caller.
func (c *Conn) handleResponse(id int64, msg gjson.Result) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if ok {
		select {
		case ch <- msg:
		default:
		}
	}
}

// handleNotification routes a notification to its handler.
func (c *Conn) handleNotification(method string, params []byte) {
	c.mu.Lock()
	handler, ok := c.handlers[method]
	if !ok {
		handler, ok = c.handlers["*"]
	}
	c.mu.Unlock()

	if ok && handler != nil {
		// Run in a goroutine so a slow handler cannot stall the read
		// loop.
		go handler(method, params)
	}
}
