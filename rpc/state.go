// File: rpc/state.go
// Package rpc implements the JSON-RPC call state table: a method
// registry for inbound calls and a pending-call table matching replies
// to the fibers awaiting them.

package rpc

import (
	"encoding/json"
	"sync"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
)

// Request is an outbound or inbound call. Notifications carry no ID.
type Request struct {
	ID     *uint64           `json:"id,omitempty"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// ErrorInfo is the error member of a failed response.
type ErrorInfo struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is a reply to a Request with an ID.
type Response struct {
	ID     *uint64          `json:"id,omitempty"`
	Result *json.RawMessage `json:"result,omitempty"`
	Error  *ErrorInfo       `json:"error,omitempty"`
}

// Method handles one registered local method.
type Method func(params []json.RawMessage) (json.RawMessage, error)

// UnhandledHandler is the fallback for calls to unregistered methods.
type UnhandledHandler func(method string, params []json.RawMessage) (json.RawMessage, error)

// State tracks one connection's RPC conversation.
type State struct {
	mu        sync.Mutex
	methods   map[string]Method
	unhandled UnhandledHandler
	awaiting  map[uint64]*fiber.Promise[json.RawMessage]
	nextID    uint64
}

// NewState creates an empty state table.
func NewState() *State {
	return &State{
		methods:  make(map[string]Method),
		awaiting: make(map[uint64]*fiber.Promise[json.RawMessage]),
	}
}

// AddMethod registers a local method.
func (s *State) AddMethod(name string, m Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = m
}

// RemoveMethod unregisters a local method.
func (s *State) RemoveMethod(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.methods, name)
}

// OnUnhandled installs the fallback for unknown methods.
func (s *State) OnUnhandled(h UnhandledHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unhandled = h
}

// LocalCall dispatches an inbound call to a registered method, or to
// the unhandled fallback.
func (s *State) LocalCall(method string, params []json.RawMessage) (json.RawMessage, error) {
	s.mu.Lock()
	m, ok := s.methods[method]
	unhandled := s.unhandled
	s.mu.Unlock()
	if !ok {
		if unhandled != nil {
			return unhandled(method, params)
		}
		return nil, api.RPCf("unknown method %q", method)
	}
	return m(params)
}

// StartRemoteCall allocates a request id, records the pending call and
// returns the request together with the future its reply completes.
func (s *State) StartRemoteCall(method string, params []json.RawMessage) (Request, *fiber.Future[json.RawMessage]) {
	p := fiber.NewPromise[json.RawMessage]()
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.awaiting[id] = p
	s.mu.Unlock()
	return Request{ID: &id, Method: method, Params: params}, p.Future()
}

// HandleReply routes a response to the awaiting future. Responses
// without an ID or with an unknown ID are protocol errors.
func (s *State) HandleReply(resp Response) error {
	if resp.ID == nil {
		return api.RPCf("response without id")
	}
	s.mu.Lock()
	p, ok := s.awaiting[*resp.ID]
	delete(s.awaiting, *resp.ID)
	s.mu.Unlock()
	if !ok {
		return api.RPCf("unknown response id %d", *resp.ID)
	}
	switch {
	case resp.Error != nil:
		p.Fail(api.RPCf("%s", resp.Error.Message))
	case resp.Result != nil:
		p.Set(*resp.Result)
	default:
		p.Set(nil)
	}
	return nil
}

// Close fails every pending call with eof. Used when the underlying
// connection goes away.
func (s *State) Close() {
	s.mu.Lock()
	awaiting := s.awaiting
	s.awaiting = make(map[uint64]*fiber.Promise[json.RawMessage])
	s.mu.Unlock()
	for _, p := range awaiting {
		p.Fail(api.EOFf(nil, "connection closed"))
	}
}
