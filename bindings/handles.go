package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/nickyhof/relq"
	"github.com/nickyhof/relq/db"
)

// Handle is an open catalog together with its engine.
type Handle struct {
	instance *relq.Instance
	engine   *db.Engine
}

var (
	handlesMu  sync.Mutex
	handles    = make(map[int]*Handle)
	nextHandle = 1
)

// lastError holds the message of the most recent failed open.
var lastError string

func setLastError(err error) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	lastError = err.Error()
}

func getLastError() string {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	return lastError
}

var errInvalidHandle = errors.New("invalid handle")

// Response mirrors the server protocol.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type QueryResponse struct {
	Relation        string     `json:"relation"`
	Columns         []string   `json:"columns"`
	Data            [][]string `json:"data"`
	RecordsRead     int        `json:"records_read"`
	ExecutionTimeMs float64    `json:"execution_time_ms"`
	ExecutionOps    int        `json:"execution_ops"`
}

func register(instance *relq.Instance) int {
	handlesMu.Lock()
	defer handlesMu.Unlock()

	handle := nextHandle
	nextHandle++
	handles[handle] = &Handle{
		instance: instance,
		engine:   instance.Engine(),
	}
	return handle
}

func lookup(handle int) (*Handle, bool) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	h, ok := handles[handle]
	return h, ok
}

func openDefinitions(definitions string) (int, error) {
	instance, err := relq.Parse(definitions)
	if err != nil {
		return -1, err
	}
	return register(instance), nil
}

func openSource(path string) (int, error) {
	instance, err := relq.Load(context.Background(), path, db.SourceConfig{}.WithEnvironment())
	if err != nil {
		return -1, err
	}
	return register(instance), nil
}

func closeHandle(handle int) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	delete(handles, handle)
}

func execute(handle int, query string) Response {
	h, ok := lookup(handle)
	if !ok {
		return Response{Success: false, Error: errInvalidHandle.Error()}
	}

	result, err := h.engine.Execute(query)
	if err != nil {
		return Response{Success: false, Type: "query", Error: err.Error()}
	}

	data, _ := json.Marshal(QueryResponse{
		Relation:        result.Relation.Name,
		Columns:         result.Columns,
		Data:            result.Data,
		RecordsRead:     result.RecordsRead,
		ExecutionTimeMs: result.ExecutionTimeSec * 1000,
		ExecutionOps:    result.ExecutionOps,
	})
	return Response{Success: true, Type: "query", Result: data}
}

func encode(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Response{Success: false, Error: err.Error()})
	}
	return data
}
