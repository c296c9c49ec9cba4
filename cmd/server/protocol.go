package main

import (
	"encoding/json"
)

// Request is the JSON form of a query line: {"query": "..."}.
type Request struct {
	Query string `json:"query"`
}

// Response is written back to the client, one per line.
type Response struct {
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	Type      string          `json:"type,omitempty"` // "query" or "auth"
	RequestID string          `json:"request_id,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// QueryResponse contains the rows of an evaluated query.
type QueryResponse struct {
	Relation    string     `json:"relation"`
	Columns     []string   `json:"columns"`
	Data        [][]string `json:"data"`
	RecordsRead int        `json:"records_read"`
	TimeMs      float64    `json:"time_ms"`
}

// AuthResponse is the result of a successful AUTH command.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses a JSON request from a byte slice.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	err := json.Unmarshal(data, &req)
	return req, err
}
