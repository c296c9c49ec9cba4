package main

import (
	"bufio"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nickyhof/relq"
)

const testDefinitions = `Emp(id, name, age) = {1, Alice, 30; 2, Bob, 25; 3, Carol, 41}
A(x) = {1; 2; 3}
B(x) = {2; 3; 4}
`

func testInstance(t *testing.T) *relq.Instance {
	t.Helper()
	instance, err := relq.Parse(testDefinitions)
	if err != nil {
		t.Fatalf("Failed to parse relations: %v", err)
	}
	return instance
}

func setupTestServer(t *testing.T) (*Server, func()) {
	t.Helper()
	server := NewServer(testInstance(t))
	if err := server.Start(":0"); err != nil { // :0 picks a free port
		t.Fatalf("Failed to start server: %v", err)
	}
	return server, func() {
		server.Stop()
	}
}

func readResponse(t *testing.T, reader *bufio.Reader) Response {
	t.Helper()
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return resp
}

func send(t *testing.T, conn net.Conn, reader *bufio.Reader, line string) Response {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("Failed to send %q: %v", line, err)
	}
	return readResponse(t, reader)
}

func sendQuery(t *testing.T, addr, query string) Response {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	return send(t, conn, bufio.NewReader(conn), query)
}

func decodeResult(t *testing.T, resp Response) QueryResponse {
	t.Helper()
	var qr QueryResponse
	if err := json.Unmarshal(resp.Result, &qr); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	return qr
}

func TestServerStartStop(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	if server.Addr() == "" {
		t.Error("Expected non-empty address")
	}
	if server.TLSEnabled() {
		t.Error("Expected TLS to be disabled")
	}
}

func TestServerSelect(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp := sendQuery(t, server.Addr(), "select age > 28(Emp)")
	if !resp.Success {
		t.Fatalf("Query failed: %s", resp.Error)
	}
	if resp.Type != "query" {
		t.Errorf("Expected query type, got: %s", resp.Type)
	}
	if resp.RequestID == "" {
		t.Error("Expected a request id")
	}

	qr := decodeResult(t, resp)
	if qr.Relation != "Emp" {
		t.Errorf("Expected relation Emp, got %q", qr.Relation)
	}
	if strings.Join(qr.Columns, ",") != "id,name,age" {
		t.Errorf("Unexpected columns: %v", qr.Columns)
	}
	if len(qr.Data) != 2 || qr.Data[0][1] != "Alice" || qr.Data[1][1] != "Carol" {
		t.Errorf("Unexpected rows: %v", qr.Data)
	}
	if qr.RecordsRead != 2 {
		t.Errorf("Expected 2 records, got %d", qr.RecordsRead)
	}
}

func TestServerSetOperations(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		query string
		rows  int
	}{
		{"union A, B", 4},
		{"intersect A, B", 2},
		{"difference A, B", 1},
		{"project name(Emp)", 3},
		{"join A, B on x", 2},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := sendQuery(t, server.Addr(), tt.query)
			if !resp.Success {
				t.Fatalf("Query failed: %s", resp.Error)
			}
			if qr := decodeResult(t, resp); len(qr.Data) != tt.rows {
				t.Errorf("Expected %d rows, got %d", tt.rows, len(qr.Data))
			}
		})
	}
}

func TestServerErrors(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		query string
		want  string
	}{
		{"select age > 1(Missing)", "unknown relation"},
		{"union A, Emp", "requires identical columns"},
		{"rename A", "not supported"},
		{"project salary(Emp)", "salary"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := sendQuery(t, server.Addr(), tt.query)
			if resp.Success {
				t.Fatal("Expected query to fail")
			}
			if !strings.Contains(resp.Error, tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, resp.Error)
			}
			if resp.RequestID == "" {
				t.Error("Expected a request id on errors")
			}
		})
	}
}

func TestServerJSONRequest(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp := sendQuery(t, server.Addr(), `{"query": "intersect A, B"}`)
	if !resp.Success {
		t.Fatalf("Query failed: %s", resp.Error)
	}
	if qr := decodeResult(t, resp); len(qr.Data) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(qr.Data))
	}

	resp = sendQuery(t, server.Addr(), `{"query": `)
	if resp.Success || !strings.Contains(resp.Error, "invalid request") {
		t.Errorf("Expected invalid request error, got %+v", resp)
	}
}

func TestServerPersistentConnection(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	conn, err := net.DialTimeout("tcp", server.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	ids := map[string]bool{}
	for _, query := range []string{"union A, B", "select x >= 3(B)", "project x(A)"} {
		resp := send(t, conn, reader, query)
		if !resp.Success {
			t.Fatalf("Query %q failed: %s", query, resp.Error)
		}
		if ids[resp.RequestID] {
			t.Errorf("Duplicate request id %s", resp.RequestID)
		}
		ids[resp.RequestID] = true
	}

	if _, err := conn.Write([]byte("quit\n")); err != nil {
		t.Fatalf("Failed to send quit: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := reader.ReadString('\n'); err == nil {
		t.Error("Expected connection to close after quit")
	}
}

func TestServerStopClosesIdleConnections(t *testing.T) {
	server := NewServer(testInstance(t))
	if err := server.Start(":0"); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	conn, err := net.DialTimeout("tcp", server.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)
	send(t, conn, reader, "union A, B")

	stopped := make(chan struct{})
	go func() {
		server.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return with an idle connection open")
	}
}

// === Auth Tests ===

func setupAuthTestServer(t *testing.T, secret string) (*Server, func()) {
	t.Helper()
	authConfig := &AuthConfig{
		Enabled:   true,
		JWTSecret: secret,
	}
	server := NewServerWithAuth(testInstance(t), authConfig)
	if err := server.Start(":0"); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	return server, func() {
		server.Stop()
	}
}

func createTestJWT(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to create test JWT: %v", err)
	}
	return tokenString
}

func userClaims(name, email string) jwt.MapClaims {
	return jwt.MapClaims{
		"name":  name,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthRequired(t *testing.T) {
	server, cleanup := setupAuthTestServer(t, "test-secret")
	defer cleanup()

	resp := sendQuery(t, server.Addr(), "union A, B")
	if resp.Success {
		t.Fatal("Expected query to fail without authentication")
	}
	if resp.Error != "authentication required" {
		t.Errorf("Expected 'authentication required', got %q", resp.Error)
	}
}

func TestAuthWithValidJWT(t *testing.T) {
	secret := "test-secret"
	server, cleanup := setupAuthTestServer(t, secret)
	defer cleanup()

	conn, err := net.DialTimeout("tcp", server.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	token := createTestJWT(t, secret, userClaims("Test User", "test@example.com"))
	resp := send(t, conn, reader, "AUTH JWT "+token)
	if !resp.Success {
		t.Fatalf("Auth failed: %s", resp.Error)
	}
	if resp.Type != "auth" {
		t.Errorf("Expected auth type, got %s", resp.Type)
	}

	var ar AuthResponse
	if err := json.Unmarshal(resp.Result, &ar); err != nil {
		t.Fatalf("Failed to parse auth result: %v", err)
	}
	if !ar.Authenticated {
		t.Error("Expected authenticated")
	}
	if ar.Identity != "Test User <test@example.com>" {
		t.Errorf("Unexpected identity %q", ar.Identity)
	}
	if ar.ExpiresIn <= 0 || ar.ExpiresIn > 3600 {
		t.Errorf("Unexpected expires_in %d", ar.ExpiresIn)
	}

	resp = send(t, conn, reader, "difference A, B")
	if !resp.Success {
		t.Fatalf("Query after auth failed: %s", resp.Error)
	}
}

func TestAuthWithInvalidJWT(t *testing.T) {
	server, cleanup := setupAuthTestServer(t, "correct-secret")
	defer cleanup()

	conn, err := net.DialTimeout("tcp", server.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	tests := []struct {
		name string
		line string
	}{
		{"wrong secret", "AUTH JWT " + createTestJWT(t, "wrong-secret", userClaims("Test User", "test@example.com"))},
		{"expired", "AUTH JWT " + createTestJWT(t, "correct-secret", jwt.MapClaims{"name": "Old", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no identity", "AUTH JWT " + createTestJWT(t, "correct-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
		{"garbage", "AUTH JWT not-a-token"},
		{"missing token", "AUTH JWT"},
		{"unsupported type", "AUTH BASIC dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := send(t, conn, reader, tt.line)
			if resp.Success {
				t.Error("Expected auth to fail")
			}
			if resp.Error == "" {
				t.Error("Expected error message")
			}
		})
	}

	resp := send(t, conn, reader, "union A, B")
	if resp.Error != "authentication required" {
		t.Errorf("Expected connection to stay unauthenticated, got %+v", resp)
	}
}

func TestAuthWithoutConfiguration(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	resp := sendQuery(t, server.Addr(), "AUTH JWT token")
	if resp.Success || resp.Error != "authentication not enabled" {
		t.Errorf("Expected auth to be rejected, got %+v", resp)
	}
}

func TestValidateJWTClaims(t *testing.T) {
	secret := "claims-secret"
	server := NewServerWithAuth(testInstance(t), &AuthConfig{
		Enabled:    true,
		JWTSecret:  secret,
		Issuer:     "relq-test",
		Audience:   "analysts",
		NameClaim:  "preferred_username",
		EmailClaim: "mail",
	})

	valid := jwt.MapClaims{
		"preferred_username": "carol",
		"mail":               "carol@example.com",
		"iss":                "relq-test",
		"aud":                "analysts",
	}
	result := server.validateJWT(createTestJWT(t, secret, valid))
	if result.err != nil {
		t.Fatalf("Failed to validate token: %v", result.err)
	}
	if result.identity.Name != "carol" || result.identity.Email != "carol@example.com" {
		t.Errorf("Unexpected identity %+v", result.identity)
	}
	if !result.expiresAt.IsZero() {
		t.Errorf("Expected no expiry, got %v", result.expiresAt)
	}

	wrongIssuer := jwt.MapClaims{"preferred_username": "carol", "iss": "other", "aud": "analysts"}
	if result := server.validateJWT(createTestJWT(t, secret, wrongIssuer)); result.err == nil {
		t.Error("Expected wrong issuer to fail")
	}

	wrongAudience := jwt.MapClaims{"preferred_username": "carol", "iss": "relq-test", "aud": "admins"}
	if result := server.validateJWT(createTestJWT(t, secret, wrongAudience)); result.err == nil {
		t.Error("Expected wrong audience to fail")
	}
}

func TestParseAuthCommand(t *testing.T) {
	tests := []struct {
		line    string
		token   string
		wantErr bool
	}{
		{"AUTH JWT abc", "abc", false},
		{"auth jwt abc", "abc", false},
		{"AUTH JWT", "", true},
		{"AUTH JWT a b", "", true},
		{"AUTH KERBEROS abc", "", true},
		{"union A, B", "", true},
	}

	for _, tt := range tests {
		authType, token, err := parseAuthCommand(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.line)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.line, err)
			continue
		}
		if authType != "JWT" || token != tt.token {
			t.Errorf("%q: got (%s, %s)", tt.line, authType, token)
		}
	}
}

func TestConnectionStateExpiry(t *testing.T) {
	now := time.Now()
	state := &ConnectionState{authenticated: true, tokenExpiry: now.Add(-time.Second)}
	if !state.expired(now) {
		t.Error("Expected expired state")
	}
	state.tokenExpiry = time.Time{}
	if state.expired(now) {
		t.Error("Expected state without expiry to stay valid")
	}
}

// === TLS Tests ===

func setupTLSTestServer(t *testing.T) (*Server, string, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	certFile := tmpDir + "/cert.pem"
	keyFile := tmpDir + "/key.pem"
	generateTestCertificate(t, certFile, keyFile)

	server := NewServer(testInstance(t))
	if err := server.StartTLS(":0", certFile, keyFile); err != nil {
		t.Fatalf("Failed to start TLS server: %v", err)
	}
	return server, certFile, func() {
		server.Stop()
	}
}

func generateTestCertificate(t *testing.T, certFile, keyFile string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate private key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
		DNSNames:     []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		t.Fatalf("Failed to write cert file: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}
}

func TestTLSServerQuery(t *testing.T) {
	server, certFile, cleanup := setupTLSTestServer(t)
	defer cleanup()

	if !server.TLSEnabled() {
		t.Error("Expected TLS to be enabled")
	}

	certPool := x509.NewCertPool()
	certData, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatalf("Failed to read cert: %v", err)
	}
	certPool.AppendCertsFromPEM(certData)

	tlsConfig := &tls.Config{RootCAs: certPool, ServerName: "localhost"}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 2 * time.Second}, "tcp", server.Addr(), tlsConfig)
	if err != nil {
		t.Fatalf("Failed to connect with TLS: %v", err)
	}
	defer conn.Close()

	resp := send(t, conn, bufio.NewReader(conn), "union A, B")
	if !resp.Success {
		t.Errorf("Query failed: %s", resp.Error)
	}
}

func TestTLSServerInvalidCert(t *testing.T) {
	server, _, cleanup := setupTLSTestServer(t)
	defer cleanup()

	// System roots never include the self-signed test certificate.
	tlsConfig := &tls.Config{ServerName: "localhost"}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 2 * time.Second}, "tcp", server.Addr(), tlsConfig)
	if err == nil {
		conn.Close()
		t.Error("Expected TLS connection to fail with untrusted certificate")
	}
}

func TestStartTLSMissingCertificate(t *testing.T) {
	server := NewServer(testInstance(t))
	dir := t.TempDir()
	if err := server.StartTLS(":0", dir+"/missing.pem", dir+"/missing.key"); err == nil {
		server.Stop()
		t.Fatal("Expected StartTLS to fail without a certificate")
	}
}

func TestEncodeResponse(t *testing.T) {
	data, err := EncodeResponse(Response{Success: false, Error: "boom", Type: "query", RequestID: "id-1"})
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("Expected trailing newline")
	}
	want := `{"success":false,"error":"boom","type":"query","request_id":"id-1"}`
	if strings.TrimSpace(string(data)) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}
