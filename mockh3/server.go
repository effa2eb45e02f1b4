package mockh3

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/quic-go/quic-go/http3"

	"github.com/h3probe/h3probe/framework"
	"github.com/h3probe/h3probe/framework/helpers"
)

const indexPage = `<!DOCTYPE html>
<html>
<head><title>h3probe conformance target</title></head>
<body>
<h1>h3probe conformance target</h1>
<p>This is a plain HTTP/3 server for the probe harness to aim at.</p>
</body>
</html>
`

// ServerConfig configures the local conformance target.
type ServerConfig struct {
	Host string
	Port int

	// Certificate is used for TLS if set; otherwise a self-signed
	// certificate for Host is generated at startup.
	Certificate *tls.Certificate

	// Logger receives one line per handled request; nil means discard.
	Logger framework.Logger
}

// Server is a local HTTP/3 conformance target. It is an ordinary,
// well-behaved server built directly on quic-go's http3 stack: everything
// interesting about a probe run comes from how this stack reacts to the
// harness's violations, not from anything custom here.
//
// The handle is explicit: callers construct, serve, and close their own
// instance. There is no package-level server state.
type Server struct {
	addr   string
	logger framework.Logger
	h3     *http3.Server
}

// NewServer builds a target server. It does not start listening; call
// ListenAndServe.
func NewServer(cfg ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	cert := cfg.Certificate
	if cert == nil {
		generated, err := GenerateSelfSignedCert(host)
		if err != nil {
			return nil, fmt.Errorf("could not generate server certificate: %w", err)
		}
		cert = &generated
	}

	s := &Server{
		addr:   net.JoinHostPort(host, strconv.Itoa(cfg.Port)),
		logger: logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.serveIndex)
	router.HandleFunc("/index.html", s.serveIndex)
	router.PathPrefix("/").HandlerFunc(s.serveEcho)

	s.h3 = &http3.Server{
		Addr:      s.addr,
		Handler:   s.logRequests(router),
		TLSConfig: http3.ConfigureTLSConfig(&tls.Config{Certificates: []tls.Certificate{*cert}}),
	}
	return s, nil
}

// Addr returns the host:port the server will listen on.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe serves until Close is called.
func (s *Server) ListenAndServe() error {
	s.logger.Printf("conformance target listening on %s (UDP)", s.addr)
	return s.h3.ListenAndServe()
}

// Close shuts the server down.
func (s *Server) Close() error {
	return s.h3.Close()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Printf("handling %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexPage)
}

// serveEcho answers any other request with a plain-text summary, matching
// the catch-all behavior probe scripts rely on: every well-formed request
// gets some 200 response.
func (s *Server) serveEcho(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	helpers.MustFprintf(w, "You requested: %s %s\n", r.Method, r.URL.Path)
	if len(body) > 0 {
		helpers.MustFprintf(w, "Request body: %d bytes\n", len(body))
	}
}
