// Command h3server runs the local HTTP/3 conformance target, a plain
// well-behaved server the probe harness can be aimed at for self-tests.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/h3probe/h3probe/mockh3"
)

func main() {
	var (
		host     string
		port     int
		certFile string
		keyFile  string
		quiet    bool
	)
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&host, "host", "localhost", "hostname or IP to listen on")
	fs.IntVar(&port, "port", 4433, "UDP port to listen on")
	fs.StringVar(&certFile, "cert", "", "TLS certificate file (default: self-signed)")
	fs.StringVar(&keyFile, "key", "", "TLS key file (required with -cert)")
	fs.BoolVar(&quiet, "quiet", false, "suppress per-request logging")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := mockh3.ServerConfig{Host: host, Port: port}
	if !quiet {
		cfg.Logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	if certFile != "" || keyFile != "" {
		if certFile == "" || keyFile == "" {
			fmt.Fprintln(os.Stderr, "-cert and -key must be given together")
			os.Exit(1)
		}
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Certificate = &cert
	}

	server, err := mockh3.NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Serving HTTP/3 on %s\n", server.Addr())
	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
