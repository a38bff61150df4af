package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
	"github.com/florianilch/messagebridge/internal/observability/middleware"
)

// DefaultMaxRequestBytes bounds inbound request bodies.
const DefaultMaxRequestBytes int64 = 10 << 20

// ReadinessChecker reports whether the application can serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Backend is the adapter behind POST /v1/messages plus the metadata the
// proxy exposes about it.
type Backend interface {
	anthropicadapter.CreateMessageAdapter

	// BaseURL is the backend API root, used in logs.
	BaseURL() string
	// ModelAliases lists the Anthropic model names served by /v1/models.
	ModelAliases() []string
}

// Proxy serves the Anthropic Messages API from an OpenAI-compatible backend.
type Proxy struct {
	handler http.Handler
	server  *http.Server
}

// Compile-time check to ensure Proxy implements http.Handler
var _ http.Handler = (*Proxy)(nil)

type options struct {
	transport       http.RoundTripper
	maxRequestBytes int64
}

// Option configures a Proxy.
type Option func(*options)

// WithTransport sets the base transport for backend calls. Authentication is
// layered on top of it.
func WithTransport(t http.RoundTripper) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithMaxRequestBytes limits the size of inbound request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRequestBytes = n
		}
	}
}

// New creates a proxy for backend. A nil tokenSource sends backend requests
// without credentials, which suits local servers such as LM Studio.
func New(backend Backend, tokenSource oauth2.TokenSource, health ReadinessChecker, opts ...Option) (*Proxy, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if health == nil {
		return nil, fmt.Errorf("readiness checker cannot be nil")
	}

	o := options{
		transport:       http.DefaultTransport,
		maxRequestBytes: DefaultMaxRequestBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if tokenSource != nil {
		transport = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, tokenSource),
			Base:   o.transport,
		}
	}

	messages := &CreateMessageHandler{
		Adapter:   backend,
		Transport: transport,
		BaseURL:   backend.BaseURL(),
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(slog.Default()),
		middleware.RequestIDPropagation,
		Recovery,
	)

	r.Get("/", rootHandler())
	r.Get("/health/liveness", livenessHandler())
	r.Get("/health/readiness", readinessHandler(health))
	r.Get("/v1/models", modelsHandler(backend.ModelAliases()))
	r.With(RequestSizeLimit(o.maxRequestBytes)).Post("/api/event_logging/batch", eventLoggingHandler())
	r.With(RequestSizeLimit(o.maxRequestBytes)).Method(http.MethodPost, "/v1/messages", messages)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONAnthropicError(r.Context(), w,
			anthropicadapter.NewErrorResponse(anthropicadapter.ErrorTypeNotFound, "Not found: "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w,
			anthropicadapter.NewErrorResponse(anthropicadapter.ErrorTypeInvalidRequest, "Method not allowed: "+r.Method),
			http.StatusMethodNotAllowed)
	})

	return &Proxy{handler: r}, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. The returned channel
// receives the terminal serve error, or nil after Shutdown.
func (p *Proxy) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	p.server = &http.Server{
		Handler:           p,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: responses stream for as long as the backend generates.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.InfoContext(ctx, "proxy listening", "addr", ln.Addr().String())
	return errCh, nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests until
// ctx expires.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	return nil
}
