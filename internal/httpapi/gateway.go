// Package httpapi is the request gateway: it validates submissions, queues
// them on the ledger and answers balance queries from settled state.
//
// Every ledger response is 200 OK with a plain-text body, including logical
// failures. Settlement-time failures (duplicate account, unknown account,
// insufficient funds) never reach the caller; poll /balance to observe the
// effect of a submission.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sheikh-saqib/epoch-ledger/internal/ledger"
	"github.com/sheikh-saqib/epoch-ledger/internal/logging"
	"github.com/sheikh-saqib/epoch-ledger/internal/metrics"
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/sheikh-saqib/epoch-ledger/internal/queue"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidParams = "Invalid parameters"
	msgNoAccount     = "No account found for this id"
	msgUnrecognized  = "Unrecognized request"
	msgQueueFull     = "Pending queue is full, try again after the next settlement"
	msgRateLimited   = "Too many requests"
	msgInternal      = "Internal error"
)

// Ledger is what the gateway needs from the ledger.
type Ledger interface {
	SubmitCreateAccount(id models.AccountID, startingBalance decimal.Decimal) error
	SubmitTransfer(fromID, toID models.AccountID, amount decimal.Decimal) error
	Balance(id models.AccountID) (decimal.Decimal, error)
}

// Options configures the gateway.
type Options struct {
	// SettlementInterval is quoted back to callers in transfer acknowledgements.
	SettlementInterval time.Duration
	// SubmitRPS limits submissions per client address; 0 disables limiting.
	SubmitRPS   float64
	SubmitBurst int
	// Metrics exposes /metrics on the gateway listener.
	Metrics bool
}

// Server routes HTTP requests to the ledger.
type Server struct {
	ledger  Ledger
	opts    Options
	log     *logging.Logger
	limiter *clientLimiter
	now     func() time.Time
}

func NewServer(l Ledger, opts Options, log *logging.Logger) *Server {
	if opts.SettlementInterval <= 0 {
		opts.SettlementInterval = ledger.DefaultInterval
	}
	if log == nil {
		log = logging.NewDefault("gateway")
	}
	s := &Server{
		ledger: l,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
	if opts.SubmitRPS > 0 {
		s.limiter = newClientLimiter(opts.SubmitRPS, opts.SubmitBurst)
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/create-account", s.limited("create-account", s.handleCreateAccount)).Methods(http.MethodGet)
	r.HandleFunc("/transfer", s.limited("transfer", s.handleTransfer)).Methods(http.MethodGet)
	r.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.opts.Metrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	unrecognized := http.HandlerFunc(s.handleUnrecognized)
	r.NotFoundHandler = unrecognized
	r.MethodNotAllowedHandler = unrecognized

	var h http.Handler = r
	h = metrics.InstrumentHandler(h)
	h = s.logRequests(h)
	h = s.recoverPanics(h)
	return h
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p, err := parseCreateAccount(r.URL.Query())
	if err != nil {
		metrics.RecordSubmission("create-account", "invalid")
		writeText(w, http.StatusOK, msgInvalidParams)
		return
	}

	if err := s.ledger.SubmitCreateAccount(p.AccountID, p.StartingBalance); err != nil {
		s.submitFailed(w, "create-account", err)
		return
	}

	metrics.RecordSubmission("create-account", "accepted")
	writeText(w, http.StatusOK, fmt.Sprintf("Pushed: Action_CreateAccount with ID: %s and starting balance: %s", p.AccountID, p.StartingBalance))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	p, err := parseTransfer(r.URL.Query())
	if err != nil {
		metrics.RecordSubmission("transfer", "invalid")
		writeText(w, http.StatusOK, msgInvalidParams)
		return
	}

	if err := s.ledger.SubmitTransfer(p.FromID, p.ToID, p.Amount); err != nil {
		s.submitFailed(w, "transfer", err)
		return
	}

	metrics.RecordSubmission("transfer", "accepted")
	writeText(w, http.StatusOK, fmt.Sprintf(
		"Transfer pushed, call <url>/balance?acct_id=<desired account> in %s to see new balance",
		s.opts.SettlementInterval,
	))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	p, err := parseBalance(r.URL.Query())
	if err != nil {
		writeText(w, http.StatusOK, msgInvalidParams)
		return
	}

	balance, err := s.ledger.Balance(p.AccountID)
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		writeText(w, http.StatusOK, msgNoAccount)
	case err != nil:
		s.log.WithError(err).WithField("acct_id", p.AccountID.String()).Error("balance lookup failed")
		writeText(w, http.StatusInternalServerError, msgInternal)
	default:
		writeText(w, http.StatusOK, balance.String())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleUnrecognized(w http.ResponseWriter, r *http.Request) {
	s.log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"query":  r.URL.RawQuery,
	}).Info("request not recognized")
	writeText(w, http.StatusOK, msgUnrecognized)
}

func (s *Server) submitFailed(w http.ResponseWriter, kind string, err error) {
	switch {
	case errors.Is(err, queue.ErrQueueFull):
		metrics.RecordSubmission(kind, "queue-full")
		s.log.WithField("kind", kind).Warn("submission rejected, pending queue full")
		writeText(w, http.StatusServiceUnavailable, msgQueueFull)
	case ledger.IsInvalid(err):
		metrics.RecordSubmission(kind, "invalid")
		writeText(w, http.StatusOK, msgInvalidParams)
	default:
		metrics.RecordSubmission(kind, "error")
		s.log.WithError(err).WithField("kind", kind).Error("submission failed")
		writeText(w, http.StatusInternalServerError, msgInternal)
	}
}

// limited applies the per-client submission rate limit, if configured.
func (s *Server) limited(kind string, next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r), s.now()) {
			metrics.RecordSubmission(kind, "rate-limited")
			w.Header().Set("Retry-After", "1")
			writeText(w, http.StatusTooManyRequests, msgRateLimited)
			return
		}
		next(w, r)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
