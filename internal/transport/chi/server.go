package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
	"github.com/kailas-cloud/inquirydesk/internal/logger"
	healthuc "github.com/kailas-cloud/inquirydesk/internal/usecase/health"
	"github.com/kailas-cloud/inquirydesk/internal/version"
)

// inquiryService is the subset of the inquiry use case the HTTP API needs.
type inquiryService interface {
	Process(ctx context.Context, userMessage string) (dominq.Inquiry, error)
	Create(ctx context.Context, userMessage string) (dominq.Inquiry, error)
	Get(ctx context.Context, id int64) (dominq.Inquiry, error)
	List(ctx context.Context, skip, limit int) ([]dominq.Inquiry, error)
	Delete(ctx context.Context, id int64) error
	Reset(ctx context.Context) (int, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers of the inquiry API.
type Server struct {
	inquiries     inquiryService
	health        healthService
	validate      *validator.Validate
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// DefaultMaxBodyBytes caps request bodies unless WithMaxBodyBytes overrides it.
const DefaultMaxBodyBytes int64 = 8 << 20

// NewServer creates an HTTP API server.
func NewServer(inquiries inquiryService, health healthService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		inquiries:    inquiries,
		health:       health,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       log,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound, "Inquiry not found"),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed, ""),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError, ""),
		sentinelHandler(domain.ErrLanguageModelError, http.StatusBadGateway, codeProviderError, ""),
	}
	return s
}

// WithMaxBodyBytes sets the request body limit. Non-positive values keep the default.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Customer Inquiry API is running"})
}

// ProcessInquiry handles POST /process: runs the pipeline and stores the result.
func (s *Server) ProcessInquiry(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.decodeMessage(w, r)
	if !ok {
		return
	}

	inq, err := s.inquiries.Process(r.Context(), msg)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inquiryToResponse(inq))
}

// CreateInquiry handles POST /inquiries/create: stores the message without processing.
func (s *Server) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.decodeMessage(w, r)
	if !ok {
		return
	}

	inq, err := s.inquiries.Create(r.Context(), msg)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inquiryToResponse(inq))
}

// ListInquiries handles GET /inquiries/all?skip=&limit=.
func (s *Server) ListInquiries(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	items, err := s.inquiries.List(r.Context(), skip, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := make([]InquiryResponse, len(items))
	for i, inq := range items {
		resp[i] = inquiryToResponse(inq)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetInquiry handles GET /inquiries/{id}.
func (s *Server) GetInquiry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	inq, err := s.inquiries.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inquiryToResponse(inq))
}

// DeleteInquiry handles DELETE /inquiries/{id}.
func (s *Server) DeleteInquiry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.inquiries.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// ResetInquiries handles DELETE /inquiries/reset/all.
func (s *Server) ResetInquiries(w http.ResponseWriter, r *http.Request) {
	n, err := s.inquiries.Reset(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Deleted %d inquiries", n)})
}

// HealthCheck handles GET /health. Degraded still answers 200: inquiries are processed without context.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

func (s *Server) decodeMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req MessageRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBodyTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return "", false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return "", false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return "", false
	}
	return *req.UserMessage, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %s failed on %q", fe.Field(), fe.Tag())
	}
	return "invalid request"
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("id must be an integer, got %q", raw))
		return 0, false
	}
	return id, true
}

// queryInt returns 0 when the parameter is absent; the service applies defaults.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// An empty message falls back to the sentinel's own text so internals are never exposed.
func sentinelHandler(sentinel error, status int, code, message string) errorHandler {
	if message == "" {
		message = sentinel.Error()
	}
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.OrDefault(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
