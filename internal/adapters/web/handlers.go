package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"procurement/internal/app"
)

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins string
	BodyLimitBytes int64
	// Registerer and Gatherer back the request counter and /metrics.
	// Both default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	log    *zap.Logger
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log *zap.Logger, opts Options) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.BodyLimitBytes <= 0 {
		opts.BodyLimitBytes = 1 << 20
	}

	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(Instrument(opts.Registerer))

	r.Get("/api/health", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(opts.BodyLimitBytes))

		r.Get("/api/schema/{name}", h.apiSchema)

		// ── Purchase orders ───────────────────────────────────────────────────
		r.Get("/api/orders", h.apiListOrders)
		r.Post("/api/orders", h.apiCreateOrder)
		r.Post("/api/orders/quote", h.apiQuoteOrder)
		r.Get("/api/orders/{ref}", h.apiGetOrder)
		r.Put("/api/orders/{ref}", h.apiUpdateOrder)
		r.Delete("/api/orders/{ref}", h.apiDeleteOrder)
		r.Post("/api/orders/{ref}/items", h.apiAddItem)
		r.Put("/api/orders/{ref}/items/{itemID}", h.apiUpdateItem)
		r.Delete("/api/orders/{ref}/items/{itemID}", h.apiRemoveItem)
		r.Post("/api/orders/{ref}/recompute", h.apiRecomputeOrder)
		r.Post("/api/orders/{ref}/confirm", h.apiConfirmOrder)
		r.Post("/api/orders/{ref}/deliver", h.apiDeliverOrder)
		r.Post("/api/orders/{ref}/cancel", h.apiCancelOrder)
		r.Post("/api/orders/{ref}/pay", h.apiPayOrder)

		// ── Withholding ───────────────────────────────────────────────────────
		r.Get("/api/orders/{ref}/withholding-payments", h.apiListOrderPayments)
		r.Post("/api/orders/{ref}/withholding-payments", h.apiRecordPayment)
		r.Get("/api/withholding-payments", h.apiListPayments)
		r.Post("/api/withholding-payments/{id}/remit", h.apiRemitPayment)
		r.Get("/api/tax-types", h.apiListTaxTypes)

		// ── Master data ───────────────────────────────────────────────────────
		r.Get("/api/clients", h.apiListClients)
		r.Post("/api/clients", h.apiCreateClient)
		r.Get("/api/clients/{id}", h.apiGetClient)
		r.Delete("/api/clients/{id}", h.apiDeleteClient)
		r.Get("/api/products", h.apiListProducts)
		r.Post("/api/products", h.apiCreateProduct)

		r.Get("/api/dashboard", h.apiDashboard)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// apiSchema handles GET /api/schema/{name}.
func (h *Handler) apiSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.svc.Schema(chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, schema)
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// intParam parses a positive integer URL parameter, writing a 400 on failure.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, r, "invalid "+name+": "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
