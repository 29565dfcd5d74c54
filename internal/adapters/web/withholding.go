package web

import (
	"net/http"
	"strconv"

	"procurement/internal/app"
)

// apiListTaxTypes handles GET /api/tax-types.
func (h *Handler) apiListTaxTypes(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListTaxTypes(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]taxTypeView, 0, len(result.TaxTypes))
	for _, t := range result.TaxTypes {
		out = append(out, newTaxTypeView(t))
	}
	writeJSON(w, out)
}

// apiListPayments handles GET /api/withholding-payments.
func (h *Handler) apiListPayments(w http.ResponseWriter, r *http.Request) {
	h.listPayments(w, r, "")
}

// apiListOrderPayments handles GET /api/orders/{ref}/withholding-payments.
func (h *Handler) apiListOrderPayments(w http.ResponseWriter, r *http.Request) {
	h.listPayments(w, r, orderRef(r))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request, ref string) {
	result, err := h.svc.ListWithholdingPayments(r.Context(), ref)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]paymentView, 0, len(result.Payments))
	for i := range result.Payments {
		out = append(out, newPaymentView(&result.Payments[i]))
	}
	writeJSON(w, out)
}

// apiRecordPayment handles POST /api/orders/{ref}/withholding-payments.
func (h *Handler) apiRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req app.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.RecordWithholdingPayment(r.Context(), orderRef(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, newPaymentView(result.Payment))
}

// apiRemitPayment handles POST /api/withholding-payments/{id}/remit.
func (h *Handler) apiRemitPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req app.RemitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.RemitWithholdingPayment(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, newPaymentView(result.Payment))
}

// apiDashboard handles GET /api/dashboard?year=.
func (h *Handler) apiDashboard(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 {
			writeError(w, r, "invalid year: "+raw, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		year = y
	}
	result, err := h.svc.GetDashboard(r.Context(), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, newDashboardView(result))
}
