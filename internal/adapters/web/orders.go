package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"procurement/internal/app"
)

func orderRef(r *http.Request) string {
	return chi.URLParam(r, "ref")
}

// apiListOrders handles GET /api/orders?status=.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, newOrderViews(result.Orders))
}

// apiGetOrder handles GET /api/orders/{ref}.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, http.StatusOK)(h.svc.GetOrder(r.Context(), orderRef(r)))
}

// apiCreateOrder handles POST /api/orders.
func (h *Handler) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondOrder(w, r, http.StatusCreated)(h.svc.CreateOrder(r.Context(), req))
}

// apiQuoteOrder handles POST /api/orders/quote.
func (h *Handler) apiQuoteOrder(w http.ResponseWriter, r *http.Request) {
	var req app.QuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.QuoteOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, newQuoteView(result))
}

// apiUpdateOrder handles PUT /api/orders/{ref}.
func (h *Handler) apiUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondOrder(w, r, http.StatusOK)(h.svc.UpdateOrder(r.Context(), orderRef(r), req))
}

// apiDeleteOrder handles DELETE /api/orders/{ref}.
func (h *Handler) apiDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteOrder(r.Context(), orderRef(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiAddItem handles POST /api/orders/{ref}/items.
func (h *Handler) apiAddItem(w http.ResponseWriter, r *http.Request) {
	var req app.ItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondOrder(w, r, http.StatusCreated)(h.svc.AddItem(r.Context(), orderRef(r), req))
}

// apiUpdateItem handles PUT /api/orders/{ref}/items/{itemID}.
func (h *Handler) apiUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := intParam(w, r, "itemID")
	if !ok {
		return
	}
	var req app.ItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondOrder(w, r, http.StatusOK)(h.svc.UpdateItem(r.Context(), orderRef(r), itemID, req))
}

// apiRemoveItem handles DELETE /api/orders/{ref}/items/{itemID}.
func (h *Handler) apiRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := intParam(w, r, "itemID")
	if !ok {
		return
	}
	h.respondOrder(w, r, http.StatusOK)(h.svc.RemoveItem(r.Context(), orderRef(r), itemID))
}

// apiRecomputeOrder handles POST /api/orders/{ref}/recompute.
func (h *Handler) apiRecomputeOrder(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, http.StatusOK)(h.svc.RecomputeOrder(r.Context(), orderRef(r)))
}

// apiConfirmOrder handles POST /api/orders/{ref}/confirm.
func (h *Handler) apiConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, http.StatusOK)(h.svc.ConfirmOrder(r.Context(), orderRef(r)))
}

// apiDeliverOrder handles POST /api/orders/{ref}/deliver.
func (h *Handler) apiDeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, http.StatusOK)(h.svc.DeliverOrder(r.Context(), orderRef(r)))
}

// apiCancelOrder handles POST /api/orders/{ref}/cancel.
func (h *Handler) apiCancelOrder(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, http.StatusOK)(h.svc.CancelOrder(r.Context(), orderRef(r)))
}

// apiPayOrder handles POST /api/orders/{ref}/pay with {"payment_date": "YYYY-MM-DD"}.
func (h *Handler) apiPayOrder(w http.ResponseWriter, r *http.Request) {
	var req app.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respondOrder(w, r, http.StatusOK)(h.svc.MarkOrderPaid(r.Context(), orderRef(r), req.PaymentDate))
}

// respondOrder returns a sink for an order operation's result.
func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, status int) func(*app.OrderResult, error) {
	return func(result *app.OrderResult, err error) {
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSONStatus(w, status, newOrderView(result.Order))
	}
}
