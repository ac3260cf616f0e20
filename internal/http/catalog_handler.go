package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

type CatalogHandler struct {
	products ProductLister
	regions  RegionDirectory
	timeout  time.Duration
}

func NewCatalogHandler(products ProductLister, regions RegionDirectory, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		products: products,
		regions:  regions,
		timeout:  timeout,
	}
}

type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

type ShippingCostResponse struct {
	ProvinceID   string          `json:"province_id"`
	CityID       string          `json:"city_id"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

// GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.ListProducts(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	respondJSON(w, r, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/regions
func (h *CatalogHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.regions.Provinces())
}

// GET /api/v1/regions/shipping-cost?province_id=&city_id=
func (h *CatalogHandler) ShippingCost(w http.ResponseWriter, r *http.Request) {
	provinceID := r.URL.Query().Get("province_id")
	cityID := r.URL.Query().Get("city_id")
	if provinceID == "" {
		handleServiceError(w, r, domain.NewValidationError("province_id", "is required"))
		return
	}
	if cityID == "" {
		handleServiceError(w, r, domain.NewValidationError("city_id", "is required"))
		return
	}

	cost, err := h.regions.ResolveShippingCost(provinceID, cityID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, ShippingCostResponse{ProvinceID: provinceID, CityID: cityID, ShippingCost: cost})
}
