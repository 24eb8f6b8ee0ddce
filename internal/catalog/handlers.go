package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/media"
)

// Handler exposes public and admin catalog endpoints.
type Handler struct {
	service       *Service
	maxImageBytes int64
	maxImages     int
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service       *Service
	MaxImageBytes int64
	MaxImages     int
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{service: cfg.Service, maxImageBytes: cfg.MaxImageBytes, maxImages: cfg.MaxImages}
	if h.maxImageBytes <= 0 {
		h.maxImageBytes = 5 << 20
	}
	if h.maxImages <= 0 {
		h.maxImages = 3
	}
	return h
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// Products handles GET /api/v1/products with category filter and pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(page.Total, 10))
	common.List(w, page.Items, common.NewPagination(page.Page, page.Limit, int(page.Total)))
}

// ProductDetail handles GET /api/v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products (multipart).
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	in, files, err := h.readProductForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), in, files)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id} (multipart).
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	in, files, err := h.readProductForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in, files)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleStock handles PATCH /api/v1/products/{id}/toggle-stock.
func (h *Handler) ToggleStock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	product, err := h.service.ToggleStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, product)
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CategoryInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err, "invalid payload")
		return
	}
	cat, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, cat)
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CategoryInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err, "invalid payload")
		return
	}
	cat, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, cat)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	return true
}

// readProductForm parses the multipart product form. Specifications may be
// sent as a JSON array or as repeated fields.
func (h *Handler) readProductForm(w http.ResponseWriter, r *http.Request) (ProductInput, []media.File, error) {
	limit := h.maxImageBytes*int64(h.maxImages) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ProductInput{}, nil, &common.AppError{Code: "PAYLOAD_TOO_LARGE", Message: "upload too large", HTTPStatus: http.StatusRequestEntityTooLarge, Err: err}
		}
		return ProductInput{}, nil, badRequest("form", "multipart form expected", err)
	}
	form := r.MultipartForm
	in := ProductInput{
		Name:        r.FormValue("name"),
		Price:       r.FormValue("price"),
		Description: r.FormValue("description"),
		CategoryID:  r.FormValue("categoryId"),
		Materials:   r.FormValue("materials"),
		Occasion:    r.FormValue("occasion"),
		OutOfStock:  r.FormValue("outOfStock") == "true",
	}
	if v := strings.TrimSpace(r.FormValue("stock")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ProductInput{}, nil, badRequest("stock", "stock must be an integer", err)
		}
		in.Stock = n
	}
	specs := form.Value["specifications"]
	if len(specs) == 1 && strings.HasPrefix(strings.TrimSpace(specs[0]), "[") {
		if err := json.Unmarshal([]byte(specs[0]), &in.Specifications); err != nil {
			return ProductInput{}, nil, badRequest("specifications", "specifications must be a JSON array of strings", err)
		}
	} else {
		in.Specifications = specs
	}

	headers := form.File["images"]
	if len(headers) > h.maxImages {
		return ProductInput{}, nil, badRequest("images", fmt.Sprintf("at most %d images are allowed", h.maxImages), nil)
	}
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		f, err := h.readImage(fh)
		if err != nil {
			return ProductInput{}, nil, err
		}
		files = append(files, f)
	}
	return in, files, nil
}

func (h *Handler) readImage(fh *multipart.FileHeader) (media.File, error) {
	if fh.Size > h.maxImageBytes {
		return media.File{}, badRequest("images", fmt.Sprintf("%s exceeds %d bytes", fh.Filename, h.maxImageBytes), nil)
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return media.File{}, badRequest("images", fh.Filename+" is not an image", nil)
	}
	src, err := fh.Open()
	if err != nil {
		return media.File{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return media.File{}, fmt.Errorf("read upload: %w", err)
	}
	return media.File{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	common.WriteError(w, err, "catalog request failed")
}
