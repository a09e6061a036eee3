package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"stockapi/internal/model"
	"stockapi/internal/service"
	"stockapi/internal/validation"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service        service.ProductService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewProductHandler creates a new product handler. Multipart bodies may carry
// an image of up to maxUploadBytes.
func NewProductHandler(service service.ProductService, maxUploadBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /v1/products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /v1/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, model.ErrProductNotFound, http.StatusBadRequest, h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /v1/products requests. The body is either JSON or
// multipart/form-data with an optional "image" file.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest

	if isMultipart(r) {
		if err := h.parseMultipart(w, r, &req); err != nil {
			writeDecodeError(w, r, err, http.StatusBadRequest, h.logger)
			return
		}
		defer r.MultipartForm.RemoveAll()
		if req.Image != nil {
			if c, ok := req.Image.Body.(io.Closer); ok {
				defer c.Close()
			}
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err, http.StatusBadRequest, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /v1/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, model.ErrProductNotFound, http.StatusBadRequest, h.logger)
		return
	}

	var req model.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err, http.StatusBadRequest, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /v1/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, model.ErrProductNotFound, http.StatusBadRequest, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseMultipart fills req from a multipart form. Empty text fields count as
// absent. Every field that cannot be converted is reported at once.
func (h *ProductHandler) parseMultipart(w http.ResponseWriter, r *http.Request, req *model.CreateProductRequest) error {
	// Room for the image plus the text fields
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+maxJSONBodyBytes)

	if err := r.ParseMultipartForm(maxJSONBodyBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewValidationError(map[string][]string{
				"image": {"The image field must not be greater than the upload limit."},
			})
		}
		h.logger.Debug().Err(err).Msg("failed to parse multipart form")
		return errMalformedBody
	}

	form := r.MultipartForm
	req.Name = formValue(form.Value, "name")
	if desc := formValue(form.Value, "description"); desc != "" {
		req.Description = &desc
	}

	var price, stock, categories error
	req.Price, price = validation.ParseDecimal("price", formValue(form.Value, "price"))
	req.Stock, stock = validation.ParseInt("stock", formValue(form.Value, "stock"))

	values := append(append([]string{}, form.Value["categories"]...), form.Value["categories[]"]...)
	if len(values) > 0 {
		req.Categories, categories = validation.ParseIDList("categories", values)
	}

	if err := validation.Merge(price, stock, categories); err != nil {
		return err
	}

	if files := form.File["image"]; len(files) > 0 {
		header := files[0]
		file, err := header.Open()
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to open uploaded image")
			return err
		}
		req.Image = &model.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	return nil
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
