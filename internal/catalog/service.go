package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/rakhimart/internal/cache"
	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/common"
	"github.com/noah-isme/rakhimart/internal/db"
	"github.com/noah-isme/rakhimart/internal/media"
)

// AllCategories is the category filter value meaning no filter.
const AllCategories = "All"

type queryProvider interface {
	ListCategories(ctx context.Context) ([]db.Category, error)
	GetCategory(ctx context.Context, id string) (db.Category, error)
	GetCategoryByName(ctx context.Context, name string) (db.Category, error)
	CreateCategory(ctx context.Context, arg db.CreateCategoryParams) (db.Category, error)
	UpdateCategory(ctx context.Context, arg db.UpdateCategoryParams) (db.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListProducts(ctx context.Context, arg db.ListProductsParams) ([]db.Product, error)
	CountProducts(ctx context.Context, filter db.ProductFilter) (int64, error)
	GetProduct(ctx context.Context, id string) (db.Product, error)
	CreateProduct(ctx context.Context, arg db.UpsertProductParams) (string, error)
	UpdateProduct(ctx context.Context, arg db.UpsertProductParams) error
	DeleteProduct(ctx context.Context, id string) error
	ToggleProductStock(ctx context.Context, id string) (bool, error)
}

// ImageUploader stores an image on the media host and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file media.File) (string, error)
}

// Service orchestrates catalog queries, caching, and admin writes.
type Service struct {
	queries      queryProvider
	cache        *Cache
	uploader     ImageUploader
	validate     *validator.Validate
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
	maxImages    int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	Uploader     ImageUploader
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
	MaxImages    int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 12
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	maxImages := cfg.MaxImages
	if maxImages < 1 {
		maxImages = 3
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		uploader:     cfg.Uploader,
		validate:     common.NewValidator(),
		logger:       cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		maxImages:    maxImages,
	}, nil
}

// ParseListParams normalises raw query values into list filters. "all"
// and an empty category both mean no filter, as does sort "default".
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	page, err := common.PageFromQuery(values, s.defaultLimit, s.maxLimit)
	if err != nil {
		return ListParams{}, err
	}
	params := ListParams{
		Category: strings.TrimSpace(values.Get("category")),
		Search:   strings.TrimSpace(values.Get("q")),
		Page:     page.Page,
		Limit:    page.Limit,
	}
	if strings.EqualFold(params.Category, AllCategories) {
		params.Category = ""
	}
	lo, err := priceBound(values, "minPrice")
	if err != nil {
		return ListParams{}, err
	}
	hi, err := priceBound(values, "maxPrice")
	if err != nil {
		return ListParams{}, err
	}
	if lo != nil && hi != nil && lo.GreaterThan(*hi) {
		return ListParams{}, badRequest("minPrice", "minPrice must not exceed maxPrice", nil)
	}
	if lo != nil {
		params.MinPrice = lo.String()
	}
	if hi != nil {
		params.MaxPrice = hi.String()
	}
	switch order := strings.ToLower(strings.TrimSpace(values.Get("sort"))); order {
	case "", SortDefault:
	case db.SortPriceLow, db.SortPriceHigh, db.SortName, db.SortRating:
		params.Sort = order
	default:
		return ListParams{}, badRequest("sort", "sort must be one of default, price-low, price-high, name, rating", nil)
	}
	return params, nil
}

func priceBound(values url.Values, field string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, badRequest(field, field+" must be a number", err)
	}
	if d.IsNegative() {
		return nil, badRequest(field, field+" must not be negative", nil)
	}
	return &d, nil
}

// ListProducts returns a page of products, newest first unless params.Sort
// says otherwise. The category filter accepts a category id or name; an
// unknown category yields an empty page.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = s.defaultLimit
	}
	key := cache.KeyProductList(s.version(ctx), params.cacheFilter(), params.Page, params.Limit)
	return readThrough(ctx, s.cache, key, func(ctx context.Context) (ProductPage, error) {
		return s.loadProducts(ctx, params)
	})
}

func (s *Service) loadProducts(ctx context.Context, params ListParams) (ProductPage, error) {
	page := ProductPage{Items: []Product{}, Page: params.Page, Limit: params.Limit}
	categoryID, err := s.resolveCategory(ctx, params.Category)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return page, nil
		}
		return ProductPage{}, err
	}
	filter := db.ProductFilter{
		CategoryID: categoryID,
		Search:     params.Search,
		MinPrice:   params.MinPrice,
		MaxPrice:   params.MaxPrice,
	}
	total, err := s.queries.CountProducts(ctx, filter)
	if err != nil {
		return ProductPage{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.queries.ListProducts(ctx, db.ListProductsParams{
		ProductFilter: filter,
		Sort:          params.Sort,
		Limit:         int32(params.Limit),
		Offset:        int32((params.Page - 1) * params.Limit),
	})
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	for _, row := range rows {
		page.Items = append(page.Items, toProduct(row))
	}
	page.Total = total
	return page, nil
}

func (s *Service) resolveCategory(ctx context.Context, category string) (string, error) {
	if category == "" {
		return "", nil
	}
	if _, err := uuid.Parse(category); err == nil {
		return category, nil
	}
	row, err := s.queries.GetCategoryByName(ctx, category)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("get category by name: %w", err)
	}
	return row.ID, nil
}

// GetProduct returns one product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, notFoundError("product", err)
	}
	return readThrough(ctx, s.cache, cache.KeyProduct(s.version(ctx), id), func(ctx context.Context) (Product, error) {
		row, err := s.queries.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return Product{}, notFoundError("product", err)
			}
			return Product{}, fmt.Errorf("get product: %w", err)
		}
		return toProduct(row), nil
	})
}

// CartProduct reads the product fresh from storage for a cart mutation.
func (s *Service) CartProduct(ctx context.Context, id string) (cart.Product, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return cart.Product{}, fmt.Errorf("product %q: %w", id, cart.ErrNotFound)
	}
	row, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return cart.Product{}, fmt.Errorf("product %s: %w", id, cart.ErrNotFound)
		}
		return cart.Product{}, fmt.Errorf("get product: %w", err)
	}
	p := toProduct(row)
	return cart.Product{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Images:     p.Images,
		Stock:      p.Stock,
		OutOfStock: p.OutOfStock,
	}, nil
}

// CreateProduct uploads the images and inserts the product. At least one image
// is required.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput, files []media.File) (Product, error) {
	in = in.normalize()
	price, err := s.checkProduct(in)
	if err != nil {
		return Product{}, err
	}
	if len(files) == 0 {
		return Product{}, badRequest("images", "at least one image is required", nil)
	}
	images, err := s.upload(ctx, files)
	if err != nil {
		return Product{}, err
	}
	id, err := s.queries.CreateProduct(ctx, upsertParams("", in, price, images))
	if err != nil {
		return Product{}, translateWriteError("create product", err)
	}
	s.invalidate(ctx)
	return s.GetProduct(ctx, id)
}

// UpdateProduct replaces the product fields. Existing images are kept unless
// new files are uploaded.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput, files []media.File) (Product, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, notFoundError("product", err)
	}
	in = in.normalize()
	price, err := s.checkProduct(in)
	if err != nil {
		return Product{}, err
	}
	current, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Product{}, notFoundError("product", err)
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	images := current.Images
	if len(files) > 0 {
		if images, err = s.upload(ctx, files); err != nil {
			return Product{}, err
		}
	}
	if err := s.queries.UpdateProduct(ctx, upsertParams(id, in, price, images)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Product{}, notFoundError("product", err)
		}
		return Product{}, translateWriteError("update product", err)
	}
	s.invalidate(ctx)
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return notFoundError("product", err)
	}
	if err := s.queries.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return notFoundError("product", err)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// ToggleStock flips the out-of-stock flag and returns the updated product.
func (s *Service) ToggleStock(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, notFoundError("product", err)
	}
	if _, err := s.queries.ToggleProductStock(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Product{}, notFoundError("product", err)
		}
		return Product{}, fmt.Errorf("toggle stock: %w", err)
	}
	s.invalidate(ctx)
	return s.GetProduct(ctx, id)
}

// ListCategories returns every category sorted by name.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return readThrough(ctx, s.cache, cache.KeyCategories(s.version(ctx)), func(ctx context.Context) ([]Category, error) {
		rows, err := s.queries.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		out := make([]Category, 0, len(rows))
		for _, row := range rows {
			out = append(out, toCategory(row))
		}
		return out, nil
	})
}

// CreateCategory inserts a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	in = in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return Category{}, common.ValidationError(err)
	}
	row, err := s.queries.CreateCategory(ctx, db.CreateCategoryParams{Name: in.Name, Description: in.Description})
	if err != nil {
		return Category{}, translateWriteError("create category", err)
	}
	s.invalidate(ctx)
	return toCategory(row), nil
}

// UpdateCategory renames or re-describes a category.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Category{}, notFoundError("category", err)
	}
	in = in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return Category{}, common.ValidationError(err)
	}
	row, err := s.queries.UpdateCategory(ctx, db.UpdateCategoryParams{ID: id, Name: in.Name, Description: in.Description})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Category{}, notFoundError("category", err)
		}
		return Category{}, translateWriteError("update category", err)
	}
	s.invalidate(ctx)
	return toCategory(row), nil
}

// DeleteCategory removes a category that no product references.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return notFoundError("category", err)
	}
	if err := s.queries.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return notFoundError("category", err)
		}
		return translateWriteError("delete category", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) checkProduct(in ProductInput) (decimal.Decimal, error) {
	if err := s.validate.Struct(in); err != nil {
		return decimal.Decimal{}, common.ValidationError(err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, badRequest("price", "price must be a non-negative number", err)
	}
	return price, nil
}

func (s *Service) upload(ctx context.Context, files []media.File) ([]string, error) {
	if len(files) > s.maxImages {
		return nil, badRequest("images", fmt.Sprintf("at most %d images are allowed", s.maxImages), nil)
	}
	if s.uploader == nil {
		return nil, &common.AppError{Code: "MEDIA_UNAVAILABLE", Message: "image uploads are not configured", HTTPStatus: http.StatusServiceUnavailable}
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		u, err := s.uploader.Upload(ctx, f)
		if err != nil {
			return nil, &common.AppError{Code: "UPLOAD_FAILED", Message: "image upload failed", HTTPStatus: http.StatusBadGateway, Err: err}
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (s *Service) version(ctx context.Context) int64 {
	v, err := s.cache.Version(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache version unavailable")
	}
	return v
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

func (in ProductInput) normalize() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.Materials = strings.TrimSpace(in.Materials)
	in.Occasion = strings.TrimSpace(in.Occasion)
	specs := make([]string, 0, len(in.Specifications))
	for _, spec := range in.Specifications {
		if spec = strings.TrimSpace(spec); spec != "" {
			specs = append(specs, spec)
		}
	}
	in.Specifications = specs
	return in
}

func (in CategoryInput) normalize() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func upsertParams(id string, in ProductInput, price decimal.Decimal, images []string) db.UpsertProductParams {
	return db.UpsertProductParams{
		ID:             id,
		Name:           in.Name,
		Description:    in.Description,
		Price:          price.String(),
		Images:         images,
		CategoryID:     in.CategoryID,
		Stock:          int32(in.Stock),
		OutOfStock:     in.OutOfStock,
		Specifications: in.Specifications,
		Materials:      in.Materials,
		Occasion:       in.Occasion,
	}
}

func toProduct(row db.Product) Product {
	price, _ := decimal.NewFromString(row.Price)
	rating, _ := decimal.NewFromString(row.Rating)
	images := row.Images
	if images == nil {
		images = []string{}
	}
	specs := row.Specifications
	if specs == nil {
		specs = []string{}
	}
	return Product{
		ID:             row.ID,
		Name:           row.Name,
		Description:    row.Description,
		Price:          price,
		Images:         images,
		CategoryID:     row.CategoryID,
		CategoryName:   row.CategoryName,
		Stock:          int(row.Stock),
		OutOfStock:     row.OutOfStock,
		Specifications: specs,
		Materials:      row.Materials,
		Occasion:       row.Occasion,
		Rating:         rating,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func toCategory(row db.Category) Category {
	return Category{ID: row.ID, Name: row.Name, Description: row.Description}
}

// translateWriteError maps constraint violations to client errors.
func translateWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &common.AppError{Code: "CONFLICT", Message: "name already exists", HTTPStatus: http.StatusConflict, Err: err}
		case "23503":
			if op == "delete category" {
				return &common.AppError{Code: "CATEGORY_IN_USE", Message: "category still has products", HTTPStatus: http.StatusConflict, Err: err}
			}
			return badRequest("categoryId", "category does not exist", err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFoundError(what string, err error) *common.AppError {
	return common.NotFound(what, err)
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
