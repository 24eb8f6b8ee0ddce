package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rakhimart/internal/cart"
	"github.com/noah-isme/rakhimart/internal/catalog"
	"github.com/noah-isme/rakhimart/internal/db"
	"github.com/noah-isme/rakhimart/internal/media"
)

type fakeCatalogQueries struct {
	mu         sync.Mutex
	categories map[string]db.Category
	products   map[string]db.Product
	listCalls  int
	now        time.Time
}

func newFakeCatalogQueries(t *testing.T) *fakeCatalogQueries {
	t.Helper()
	f := &fakeCatalogQueries{
		categories: map[string]db.Category{},
		products:   map[string]db.Product{},
		now:        time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	return f
}

func (f *fakeCatalogQueries) addCategory(name string) db.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := db.Category{ID: uuid.NewString(), Name: name}
	f.categories[c.ID] = c
	return c
}

func (f *fakeCatalogQueries) addProduct(name, price, categoryID string, stock int32) db.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Minute)
	p := db.Product{
		ID:           uuid.NewString(),
		Name:         name,
		Price:        price,
		Images:       []string{"https://cdn.example/" + strings.ToLower(strings.ReplaceAll(name, " ", "-")) + ".jpg"},
		CategoryID:   categoryID,
		CategoryName: f.categories[categoryID].Name,
		Stock:        stock,
		Rating:       "0",
		CreatedAt:    f.now,
		UpdatedAt:    f.now,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeCatalogQueries) ListCategories(context.Context) ([]db.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCatalogQueries) GetCategory(_ context.Context, id string) (db.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return db.Category{}, db.ErrNotFound
	}
	return c, nil
}

func (f *fakeCatalogQueries) GetCategoryByName(_ context.Context, name string) (db.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return db.Category{}, db.ErrNotFound
}

func (f *fakeCatalogQueries) CreateCategory(_ context.Context, arg db.CreateCategoryParams) (db.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := db.Category{ID: uuid.NewString(), Name: arg.Name, Description: arg.Description}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCatalogQueries) UpdateCategory(_ context.Context, arg db.UpdateCategoryParams) (db.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[arg.ID]
	if !ok {
		return db.Category{}, db.ErrNotFound
	}
	c.Name = arg.Name
	c.Description = arg.Description
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCatalogQueries) DeleteCategory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCatalogQueries) filtered(filter db.ProductFilter, order string) []db.Product {
	price := func(p db.Product) decimal.Decimal { return decimal.RequireFromString(p.Price) }
	out := make([]db.Product, 0, len(f.products))
	for _, p := range f.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if q := strings.ToLower(filter.Search); q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if filter.MinPrice != "" && price(p).LessThan(decimal.RequireFromString(filter.MinPrice)) {
			continue
		}
		if filter.MaxPrice != "" && price(p).GreaterThan(decimal.RequireFromString(filter.MaxPrice)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		switch order {
		case db.SortPriceLow:
			if c := price(out[i]).Cmp(price(out[j])); c != 0 {
				return c < 0
			}
		case db.SortPriceHigh:
			if c := price(out[i]).Cmp(price(out[j])); c != 0 {
				return c > 0
			}
		case db.SortName:
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeCatalogQueries) ListProducts(_ context.Context, arg db.ListProductsParams) ([]db.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	rows := f.filtered(arg.ProductFilter, arg.Sort)
	start := min(int(arg.Offset), len(rows))
	end := min(start+int(arg.Limit), len(rows))
	return rows[start:end], nil
}

func (f *fakeCatalogQueries) CountProducts(_ context.Context, filter db.ProductFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.filtered(filter, ""))), nil
}

func (f *fakeCatalogQueries) GetProduct(_ context.Context, id string) (db.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return db.Product{}, db.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalogQueries) CreateProduct(_ context.Context, arg db.UpsertProductParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Minute)
	p := fromParams(uuid.NewString(), arg, f.categories[arg.CategoryID].Name, f.now)
	f.products[p.ID] = p
	return p.ID, nil
}

func (f *fakeCatalogQueries) UpdateProduct(_ context.Context, arg db.UpsertProductParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.products[arg.ID]
	if !ok {
		return db.ErrNotFound
	}
	p := fromParams(arg.ID, arg, f.categories[arg.CategoryID].Name, current.CreatedAt)
	f.products[p.ID] = p
	return nil
}

func (f *fakeCatalogQueries) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeCatalogQueries) ToggleProductStock(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return false, db.ErrNotFound
	}
	p.OutOfStock = !p.OutOfStock
	f.products[id] = p
	return p.OutOfStock, nil
}

func fromParams(id string, arg db.UpsertProductParams, categoryName string, at time.Time) db.Product {
	return db.Product{
		ID:             id,
		Name:           arg.Name,
		Description:    arg.Description,
		Price:          arg.Price,
		Images:         arg.Images,
		CategoryID:     arg.CategoryID,
		CategoryName:   categoryName,
		Stock:          arg.Stock,
		OutOfStock:     arg.OutOfStock,
		Specifications: arg.Specifications,
		Materials:      arg.Materials,
		Occasion:       arg.Occasion,
		Rating:         "0",
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

type fakeUploader struct {
	mu    sync.Mutex
	files []media.File
}

func (u *fakeUploader) Upload(_ context.Context, f media.File) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files = append(u.files, f)
	return "https://cdn.example/uploads/" + f.Name, nil
}

type fixture struct {
	queries  *fakeCatalogQueries
	uploader *fakeUploader
	service  *catalog.Service
	router   http.Handler
	festive  db.Category
	thread   db.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fx := &fixture{queries: newFakeCatalogQueries(t), uploader: &fakeUploader{}}
	fx.festive = fx.queries.addCategory("Festive")
	fx.thread = fx.queries.addCategory("Thread")

	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      fx.queries,
		Cache:        catalog.NewCache(client, time.Minute),
		Uploader:     fx.uploader,
		DefaultLimit: 12,
		MaxLimit:     100,
	})
	require.NoError(t, err)
	fx.service = svc

	h := catalog.NewHandler(catalog.HandlerConfig{Service: svc, MaxImageBytes: 1024, MaxImages: 3})
	r := chi.NewRouter()
	r.Get("/products", h.Products)
	r.Post("/products", h.CreateProduct)
	r.Get("/products/{id}", h.ProductDetail)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	r.Patch("/products/{id}/toggle-stock", h.ToggleStock)
	r.Get("/categories", h.Categories)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
	fx.router = r
	return fx
}

func (fx *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

type listResponse struct {
	Data       []catalog.Product `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

type productResponse struct {
	Data  catalog.Product `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func multipartProduct(t *testing.T, method, target string, fields map[string]string, images map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range images {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		hdr.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProductListing(t *testing.T) {
	fx := newFixture(t)
	fx.queries.addProduct("Silver Rakhi", "149.50", fx.festive.ID, 5)
	fx.queries.addProduct("Kundan Rakhi", "299", fx.festive.ID, 2)
	fx.queries.addProduct("Cotton Thread", "49", fx.thread.ID, 20)

	t.Run("paginates newest first", func(t *testing.T) {
		rec := fx.do(t, httptest.NewRequest(http.MethodGet, "/products?limit=2", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		require.Equal(t, "Cotton Thread", resp.Data[0].Name)
		require.Equal(t, "Thread", resp.Data[0].CategoryName)
		require.Equal(t, 2, resp.Pagination.TotalPages)
	})

	t.Run("All means no filter", func(t *testing.T) {
		rec := fx.do(t, httptest.NewRequest(http.MethodGet, "/products?category=All", nil))
		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 3)
	})

	t.Run("filters by category name or id", func(t *testing.T) {
		rec := fx.do(t, httptest.NewRequest(http.MethodGet, "/products?category=festive", nil))
		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)

		rec = fx.do(t, httptest.NewRequest(http.MethodGet, "/products?category="+fx.thread.ID, nil))
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "49", resp.Data[0].Price.String())
	})

	t.Run("unknown category is empty", func(t *testing.T) {
		rec := fx.do(t, httptest.NewRequest(http.MethodGet, "/products?category=Bracelets", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Empty(t, resp.Data)
		require.Equal(t, 0, resp.Pagination.TotalItems)
	})

	t.Run("rejects bad page", func(t *testing.T) {
		rec := fx.do(t, httptest.NewRequest(http.MethodGet, "/products?page=0", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductListingSearchPriceAndSort(t *testing.T) {
	fx := newFixture(t)
	fx.queries.addProduct("Silver Rakhi", "149.50", fx.festive.ID, 5)
	kundan := fx.queries.addProduct("Kundan Rakhi", "299", fx.festive.ID, 2)
	kundan.Description = "Hand-set stones on silk"
	fx.queries.products[kundan.ID] = kundan
	fx.queries.addProduct("Cotton Thread", "49", fx.thread.ID, 20)

	names := func(t *testing.T, target string) []string {
		t.Helper()
		rec := fx.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, len(resp.Data), resp.Pagination.TotalItems)
		out := make([]string, 0, len(resp.Data))
		for _, p := range resp.Data {
			out = append(out, p.Name)
		}
		return out
	}

	t.Run("search matches name or description", func(t *testing.T) {
		require.Equal(t, []string{"Kundan Rakhi", "Silver Rakhi"}, names(t, "/products?q=rakhi"))
		require.Equal(t, []string{"Kundan Rakhi"}, names(t, "/products?q=SILK"))
		require.Empty(t, names(t, "/products?q=bracelet"))
	})

	t.Run("price range is inclusive", func(t *testing.T) {
		require.Equal(t, []string{"Cotton Thread", "Silver Rakhi"}, names(t, "/products?maxPrice=149.50"))
		require.Equal(t, []string{"Kundan Rakhi", "Silver Rakhi"}, names(t, "/products?minPrice=149.5&maxPrice=10000"))
	})

	t.Run("sorts by price", func(t *testing.T) {
		require.Equal(t, []string{"Cotton Thread", "Silver Rakhi", "Kundan Rakhi"}, names(t, "/products?sort=price-low"))
		require.Equal(t, []string{"Kundan Rakhi", "Silver Rakhi", "Cotton Thread"}, names(t, "/products?sort=price-high"))
		require.Equal(t, []string{"Cotton Thread", "Kundan Rakhi", "Silver Rakhi"}, names(t, "/products?sort=default"))
	})

	t.Run("filters combine and are cached separately", func(t *testing.T) {
		require.Equal(t, []string{"Silver Rakhi", "Kundan Rakhi"}, names(t, "/products?category=festive&q=rakhi&sort=price-low"))
		require.Equal(t, []string{"Kundan Rakhi", "Silver Rakhi"}, names(t, "/products?category=festive&q=rakhi&sort=price-high"))
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		for _, target := range []string{
			"/products?minPrice=cheap",
			"/products?maxPrice=-1",
			"/products?minPrice=300&maxPrice=100",
			"/products?sort=popularity",
		} {
			rec := fx.do(t, httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code, target)
			var resp productResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, "BAD_REQUEST", resp.Error.Code, target)
		}
	})
}

func TestProductListIsCachedUntilWrite(t *testing.T) {
	fx := newFixture(t)
	p := fx.queries.addProduct("Silver Rakhi", "149.50", fx.festive.ID, 5)

	fx.do(t, httptest.NewRequest(http.MethodGet, "/products", nil))
	fx.do(t, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, 1, fx.queries.listCalls)

	rec := fx.do(t, httptest.NewRequest(http.MethodPatch, "/products/"+p.ID+"/toggle-stock", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	require.True(t, toggled.Data.OutOfStock)

	rec = fx.do(t, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, 2, fx.queries.listCalls)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Data[0].OutOfStock)
}

func TestProductDetail(t *testing.T) {
	fx := newFixture(t)
	p := fx.queries.addProduct("Silver Rakhi", "149.50", fx.festive.ID, 5)

	rec := fx.do(t, httptest.NewRequest(http.MethodGet, "/products/"+p.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "149.5", resp.Data.Price.String())
	require.Equal(t, 5, resp.Data.Stock)

	rec = fx.do(t, httptest.NewRequest(http.MethodGet, "/products/not-a-uuid", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = fx.do(t, httptest.NewRequest(http.MethodGet, "/products/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProduct(t *testing.T) {
	fx := newFixture(t)
	fields := map[string]string{
		"name":           "Pearl Rakhi",
		"price":          "199",
		"categoryId":     fx.festive.ID,
		"stock":          "4",
		"specifications": `["Handmade","Pearl beads"]`,
		"occasion":       "Raksha Bandhan",
	}

	rec := fx.do(t, multipartProduct(t, http.MethodPost, "/products", fields, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "at least one image")

	rec = fx.do(t, multipartProduct(t, http.MethodPost, "/products", fields, map[string][]byte{"pearl.png": []byte("png")}))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Pearl Rakhi", resp.Data.Name)
	require.Equal(t, []string{"https://cdn.example/uploads/pearl.png"}, resp.Data.Images)
	require.Equal(t, []string{"Handmade", "Pearl beads"}, resp.Data.Specifications)
	require.Equal(t, "Festive", resp.Data.CategoryName)
	require.Len(t, fx.uploader.files, 1)
	require.Equal(t, "image/png", fx.uploader.files[0].ContentType)
}

func TestCreateProductValidation(t *testing.T) {
	fx := newFixture(t)
	img := map[string][]byte{"a.png": []byte("png")}

	rec := fx.do(t, multipartProduct(t, http.MethodPost, "/products", map[string]string{"price": "10", "categoryId": fx.festive.ID}, img))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = fx.do(t, multipartProduct(t, http.MethodPost, "/products", map[string]string{"name": "X", "price": "-1", "categoryId": fx.festive.ID}, img))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "non-negative")

	tooMany := map[string][]byte{"a.png": []byte("1"), "b.png": []byte("2"), "c.png": []byte("3"), "d.png": []byte("4")}
	rec = fx.do(t, multipartProduct(t, http.MethodPost, "/products", map[string]string{"name": "X", "price": "1", "categoryId": fx.festive.ID}, tooMany))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "at most 3 images")

	big := map[string][]byte{"big.png": bytes.Repeat([]byte("x"), 2048)}
	rec = fx.do(t, multipartProduct(t, http.MethodPost, "/products", map[string]string{"name": "X", "price": "1", "categoryId": fx.festive.ID}, big))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, fx.uploader.files)
}

func TestUpdateProductKeepsImagesWithoutUpload(t *testing.T) {
	fx := newFixture(t)
	p := fx.queries.addProduct("Silver Rakhi", "149.50", fx.festive.ID, 5)

	fields := map[string]string{"name": "Silver Rakhi Deluxe", "price": "179", "categoryId": fx.thread.ID, "stock": "8"}
	rec := fx.do(t, multipartProduct(t, http.MethodPut, "/products/"+p.ID, fields, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Silver Rakhi Deluxe", resp.Data.Name)
	require.Equal(t, p.Images, resp.Data.Images)
	require.Equal(t, "Thread", resp.Data.CategoryName)
	require.Empty(t, fx.uploader.files)

	rec = fx.do(t, multipartProduct(t, http.MethodPut, "/products/"+p.ID, fields, map[string][]byte{"new.png": []byte("png")}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []string{"https://cdn.example/uploads/new.png"}, resp.Data.Images)
}

func TestDeleteProduct(t *testing.T) {
	fx := newFixture(t)
	p := fx.queries.addProduct("Silver Rakhi", "149.50", fx.festive.ID, 5)

	rec := fx.do(t, httptest.NewRequest(http.MethodDelete, "/products/"+p.ID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, httptest.NewRequest(http.MethodDelete, "/products/"+p.ID, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryCRUD(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(t, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"  "}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "name is required")

	rec = fx.do(t, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Kids","description":"Cartoon rakhis"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data catalog.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "Kids", created.Data.Name)

	rec = fx.do(t, httptest.NewRequest(http.MethodPut, "/categories/"+created.Data.ID, strings.NewReader(`{"name":"Kids Special"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fx.do(t, httptest.NewRequest(http.MethodGet, "/categories", nil))
	var list struct {
		Data []catalog.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 3)
	require.Equal(t, "Kids Special", list.Data[1].Name)

	rec = fx.do(t, httptest.NewRequest(http.MethodDelete, "/categories/"+created.Data.ID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, httptest.NewRequest(http.MethodPut, "/categories/"+created.Data.ID, strings.NewReader(`{"name":"Gone"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartProduct(t *testing.T) {
	fx := newFixture(t)
	p := fx.queries.addProduct("Silver Rakhi", "149.50", fx.festive.ID, 5)

	got, err := fx.service.CartProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, "149.5", got.Price.String())
	require.Equal(t, 5, got.Stock)
	require.Equal(t, p.Images[0], got.Thumbnail())

	_, err = fx.service.CartProduct(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, cart.ErrNotFound)
	_, err = fx.service.CartProduct(context.Background(), "bogus")
	require.ErrorIs(t, err, cart.ErrNotFound)
}
