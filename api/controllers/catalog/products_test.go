package catalog

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agromarket/agromarket-backend/internal/catalog"
)

type stubCatalogService struct {
	catalog.Service
	created    *catalog.ProductInput
	imageBytes []byte
	updatedID  uuid.UUID
	filter     catalog.ProductFilter
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDTO, error) {
	s.created = &input
	if input.Image != nil {
		data, err := io.ReadAll(input.Image.Body)
		if err != nil {
			return nil, err
		}
		s.imageBytes = data
	}
	return &catalog.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.ProductInput) (*catalog.ProductDTO, error) {
	s.updatedID = id
	s.created = &input
	return &catalog.ProductDTO{ID: id, Name: input.Name}, nil
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.ProductDTO, error) {
	s.filter = filter
	return []catalog.ProductDTO{}, nil
}

func multipartBody(t *testing.T, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("name", "Honey"))
	require.NoError(t, mw.WriteField("price", "9.99"))
	require.NoError(t, mw.WriteField("stock", "12"))
	if withImage {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="image"; filename="honey.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestCreateProductParsesMultipart(t *testing.T) {
	svc := &stubCatalogService{}
	body, contentType := multipartBody(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	CreateProduct(svc, 1<<20, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	require.Equal(t, "Honey", svc.created.Name)
	require.Equal(t, 12, svc.created.Stock)
	require.Equal(t, "jpeg", string(svc.imageBytes))
}

func TestCreateProductRejectsJSON(t *testing.T) {
	svc := &stubCatalogService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", bytes.NewBufferString(`{"name":"Honey"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	CreateProduct(svc, 1<<20, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, svc.created)
}

func TestUpdateProductUsesPathID(t *testing.T) {
	svc := &stubCatalogService{}
	id := uuid.New()
	body, contentType := multipartBody(t, false)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/products/"+id.String(), body)
	req.Header.Set("Content-Type", contentType)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	UpdateProduct(svc, 1<<20, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, id, svc.updatedID)
	require.Nil(t, svc.created.Image)
}

func TestListProductsFilters(t *testing.T) {
	svc := &stubCatalogService{}
	categoryID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products?category_id="+categoryID.String()+"&search=%20tom%20", nil)
	rec := httptest.NewRecorder()

	ListProducts(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, categoryID, *svc.filter.CategoryID)
	require.Equal(t, "tom", svc.filter.Search)
}
