package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/waynejunj/prosperv1/api/responses"
	apiclient "github.com/waynejunj/prosperv1/internal/api"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
)

const featuredLimit = 8

// ProductsController serves the public browsing surfaces.
type ProductsController struct {
	client *apiclient.Client
	logg   *logger.Logger
}

func NewProductsController(client *apiclient.Client, logg *logger.Logger) *ProductsController {
	return &ProductsController{client: client, logg: logg}
}

func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	featured := r.URL.Query().Get("featured") == "true"
	products, err := c.client.ListProducts(r.Context(), featured, featuredLimit)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, products)
}

func (c *ProductsController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "productID")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	product, err := c.client.GetProduct(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, product)
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a positive integer")
	}
	return id, nil
}
