package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/waynejunj/prosperv1/api/responses"
	"github.com/waynejunj/prosperv1/api/validators"
	apiclient "github.com/waynejunj/prosperv1/internal/api"
	"github.com/waynejunj/prosperv1/pkg/logger"
)

// AdminController exposes the management surfaces: catalog CRUD, order
// review, user administration, and the dashboard numbers. Authorization is
// enforced by the route guard; the remote service checks it again.
type AdminController struct {
	client *apiclient.Client
	logg   *logger.Logger
}

func NewAdminController(client *apiclient.Client, logg *logger.Logger) *AdminController {
	return &AdminController{client: client, logg: logg}
}

type productRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	CategoryID  int64           `json:"category_id" validate:"omitempty,gte=1"`
	Image       string          `json:"image"`
	Featured    bool            `json:"featured"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

type userUpdateRequest struct {
	Username string `json:"username" validate:"omitempty,min=2"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsAdmin  *bool  `json:"is_admin"`
	Avatar   string `json:"avatar"`
}

func (c *AdminController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	product, err := c.client.CreateProduct(r.Context(), toProductInput(req))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, product)
}

func (c *AdminController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "productID")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var req productRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	product, err := c.client.UpdateProduct(r.Context(), id, toProductInput(req))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, product)
}

func (c *AdminController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "productID")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	if err := c.client.DeleteProduct(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]string{"status": "deleted"})
}

func (c *AdminController) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := c.client.ListOrders(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, orders)
}

func (c *AdminController) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderID")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	order, err := c.client.GetOrder(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, order)
}

func (c *AdminController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderID")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var req orderStatusRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	order, err := c.client.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, order)
}

func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.client.ListUsers(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, users)
}

func (c *AdminController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "userID")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var req userUpdateRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	user, err := c.client.UpdateUser(r.Context(), id, apiclient.UserUpdateInput{
		Name:   req.Username,
		Email:  req.Email,
		Admin:  req.IsAdmin,
		Avatar: req.Avatar,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, user)
}

func (c *AdminController) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.client.GetDashboardStats(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, stats)
}

func toProductInput(req productRequest) apiclient.ProductInput {
	return apiclient.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
		Featured:    req.Featured,
		Stock:       req.Stock,
	}
}
