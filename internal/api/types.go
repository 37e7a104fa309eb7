package api

import "github.com/shopspring/decimal"

// User is the profile the storefront service returns next to a token.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"username"`
	Email  string `json:"email"`
	Admin  bool   `json:"is_admin"`
	Avatar string `json:"avatar,omitempty"`
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// LineItem is one cart entry as the service serializes it.
type LineItem struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	CategoryName string          `json:"category_name"`
	ProductImage string          `json:"product_image"`
}

// Product is a catalog entry.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	CategoryName string          `json:"category_name,omitempty"`
	Image        string          `json:"image,omitempty"`
	Featured     bool            `json:"featured,omitempty"`
	Stock        int             `json:"stock,omitempty"`
}

// ProductInput carries the fields an administrator may set on a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id,omitempty"`
	Image       string          `json:"image,omitempty"`
	Featured    bool            `json:"featured,omitempty"`
	Stock       int             `json:"stock,omitempty"`
}

// Order is a placed order as the admin endpoints return it.
type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id,omitempty"`
	UserName  string          `json:"user_name,omitempty"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt string          `json:"created_at,omitempty"`
	Items     []LineItem      `json:"items,omitempty"`
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdateInput carries mutable profile fields for the admin user screen.
type UserUpdateInput struct {
	Name   string `json:"username,omitempty"`
	Email  string `json:"email,omitempty"`
	Admin  *bool  `json:"is_admin,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// DashboardStats summarizes the admin landing page numbers.
type DashboardStats struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalProducts int64           `json:"total_products"`
	TotalUsers    int64           `json:"total_users"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type cartEnvelope struct {
	Items []LineItem `json:"items"`
}

type orderCreated struct {
	OrderID int64 `json:"order_id"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
