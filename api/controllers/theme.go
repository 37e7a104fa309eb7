package controllers

import (
	"errors"
	"net/http"

	"github.com/waynejunj/prosperv1/api/responses"
	"github.com/waynejunj/prosperv1/api/validators"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
	"github.com/waynejunj/prosperv1/pkg/state"
)

const defaultTheme = "light"

// ThemeController persists the shopper's theme preference. The preference
// survives sign-out; it belongs to the installation, not the session.
type ThemeController struct {
	store state.Store
	logg  *logger.Logger
}

func NewThemeController(store state.Store, logg *logger.Logger) *ThemeController {
	return &ThemeController{store: store, logg: logg}
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

func (c *ThemeController) Get(w http.ResponseWriter, r *http.Request) {
	theme, err := c.store.Get(r.Context(), state.KeyTheme)
	if errors.Is(err, state.ErrNotFound) {
		theme = defaultTheme
	} else if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading theme"))
		return
	}
	responses.WriteSuccess(w, map[string]string{"theme": theme})
}

func (c *ThemeController) Set(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	if err := c.store.Set(r.Context(), state.KeyTheme, req.Theme); err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving theme"))
		return
	}
	responses.WriteSuccess(w, map[string]string{"theme": req.Theme})
}
