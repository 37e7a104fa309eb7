package controllers

import (
	"net/http"

	"github.com/waynejunj/prosperv1/api/responses"
	"github.com/waynejunj/prosperv1/api/validators"
	apiclient "github.com/waynejunj/prosperv1/internal/api"
	"github.com/waynejunj/prosperv1/internal/session"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
)

// AuthController exposes the sign-in, sign-up, and sign-out surfaces.
type AuthController struct {
	sessions *session.Store
	logg     *logger.Logger
}

func NewAuthController(sessions *session.Store, logg *logger.Logger) *AuthController {
	return &AuthController{sessions: sessions, logg: logg}
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type sessionPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	Avatar   string `json:"avatar,omitempty"`
}

func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	sess, err := c.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toSessionPayload(sess))
}

func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	sess, err := c.sessions.RegisterAccount(r.Context(), apiclient.RegisterInput{
		Name:     req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, toSessionPayload(sess))
}

func (c *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	c.sessions.Logout(r.Context())
	responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
}

// Me reports the active session for the profile surface.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	sess := c.sessions.Current()
	if sess == nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
		return
	}
	responses.WriteSuccess(w, toSessionPayload(sess))
}

func toSessionPayload(sess *session.Session) sessionPayload {
	return sessionPayload{
		ID:       sess.UserID,
		Username: sess.Name,
		Email:    sess.Email,
		IsAdmin:  sess.Admin,
		Avatar:   sess.Avatar,
	}
}
