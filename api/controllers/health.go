package controllers

import (
	"net/http"

	"github.com/waynejunj/prosperv1/api/responses"
)

func Health(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}
