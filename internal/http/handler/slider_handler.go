package handler

import (
	"errors"
	"net/http"

	"github.com/sandeepkv93/storefront-admin-api/internal/http/middleware"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

const multipartMemory = 8 << 20

type SliderHandler struct {
	sliderSvc service.SliderServiceInterface
}

func NewSliderHandler(sliderSvc service.SliderServiceInterface) *SliderHandler {
	return &SliderHandler{sliderSvc: sliderSvc}
}

type sliderForm struct {
	Title       string `json:"title" validate:"max=255"`
	Description string `json:"description" validate:"max=255"`
}

func (h *SliderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	ownerID, ok := pathID(r, "user_id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		return
	}
	sliders, owner, err := h.sliderSvc.List(r.Context(), actor, ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"sliders": sliders, "owner": owner})
}

func (h *SliderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	ownerID, ok := pathID(r, "user_id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		return
	}
	in, cleanup, ok := readSliderForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	view, err := h.sliderSvc.Create(r.Context(), actor, ownerID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "slider.created", "slider_id", view.ID, "owner_user_id", ownerID)
	response.JSON(w, r, http.StatusCreated, map[string]any{"slider": view})
}

func (h *SliderHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "slider not found", nil)
		return
	}
	in, cleanup, ok := readSliderForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	if err := h.sliderSvc.Update(r.Context(), actor, id, in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "slider.updated", "slider_id", id)
	response.NoContent(w)
}

func (h *SliderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "slider not found", nil)
		return
	}
	if err := h.sliderSvc.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "slider.deleted", "slider_id", id)
	response.NoContent(w)
}

// readSliderForm parses the multipart body. The image part is optional here;
// the service decides whether an operation needs one.
func readSliderForm(w http.ResponseWriter, r *http.Request) (service.SliderInput, func(), bool) {
	noop := func() {}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.ValidationError(w, r, map[string][]string{"image": {"The image may not be greater than 5 megabytes."}})
			return service.SliderInput{}, noop, false
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart payload", nil)
		return service.SliderInput{}, noop, false
	}
	form := sliderForm{Title: r.FormValue("title"), Description: r.FormValue("description")}
	if fields := validateStruct(form); fields != nil {
		response.ValidationError(w, r, fields)
		return service.SliderInput{}, noop, false
	}
	in := service.SliderInput{Title: form.Title, Description: form.Description}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, noop, true
	case err != nil:
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid image part", nil)
		return service.SliderInput{}, noop, false
	}
	in.Image = &service.ImageUpload{File: file, Size: header.Size}
	return in, func() { _ = file.Close() }, true
}
