package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
)

// ImageUpload is an image part of a multipart request.
type ImageUpload struct {
	File io.Reader
	Size int64
}

type SliderInput struct {
	Title       string
	Description string
	Image       *ImageUpload
}

type SliderView struct {
	domain.Slider
	ImageURL string `json:"image_url"`
}

type SliderService struct {
	sliderRepo repository.SliderRepository
	userRepo   repository.UserRepository
	storage    ImageStorage
}

func NewSliderService(sliderRepo repository.SliderRepository, userRepo repository.UserRepository, storage ImageStorage) *SliderService {
	if storage == nil {
		storage = NewDisabledStorageService()
	}
	return &SliderService{sliderRepo: sliderRepo, userRepo: userRepo, storage: storage}
}

// List returns the owner's sliders with presigned image URLs.
func (s *SliderService) List(ctx context.Context, actor *domain.User, ownerID uint) ([]SliderView, *domain.User, error) {
	owner, err := s.owner(ctx, actor, ownerID)
	if err != nil {
		return nil, nil, err
	}
	sliders, err := s.sliderRepo.ListByUser(ctx, owner.ID)
	if err != nil {
		return nil, nil, err
	}
	out := make([]SliderView, 0, len(sliders))
	for _, sl := range sliders {
		out = append(out, s.view(ctx, sl))
	}
	return out, owner, nil
}

func (s *SliderService) Create(ctx context.Context, actor *domain.User, ownerID uint, in SliderInput) (*SliderView, error) {
	owner, err := s.owner(ctx, actor, ownerID)
	if err != nil {
		return nil, err
	}
	if in.Image == nil {
		return nil, NewValidationError("image", "The image field is required.")
	}
	key, err := s.storage.PutImage(ctx, owner.ID, in.Image.File, in.Image.Size)
	if err != nil {
		return nil, imageErr(err)
	}
	slider := &domain.Slider{
		UserID:      owner.ID,
		Image:       key,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.sliderRepo.Create(ctx, slider); err != nil {
		observability.RecordCatalogMutation(ctx, "slider", "create", "error")
		s.dropImage(ctx, owner.ID, key)
		return nil, err
	}
	observability.RecordCatalogMutation(ctx, "slider", "create", "success")
	v := s.view(ctx, *slider)
	return &v, nil
}

// Update rewrites title and description and, when an image is supplied,
// swaps the stored object and removes the old one.
func (s *SliderService) Update(ctx context.Context, actor *domain.User, id uint, in SliderInput) error {
	slider, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"title":       strings.TrimSpace(in.Title),
		"description": strings.TrimSpace(in.Description),
	}
	var newKey string
	if in.Image != nil {
		newKey, err = s.storage.PutImage(ctx, slider.UserID, in.Image.File, in.Image.Size)
		if err != nil {
			return imageErr(err)
		}
		updates["image"] = newKey
	}
	if err := s.sliderRepo.Update(ctx, id, updates); err != nil {
		observability.RecordCatalogMutation(ctx, "slider", "update", catalogStatus(err))
		if newKey != "" {
			s.dropImage(ctx, slider.UserID, newKey)
		}
		if errors.Is(err, repository.ErrSliderNotFound) {
			return ErrSliderNotFound
		}
		return err
	}
	observability.RecordCatalogMutation(ctx, "slider", "update", "success")
	if newKey != "" {
		s.dropImage(ctx, slider.UserID, slider.Image)
	}
	return nil
}

func (s *SliderService) Delete(ctx context.Context, actor *domain.User, id uint) error {
	slider, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.sliderRepo.DeleteByID(ctx, id); err != nil {
		observability.RecordCatalogMutation(ctx, "slider", "delete", catalogStatus(err))
		if errors.Is(err, repository.ErrSliderNotFound) {
			return ErrSliderNotFound
		}
		return err
	}
	observability.RecordCatalogMutation(ctx, "slider", "delete", "success")
	s.dropImage(ctx, slider.UserID, slider.Image)
	return nil
}

// CanManage reports whether actor may manage sliders owned by ownerID.
func CanManage(actor *domain.User, ownerID uint) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdministrator:
		return true
	case domain.RoleClient:
		return actor.ID == ownerID
	default:
		return false
	}
}

func (s *SliderService) owner(ctx context.Context, actor *domain.User, ownerID uint) (*domain.User, error) {
	if !CanManage(actor, ownerID) {
		return nil, ErrForbidden
	}
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return owner, nil
}

func (s *SliderService) find(ctx context.Context, actor *domain.User, id uint) (*domain.Slider, error) {
	slider, err := s.sliderRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrSliderNotFound) {
		return nil, ErrSliderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !CanManage(actor, slider.UserID) {
		return nil, ErrForbidden
	}
	return slider, nil
}

func (s *SliderService) view(ctx context.Context, sl domain.Slider) SliderView {
	u, err := s.storage.ImageURL(ctx, sl.Image)
	if err != nil {
		slog.WarnContext(ctx, "slider image url failed", "slider_id", sl.ID, "error", err)
	}
	return SliderView{Slider: sl, ImageURL: u}
}

func (s *SliderService) dropImage(ctx context.Context, ownerID uint, key string) {
	if err := s.storage.DeleteImage(ctx, ownerID, key); err != nil {
		slog.WarnContext(ctx, "slider image delete failed", "object_key", key, "error", err)
	}
}

func imageErr(err error) error {
	switch {
	case errors.Is(err, ErrFileTooBig):
		return NewValidationError("image", "The image may not be greater than 5 megabytes.")
	case errors.Is(err, ErrInvalidFileType):
		return NewValidationError("image", "The image must be a file of type: jpeg, png, gif, webp.")
	default:
		return err
	}
}
