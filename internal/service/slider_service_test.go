package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

func upload(b []byte) *ImageUpload {
	return &ImageUpload{File: bytes.NewReader(b), Size: int64(len(b))}
}

func TestSliderServiceOwnerRules(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	admin := fx.mustCreateUser(t, "Admin", "admin@example.com", domain.RoleAdministrator)
	alice := fx.mustCreateUser(t, "Alice", "alice@example.com", domain.RoleClient)
	bob := fx.mustCreateUser(t, "Bob", "bob@example.com", domain.RoleClient)

	if _, err := fx.sliders.Create(ctx, bob, alice.ID, SliderInput{Image: upload(pngFixture())}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign client, got %v", err)
	}
	own, err := fx.sliders.Create(ctx, alice, alice.ID, SliderInput{Title: "Spring", Image: upload(pngFixture())})
	if err != nil {
		t.Fatalf("client create own: %v", err)
	}
	if _, err := fx.sliders.Create(ctx, admin, alice.ID, SliderInput{Title: "Promo", Image: upload(jpegFixture())}); err != nil {
		t.Fatalf("admin create for client: %v", err)
	}

	list, owner, err := fx.sliders.List(ctx, admin, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if owner.ID != alice.ID || len(list) != 2 {
		t.Fatalf("expected two sliders for alice, got owner=%d len=%d", owner.ID, len(list))
	}
	if !strings.HasPrefix(list[0].ImageURL, "https://cdn.test/sliders/") {
		t.Fatalf("expected image url, got %q", list[0].ImageURL)
	}
	if err := fx.sliders.Delete(ctx, bob, own.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on foreign delete, got %v", err)
	}
	if _, _, err := fx.sliders.List(ctx, admin, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSliderServiceCreateValidatesImage(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	alice := fx.mustCreateUser(t, "Alice", "alice@example.com", domain.RoleClient)

	cases := map[string]SliderInput{
		"missing":   {Title: "x"},
		"not image": {Image: upload([]byte("just some plain text, definitely not an image"))},
		"too big":   {Image: &ImageUpload{File: bytes.NewReader(pngFixture()), Size: defaultMaxImageSize + 1}},
	}
	for name, in := range cases {
		_, err := fx.sliders.Create(ctx, alice, alice.ID, in)
		var verr *ValidationError
		if !errors.As(err, &verr) || len(verr.Fields["image"]) == 0 {
			t.Fatalf("%s: expected image field error, got %v", name, err)
		}
	}
}

func TestSliderServiceUpdateReplacesImage(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	alice := fx.mustCreateUser(t, "Alice", "alice@example.com", domain.RoleClient)

	created, err := fx.sliders.Create(ctx, alice, alice.ID, SliderInput{Title: "Old", Image: upload(pngFixture())})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldKey := created.Image
	if !fx.storage.has(oldKey) {
		t.Fatalf("expected stored object %q", oldKey)
	}

	if err := fx.sliders.Update(ctx, alice, created.ID, SliderInput{Title: "New", Description: "d", Image: upload(jpegFixture())}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if fx.storage.has(oldKey) {
		t.Fatal("expected old object to be removed")
	}
	list, _, err := fx.sliders.List(ctx, alice, alice.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].Title != "New" || !strings.HasSuffix(list[0].Image, ".jpg") {
		t.Fatalf("unexpected slider after update: %+v", list[0].Slider)
	}

	if err := fx.sliders.Delete(ctx, alice, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fx.storage.has(list[0].Image) {
		t.Fatal("expected delete to remove the object")
	}
	if err := fx.sliders.Delete(ctx, alice, created.ID); !errors.Is(err, ErrSliderNotFound) {
		t.Fatalf("expected ErrSliderNotFound, got %v", err)
	}
}

func TestCanManage(t *testing.T) {
	admin := &domain.User{ID: 1, Role: domain.RoleAdministrator}
	client := &domain.User{ID: 2, Role: domain.RoleClient}
	if !CanManage(admin, 2) || !CanManage(client, 2) {
		t.Fatal("expected admin and owner to manage")
	}
	if CanManage(client, 3) || CanManage(nil, 2) {
		t.Fatal("expected foreign client and nil actor to be refused")
	}
}
