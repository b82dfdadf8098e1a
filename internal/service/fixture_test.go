package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
)

type serviceFixture struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	subdomains *SubdomainService
	users      *UserService
	tokens     *TokenService
	auth       *AuthService
	roles      *RoleService
	sliders    *SliderService
	storage    *memoryImageStorage
	cache      *InMemoryUserListCacheStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.AccessToken{}, &domain.Role{}, &domain.Slider{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	fx := &serviceFixture{
		db:        db,
		userRepo:  repository.NewUserRepository(db),
		tokenRepo: repository.NewTokenRepository(db),
		storage:   newMemoryImageStorage(),
		cache:     NewInMemoryUserListCacheStore(),
	}
	fx.subdomains = NewSubdomainService(fx.userRepo, "example.shop")
	fx.users = NewUserService(fx.userRepo, fx.subdomains, fx.cache, time.Minute)
	fx.tokens = NewTokenService(fx.tokenRepo, security.NewTokenHasher("test-pepper-0123456789"), 24*time.Hour)
	fx.auth = NewAuthService(fx.users, fx.tokens)
	fx.roles = NewRoleService(repository.NewRoleRepository(db))
	fx.sliders = NewSliderService(repository.NewSliderRepository(db), fx.userRepo, fx.storage)
	return fx
}

func (fx *serviceFixture) mustCreateUser(t *testing.T, name, email string, tier domain.RoleTier) *domain.User {
	t.Helper()
	u, err := fx.users.Create(context.Background(), CreateUserInput{Name: name, Email: email, Role: tier, Password: "Secret#Pass1"})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// memoryImageStorage keeps uploaded images in a map and applies the same
// size, type and ownership checks as the MinIO store.
type memoryImageStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryImageStorage() *memoryImageStorage {
	return &memoryImageStorage{objects: make(map[string][]byte)}
}

func (m *memoryImageStorage) PutImage(_ context.Context, ownerID uint, file io.Reader, size int64) (string, error) {
	head, contentType, err := sniffImage(file, size, defaultMaxImageSize)
	if err != nil {
		return "", err
	}
	rest, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%d/%s.%s", sliderPathPrefix, ownerID, uuid.NewString(), imageExtensions[contentType])
	m.mu.Lock()
	m.objects[key] = append(head, rest...)
	m.mu.Unlock()
	return key, nil
}

func (m *memoryImageStorage) DeleteImage(_ context.Context, ownerID uint, key string) error {
	if key == "" {
		return nil
	}
	if err := checkImageOwner(ownerID, key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryImageStorage) ImageURL(_ context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (m *memoryImageStorage) Ping(context.Context) error { return nil }

func (m *memoryImageStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func pngFixture() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
}

func jpegFixture() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 64)...)
}
