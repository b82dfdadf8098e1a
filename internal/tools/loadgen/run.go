package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64

	// Email and Password log in once before traffic starts; every request
	// then carries the resulting token cookie. Host overrides the Host header
	// so tenant-gated routes see a storefront subdomain.
	Email    string
	Password string
	Host     string
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	client := &http.Client{Timeout: 5 * time.Second}
	endpoints := endpointsForProfile(cfg.Profile)
	if len(endpoints) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var token string
	if cfg.Email != "" {
		var err error
		if token, err = login(ctx, client, cfg); err != nil {
			return Result{}, err
		}
	}

	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan endpoint, cfg.Concurrency*2)
	wg := sync.WaitGroup{}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for ep := range jobs {
				req, err := http.NewRequestWithContext(ctx, ep.method, cfg.BaseURL+ep.path, strings.NewReader(ep.body))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if ep.body != "" {
					req.Header.Set("Content-Type", "application/json")
				}
				req.Header.Set("Accept", "application/json")
				if cfg.Host != "" {
					req.Host = cfg.Host
				}
				if token != "" {
					req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&s2xx, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&s4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&s5xx, 1)
				}
			}
		}(i)
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	rng := rand.New(rand.NewSource(cfg.Seed))
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
		case <-ticker.C:
			jobs <- endpoints[rng.Intn(len(endpoints))]
		}
	}
}

type endpoint struct {
	method string
	path   string
	body   string
}

var (
	liveProbe     = endpoint{http.MethodGet, "/health/live", ""}
	readyProbe    = endpoint{http.MethodGet, "/health/ready", ""}
	badLogin      = endpoint{http.MethodPost, "/login", `{"email":"loadgen@example.shop","password":"not-the-password"}`}
	invalidSignup = endpoint{http.MethodPost, "/register", `{"name":"","email":"not-an-email","password":"short","password_confirmation":"other","role":"9"}`}
	anonymousMe   = endpoint{http.MethodGet, "/user", ""}
	anonymousList = endpoint{http.MethodGet, "/clients", ""}
	anonymousRole = endpoint{http.MethodGet, "/roles", ""}
	currentUser   = endpoint{http.MethodGet, "/user", ""}
	adminList     = endpoint{http.MethodGet, "/admins", ""}
	roleList      = endpoint{http.MethodGet, "/roles", ""}
	clientList    = endpoint{http.MethodGet, "/clients", ""}
)

func endpointsForProfile(profile string) []endpoint {
	switch strings.ToLower(profile) {
	case "", "mixed":
		return []endpoint{liveProbe, readyProbe, badLogin, anonymousMe, anonymousList}
	case "auth":
		return []endpoint{badLogin, invalidSignup}
	case "error-heavy":
		return []endpoint{badLogin, invalidSignup, anonymousMe, anonymousList, anonymousRole}
	case "admin":
		return []endpoint{currentUser, adminList, roleList, clientList}
	default:
		return nil
	}
}

const tokenCookieName = "token"

func login(ctx context.Context, client *http.Client, cfg Config) (string, error) {
	body, err := json.Marshal(map[string]string{"email": cfg.Email, "password": cfg.Password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: unexpected status %s", resp.Status)
	}
	for _, c := range resp.Cookies() {
		if c.Name == tokenCookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("login: response carried no %s cookie", tokenCookieName)
}
