package secrets_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Strob0t/PropDesk/internal/secrets"
)

func TestNewVault_InitialLoad(t *testing.T) {
	v, err := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"KEY_A": "val_a", "KEY_B": "val_b"}, nil
	})
	if err != nil {
		t.Fatalf("NewVault failed: %v", err)
	}
	if got := v.Get("KEY_A"); got != "val_a" {
		t.Fatalf("expected 'val_a', got %q", got)
	}
	if got := v.Get("MISSING"); got != "" {
		t.Fatalf("expected empty string for missing key, got %q", got)
	}
}

func TestNewVault_LoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestVault_Reload(t *testing.T) {
	callCount := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		callCount++
		if callCount == 1 {
			return map[string]string{secrets.JWTSecret: "old"}, nil
		}
		return map[string]string{secrets.JWTSecret: "new", secrets.JWTSecretPrevious: "old"}, nil
	})

	if cur, prev := v.SigningKeys(); cur != "old" || prev != "" {
		t.Fatalf("initial keys = %q, %q", cur, prev)
	}
	if err := v.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if cur, prev := v.SigningKeys(); cur != "new" || prev != "old" {
		t.Fatalf("rotated keys = %q, %q", cur, prev)
	}
}

func TestVault_ReloadErrorPreservesValues(t *testing.T) {
	callCount := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		callCount++
		if callCount == 1 {
			return map[string]string{"KEY": "original"}, nil
		}
		return nil, errors.New("vault unavailable")
	})

	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := v.Get("KEY"); got != "original" {
		t.Fatalf("expected 'original' after failed reload, got %q", got)
	}
}

func TestVault_ConcurrentAccess(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{secrets.JWTSecret: "V"}, nil
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = v.SigningKeys()
		}()
		go func() {
			defer wg.Done()
			_ = v.Reload()
		}()
	}
	wg.Wait()
}

func TestSigningKeyLoader(t *testing.T) {
	const fallback = "configured-secret-of-sufficient-length"

	t.Run("fallback when env unset", func(t *testing.T) {
		t.Setenv(secrets.JWTSecret, "")
		t.Setenv(secrets.JWTSecretPrevious, "")
		vals, err := secrets.SigningKeyLoader(fallback, 32)()
		if err != nil {
			t.Fatalf("loader: %v", err)
		}
		if vals[secrets.JWTSecret] != fallback {
			t.Fatalf("current = %q", vals[secrets.JWTSecret])
		}
	})

	t.Run("env wins", func(t *testing.T) {
		rotated := strings.Repeat("r", 40)
		t.Setenv(secrets.JWTSecret, rotated)
		t.Setenv(secrets.JWTSecretPrevious, fallback)
		vals, err := secrets.SigningKeyLoader(fallback, 32)()
		if err != nil {
			t.Fatalf("loader: %v", err)
		}
		if vals[secrets.JWTSecret] != rotated || vals[secrets.JWTSecretPrevious] != fallback {
			t.Fatalf("unexpected keys %v", vals)
		}
	})

	t.Run("short key rejected", func(t *testing.T) {
		t.Setenv(secrets.JWTSecret, "short")
		t.Setenv(secrets.JWTSecretPrevious, "")
		if _, err := secrets.SigningKeyLoader(fallback, 32)(); err == nil {
			t.Fatal("expected error for short key")
		}
	})
}
