package cache

import (
	"context"
	"testing"
	"time"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	key := TokenCacheKey("1", entities.USDC.Address.Hex())

	got, err := c.GetToken(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("GetToken() on empty cache = %v, %v, want miss", got, err)
	}

	token := entities.USDC
	if err := c.SetToken(ctx, key, &token, time.Minute); err != nil {
		t.Fatal(err)
	}
	token.Symbol = "MUTATED"

	got, err = c.GetToken(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != entities.USDC {
		t.Errorf("GetToken() = %+v, want %+v", got, entities.USDC)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.GetToken(ctx, key); got != nil {
		t.Errorf("GetToken() after Delete = %+v, want miss", got)
	}
}

func TestInMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	token := entities.DAI

	if err := c.SetToken(ctx, "k", &token, -time.Second); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.GetToken(ctx, "k"); got != nil {
		t.Errorf("expired entry returned: %+v", got)
	}
}

func TestTokenCacheKey(t *testing.T) {
	upper := TokenCacheKey("1", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	lower := TokenCacheKey("1", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	if upper != lower {
		t.Errorf("keys differ by case: %q vs %q", upper, lower)
	}
	if upper != "token:1:0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Errorf("TokenCacheKey() = %q", upper)
	}
	if TokenCacheKey("5", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48") == upper {
		t.Error("keys for different chains collide")
	}
}
