package perf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/registry"
	registryhttp "github.com/odyssey-erp/nft-registry/internal/registry/http"
	"github.com/odyssey-erp/nft-registry/internal/registry/store"
)

var (
	admin  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	holder = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

func newService(tb testing.TB, supply uint64) *registry.Service {
	tb.Helper()
	ctx := context.Background()
	svc := registry.NewService(store.NewMemory(), nil, nil, nil, nil)
	if err := svc.Boot(ctx, ledger.Genesis{Admin: admin, Name: "Bench", Symbol: "BNC"}); err != nil {
		tb.Fatalf("boot: %v", err)
	}
	if _, err := svc.Execute(ctx, ledger.GrantRole{Caller: admin, Role: ledger.RoleMinter, Account: admin}); err != nil {
		tb.Fatalf("grant: %v", err)
	}
	if supply > 0 {
		if _, err := svc.Execute(ctx, ledger.Mint{Caller: admin, To: holder, Count: supply}); err != nil {
			tb.Fatalf("mint: %v", err)
		}
	}
	return svc
}

func BenchmarkServiceMint(b *testing.B) {
	svc := newService(b, 0)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Execute(ctx, ledger.Mint{Caller: admin, To: holder, Count: 1}); err != nil {
			b.Fatalf("mint: %v", err)
		}
	}
}

func BenchmarkServiceTransfer(b *testing.B) {
	svc := newService(b, 1)
	ctx := context.Background()
	owners := []common.Address{holder, admin}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from, to := owners[i%2], owners[(i+1)%2]
		if _, err := svc.Execute(ctx, ledger.Transfer{Caller: from, From: from, To: to, TokenID: 1}); err != nil {
			b.Fatalf("transfer: %v", err)
		}
	}
}

func TestTokenReadLatencyTarget(t *testing.T) {
	const supply = 2_000
	svc := newService(t, supply)
	r := chi.NewRouter()
	registryhttp.NewHandler(svc, registryhttp.Config{}).MountRoutes(r)

	samples := make([]time.Duration, 0, 200)
	for i := 0; i < cap(samples); i++ {
		id := strconv.Itoa(i%supply + 1)
		start := time.Now()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tokens/"+id, nil))
		samples = append(samples, time.Since(start))
		if rec.Code != http.StatusOK {
			t.Fatalf("read token %s: status %d", id, rec.Code)
		}
	}
	if p95 := percentile95(samples); p95 > 50*time.Millisecond {
		t.Fatalf("token read latency regression: p95=%s threshold=50ms", p95)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
