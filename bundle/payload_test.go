package bundle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
)

func TestMapResolver(t *testing.T) {
	m := MapResolver{"a": "A"}
	data, err := m.Payload(context.Background(), "a")
	if err != nil || string(data) != "A" {
		t.Fatalf("Payload(a) = %q, %v", data, err)
	}
	data[0] = 'x'
	if again, _ := m.Payload(context.Background(), "a"); string(again) != "A" {
		t.Error("MapResolver returned shared bytes")
	}
	if _, err := m.Payload(context.Background(), "b"); !errors.Is(err, ErrPayloadNotFound) {
		t.Errorf("Payload(b) error = %v", err)
	}
}

func TestDirResolver(t *testing.T) {
	fsys := fstest.MapFS{
		"modules/es.map.js":  {Data: []byte("map")},
		"modules/raw.mjs":    {Data: []byte("raw")},
		"modules/es.set.mjs": {Data: []byte("set")},
	}
	d := &DirResolver{FS: fsys, Ext: ".js"}

	tests := []struct {
		ref     string
		want    string
		wantErr error
	}{
		{ref: "modules/es.map", want: "map"},
		{ref: "modules/es.map.js", want: "map"},
		{ref: "/modules/es.map", want: "map"},
		{ref: "../modules/es.map", want: "map"},
		{ref: "modules/missing", wantErr: ErrPayloadNotFound},
		{ref: "modules/raw.mjs", wantErr: ErrPayloadNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := d.Payload(context.Background(), tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Payload() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || string(got) != tt.want {
				t.Errorf("Payload() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}

	raw := &DirResolver{FS: fsys}
	if got, err := raw.Payload(context.Background(), "modules/raw.mjs"); err != nil || string(got) != "raw" {
		t.Errorf("without Ext: Payload() = %q, %v", got, err)
	}
}

func TestNewDirResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "es.map.js"), []byte("map"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewDirResolver(dir).Payload(context.Background(), "es.map")
	if err != nil || string(got) != "map" {
		t.Errorf("Payload() = %q, %v", got, err)
	}
}

func TestChainResolver(t *testing.T) {
	broken := ResolverFunc(func(ctx context.Context, ref string) ([]byte, error) {
		if ref == "flaky" {
			return nil, errors.New("connection reset")
		}
		return nil, ErrPayloadNotFound
	})
	local := MapResolver{"a": "local a"}
	vendor := MapResolver{"a": "vendor a", "b": "vendor b", "flaky": "vendor flaky"}

	chain, err := NewChainResolver(broken, local, vendor)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref        string
		want       string
		wantSource int
	}{
		{ref: "a", want: "local a", wantSource: 1},
		{ref: "b", want: "vendor b", wantSource: 2},
		{ref: "flaky", want: "vendor flaky", wantSource: 2},
	}
	for _, tt := range tests {
		got, err := chain.Payload(context.Background(), tt.ref)
		if err != nil || string(got) != tt.want {
			t.Errorf("Payload(%s) = %q, %v; want %q", tt.ref, got, err, tt.want)
		}
		if src, ok := chain.Source(tt.ref); !ok || src != tt.wantSource {
			t.Errorf("Source(%s) = %d, %v; want %d", tt.ref, src, ok, tt.wantSource)
		}
	}

	if _, err := chain.Payload(context.Background(), "missing"); !errors.Is(err, ErrPayloadNotFound) {
		t.Errorf("missing: error = %v, want ErrPayloadNotFound", err)
	}
	if _, ok := chain.Source("missing"); ok {
		t.Error("Source(missing) recorded a source")
	}

	onlyBroken, _ := NewChainResolver(broken)
	_, err = onlyBroken.Payload(context.Background(), "flaky")
	if err == nil || errors.Is(err, ErrPayloadNotFound) {
		t.Errorf("transport failure should not read as not found: %v", err)
	}

	if _, err := NewChainResolver(); err == nil {
		t.Error("NewChainResolver() with no resolvers should fail")
	}
}

func TestCachingResolver(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	next := ResolverFunc(func(ctx context.Context, ref string) ([]byte, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		if ref == "missing" {
			return nil, ErrPayloadNotFound
		}
		return []byte("payload " + ref), nil
	})
	c := NewCachingResolver(next)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := c.Payload(context.Background(), "a"); err != nil || string(got) != "payload a" {
				t.Errorf("Payload(a) = %q, %v", got, err)
			}
		}()
	}
	wg.Wait()

	got, _ := c.Payload(context.Background(), "a")
	got[0] = 'X'
	if again, _ := c.Payload(context.Background(), "a"); string(again) != "payload a" {
		t.Error("cached payload was mutated through a returned slice")
	}

	if _, err := c.Payload(context.Background(), "missing"); !errors.Is(err, ErrPayloadNotFound) {
		t.Errorf("missing: error = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	hits, misses := c.Stats()
	if hits+misses != 18 || misses < 1 {
		t.Errorf("Stats() = %d hits, %d misses", hits, misses)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Stats() after Clear = %d hits, %d misses, want 0, 0", hits, misses)
	}
}
