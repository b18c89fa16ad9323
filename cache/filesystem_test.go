// Copyright 2025 achetronic
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestFilesystemCache(t *testing.T) (*FilesystemCache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := NewFilesystemCache(FilesystemCacheConfig{BasePath: dir, Namespace: "simple"})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c, dir
}

func TestFilesystemCache_StoresAndReads(t *testing.T) {
	c, dir := newTestFilesystemCache(t)
	ctx := context.Background()
	key, err := Key(map[string]any{"prompt": "hello"})
	if err != nil {
		t.Fatalf("key failed: %v", err)
	}

	v, cached, err := c.Get(ctx, key, func(context.Context) (map[string]any, error) {
		return map[string]any{"text": "world", "logprob": -1}, nil
	})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cached {
		t.Fatalf("expected miss on first get")
	}
	if v["text"] != "world" {
		t.Errorf("expected text=world, got %v", v["text"])
	}

	path := filepath.Join(dir, "simple", key[:2], key+".json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected entry file at %s: %v", path, err)
	}

	v, cached, err = c.Get(ctx, key, func(context.Context) (map[string]any, error) {
		t.Fatalf("compute must not run on a hit")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !cached {
		t.Fatalf("expected hit on second get")
	}
	if v["logprob"] != float64(-1) {
		t.Errorf("expected logprob=-1, got %v", v["logprob"])
	}
	t.Logf("✓ StoresAndReads: entry %s served from disk", key[:8])
}

func TestFilesystemCache_SurvivesReopen(t *testing.T) {
	c, dir := newTestFilesystemCache(t)
	ctx := context.Background()

	if _, _, err := c.Get(ctx, "abc123", func(context.Context) (map[string]any, error) {
		return map[string]any{"n": 3}, nil
	}); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	reopened, err := NewFilesystemCache(FilesystemCacheConfig{BasePath: dir, Namespace: "simple"})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	v, cached, err := reopened.Get(ctx, "abc123", nil)
	if err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if !cached || v["n"] != float64(3) {
		t.Errorf("expected cached n=3, got cached=%v value=%v", cached, v)
	}
}

func TestFilesystemCache_NamespacesAreIsolated(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	a, err := NewFilesystemCache(FilesystemCacheConfig{BasePath: dir, Namespace: "a"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	b, err := NewFilesystemCache(FilesystemCacheConfig{BasePath: dir, Namespace: "b"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	a.Get(ctx, "same-key", func(context.Context) (map[string]any, error) { return map[string]any{"from": "a"}, nil })
	v, cached, err := b.Get(ctx, "same-key", func(context.Context) (map[string]any, error) { return map[string]any{"from": "b"}, nil })
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cached || v["from"] != "b" {
		t.Errorf("expected an independent miss in namespace b, got cached=%v value=%v", cached, v)
	}
}

func TestFilesystemCache_Validation(t *testing.T) {
	if _, err := NewFilesystemCache(FilesystemCacheConfig{}); err == nil {
		t.Fatalf("expected error for empty BasePath")
	}
	c, _ := newTestFilesystemCache(t)
	if _, _, err := c.Get(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
