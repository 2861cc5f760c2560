package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/DevADOBAN/Taskhub/auth"
)

func TestUserIDs(t *testing.T) {
	ids, err := userIDs(3, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != 5 || ids[2] != 7 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	ids, err = userIDs(1, 1, []string{"42"})
	if err != nil || len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("unexpected explicit ids: %v %v", ids, err)
	}

	for name, tc := range map[string]struct {
		count int
		start int64
		args  []string
	}{
		"zero count":     {count: 0, start: 1},
		"bad start":      {count: 2, start: 0},
		"explicit many":  {count: 2, start: 1, args: []string{"1"}},
		"non numeric id": {count: 1, start: 1, args: []string{"abc"}},
	} {
		if _, err := userIDs(tc.count, tc.start, tc.args); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestGenerateAndWriteTokens(t *testing.T) {
	tokens, err := auth.NewTokenService([]byte("gen-token-secret"), time.Minute)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	out, err := generateTokens(tokens, []int64{1, 2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, tok := range out {
		id, err := tokens.Validate(tok)
		if err != nil || id != int64(i+1) {
			t.Fatalf("token %d: id=%d err=%v", i, id, err)
		}
	}

	path := filepath.Join(t.TempDir(), "out", "tokens.json")
	if err := writeTokens(path, out); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded []string
	if err := sonic.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != out[0] {
		t.Fatalf("unexpected file contents: %v", decoded)
	}
}
