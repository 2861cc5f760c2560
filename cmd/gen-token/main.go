// Command gen-token mints access tokens for existing user ids using the
// API's configured signing secret. It is meant for local testing and load
// generation.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/DevADOBAN/Taskhub/auth"
	"github.com/DevADOBAN/Taskhub/config"
)

func main() {
	var (
		count  = flag.Int("count", 1, "number of tokens to generate")
		start  = flag.Int64("start", 1, "first user id when count > 1")
		output = flag.String("output", "", "file to write generated tokens as a JSON array")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	ids, err := userIDs(*count, *start, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	out, err := generateTokens(tokens, ids)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	if *output != "" {
		if err := writeTokens(*output, out); err != nil {
			log.Fatalf("write tokens: %v", err)
		}
	}
	fmt.Print(out[0])
}

func userIDs(count int, start int64, args []string) ([]int64, error) {
	if count < 1 {
		return nil, fmt.Errorf("count must be at least 1")
	}
	if len(args) > 0 {
		if count > 1 {
			return nil, fmt.Errorf("explicit user id cannot be combined with count > 1")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid user id %q", args[0])
		}
		return []int64{id}, nil
	}
	if start < 1 {
		return nil, fmt.Errorf("start must be at least 1")
	}
	ids := make([]int64, count)
	for i := range ids {
		ids[i] = start + int64(i)
	}
	return ids, nil
}

func generateTokens(tokens *auth.TokenService, ids []int64) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		tok, err := tokens.Issue(id)
		if err != nil {
			return nil, err
		}
		out[i] = tok
	}
	return out, nil
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
