package storage

import "testing"

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions("redis://:pw@localhost:6380/2")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected url options: %+v", opts)
	}

	opts, err = RedisOptions("cache.example.net:6380,password=secret,ssl=True")
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	if opts.Addr != "cache.example.net:6380" || opts.Password != "secret" || opts.TLSConfig == nil {
		t.Fatalf("unexpected connection string options: %+v", opts)
	}

	for _, bad := range []string{"", "   ", "password=x"} {
		if _, err := RedisOptions(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
