package valkey

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/inquirydesk/internal/db"
)

// JSONSet stores a JSON document at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(paths...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// JSONMGet fetches one path from many keys in a single round-trip.
// Missing keys yield nil entries at their positions.
func (s *Store) JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmd := s.b().Arbitrary("JSON.MGET").Keys(keys...).Args(path).Build()
	msgs, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}

	out := make([][]byte, len(keys))
	for i := range msgs {
		if i >= len(out) || msgs[i].IsNil() {
			continue
		}
		raw, err := msgs[i].ToString()
		if err != nil {
			continue
		}
		out[i] = []byte(raw)
	}
	return out, nil
}

// Del deletes a key and reports whether it existed.
func (s *Store) Del(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Del().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpDel, Err: err}
	}
	return n > 0, nil
}

// DelMulti deletes keys in one DoMulti round-trip and returns how many existed.
// One DEL per key lets a cluster client route each key to its own slot.
func (s *Store) DelMulti(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, k := range keys {
		cmds[i] = s.b().Del().Key(k).Build()
	}

	deleted := 0
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		n, err := res.AsInt64()
		if err != nil {
			return deleted, &db.Error{Op: db.OpDel, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		deleted += int(n)
	}
	return deleted, nil
}

// Scan iterates keys matching a pattern on every node the client knows,
// so cluster deployments return keys from all shards. Replica duplicates are dropped.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string

	for addr, node := range s.client.Nodes() {
		var cursor uint64
		for {
			cmd := node.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
			res, err := node.Do(ctx, cmd).AsScanEntry()
			if err != nil {
				return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("node %s: %w", addr, err)}
			}
			for _, k := range res.Elements {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					keys = append(keys, k)
				}
			}
			cursor = res.Cursor
			if cursor == 0 {
				break
			}
		}
	}

	return keys, nil
}
