package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// envelopeMagic 标记带过期时间的值. groupcache 与 NATS KV 没有键级过期，由读取方惰性判断.
const envelopeMagic = "FVTTL1:"

type envelope struct {
	V []byte `json:"v"`
	E int64  `json:"e"` // 过期时刻，unix 毫秒
}

// seal ttl > 0 时包装值与过期时刻，否则返回值的副本.
func seal(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return bytes.Clone(value), nil
	}

	b, err := sonic.Marshal(envelope{V: value, E: now.Add(ttl).UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("marshal kv envelope: %w", err)
	}

	return append([]byte(envelopeMagic), b...), nil
}

// unseal 拆开包装并判断是否仍有效. 未包装的值永不过期.
func unseal(raw []byte, now time.Time) ([]byte, bool, error) {
	rest, ok := bytes.CutPrefix(raw, []byte(envelopeMagic))
	if !ok {
		return raw, true, nil
	}

	var env envelope
	if err := sonic.Unmarshal(rest, &env); err != nil {
		return nil, false, fmt.Errorf("unmarshal kv envelope: %w", err)
	}

	if now.UnixMilli() >= env.E {
		return nil, false, nil
	}

	return env.V, true, nil
}
