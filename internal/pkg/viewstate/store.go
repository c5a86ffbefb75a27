// Package viewstate 记录每个访问者对每个名称已展开的资源面板
package viewstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/namebase_server/internal/model"
)

const keyPrefix = "view:"

// State 各资源类型当前是否展开
type State struct {
	Domains  bool
	Npm      bool
	Logo     bool
	OnePager bool
}

func (s State) Visible(kind model.AssetKind) bool {
	switch kind {
	case model.AssetDomains:
		return s.Domains
	case model.AssetNpm:
		return s.Npm
	case model.AssetLogo:
		return s.Logo
	case model.AssetOnePager:
		return s.OnePager
	}
	return false
}

func (s *State) SetVisible(kind model.AssetKind, visible bool) {
	switch kind {
	case model.AssetDomains:
		s.Domains = visible
	case model.AssetNpm:
		s.Npm = visible
	case model.AssetLogo:
		s.Logo = visible
	case model.AssetOnePager:
		s.OnePager = visible
	}
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(identity, nameID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, identity, nameID)
}

// Get 读取展示状态，不存在时返回全部收起
func (s *Store) Get(ctx context.Context, identity, nameID string) (State, error) {
	var state State

	fields, err := s.rdb.HGetAll(ctx, key(identity, nameID)).Result()
	if err != nil {
		return state, err
	}
	for kind, v := range fields {
		state.SetVisible(model.AssetKind(kind), v == "1")
	}
	return state, nil
}

// SetVisible 只更新一种资源的展开状态并刷新过期时间，不覆盖其他资源
func (s *Store) SetVisible(ctx context.Context, identity, nameID string, kind model.AssetKind, visible bool) error {
	k := key(identity, nameID)
	value := "0"
	if visible {
		value = "1"
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, string(kind), value)
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	return err
}
