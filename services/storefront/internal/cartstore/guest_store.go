package cartstore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
)

// GuestStore keeps guest carts in two redis hashes per guest: line
// attributes and line quantities, both keyed by a digest of the line key.
type GuestStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewGuestStore(rdb redis.UniversalClient, ttl time.Duration) *GuestStore {
	return &GuestStore{rdb: rdb, ttl: ttl}
}

type guestLine struct {
	ProductID uint     `json:"product_id"`
	Note      string   `json:"note"`
	Profile   string   `json:"profile"`
	Device    string   `json:"device"`
	Width     *float64 `json:"width,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	M2        float64  `json:"m2"`
	AddedAt   int64    `json:"added_at"`
}

func linesKey(guestID string) string { return fmt.Sprintf("cart:guest:%s:lines", guestID) }

func qtyKey(guestID string) string { return fmt.Sprintf("cart:guest:%s:qty", guestID) }

// guestLineID is stable for a product, profile, device and note.
func guestLineID(productID uint, profile, device, note string) string {
	h := sha1.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00%s", productID, profile, device, note)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func guestID(owner Owner) (string, error) {
	if owner.GuestID == "" {
		return "", apperr.Validation("missing guest cart id")
	}
	return owner.GuestID, nil
}

func (s *GuestStore) List(ctx context.Context, owner Owner) ([]domain.CartLine, error) {
	gid, err := guestID(owner)
	if err != nil {
		return nil, err
	}
	attrs, err := s.rdb.HGetAll(ctx, linesKey(gid)).Result()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "read guest cart", err)
	}
	qtys, err := s.rdb.HGetAll(ctx, qtyKey(gid)).Result()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "read guest cart", err)
	}

	type entry struct {
		line domain.CartLine
		at   int64
	}
	entries := make([]entry, 0, len(attrs))
	for id, raw := range attrs {
		qty, err := strconv.Atoi(qtys[id])
		if err != nil || qty < 1 {
			continue
		}
		var gl guestLine
		if err := json.Unmarshal([]byte(raw), &gl); err != nil {
			continue
		}
		entries = append(entries, entry{line: gl.toLine(id, qty), at: gl.AddedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at != entries[j].at {
			return entries[i].at < entries[j].at
		}
		return entries[i].line.ID < entries[j].line.ID
	})
	out := make([]domain.CartLine, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.line)
	}
	return out, nil
}

func (s *GuestStore) Add(ctx context.Context, owner Owner, spec domain.LineSpec) (domain.CartLine, error) {
	gid, err := guestID(owner)
	if err != nil {
		return domain.CartLine{}, err
	}
	id := guestLineID(spec.ProductID, spec.Profile, spec.Device, spec.Note)
	raw, err := json.Marshal(guestLine{
		ProductID: spec.ProductID,
		Note:      spec.Note,
		Profile:   spec.Profile,
		Device:    spec.Device,
		Width:     spec.Width,
		Height:    spec.Height,
		M2:        domain.AreaM2(spec.Width, spec.Height),
		AddedAt:   time.Now().UnixNano(),
	})
	if err != nil {
		return domain.CartLine{}, apperr.Wrap(apperr.KindInternal, "encode cart line", err)
	}

	var stored *redis.StringCmd
	var qty *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, linesKey(gid), id, raw)
		qty = p.HIncrBy(ctx, qtyKey(gid), id, int64(spec.Quantity))
		stored = p.HGet(ctx, linesKey(gid), id)
		p.Expire(ctx, linesKey(gid), s.ttl)
		p.Expire(ctx, qtyKey(gid), s.ttl)
		return nil
	})
	if err != nil {
		return domain.CartLine{}, apperr.Wrap(apperr.KindInternal, "write guest cart", err)
	}
	var gl guestLine
	if err := json.Unmarshal([]byte(stored.Val()), &gl); err != nil {
		return domain.CartLine{}, apperr.Wrap(apperr.KindInternal, "decode cart line", err)
	}
	return gl.toLine(id, int(qty.Val())), nil
}

func (s *GuestStore) SetQuantity(ctx context.Context, owner Owner, lineID string, qty int) error {
	gid, err := guestID(owner)
	if err != nil {
		return err
	}
	ok, err := s.rdb.HExists(ctx, linesKey(gid), lineID).Result()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "read guest cart", err)
	}
	if !ok {
		return apperr.NotFound("cart item not found")
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, qtyKey(gid), lineID, qty)
		p.Expire(ctx, linesKey(gid), s.ttl)
		p.Expire(ctx, qtyKey(gid), s.ttl)
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "write guest cart", err)
	}
	return nil
}

func (s *GuestStore) Remove(ctx context.Context, owner Owner, lineID string) error {
	gid, err := guestID(owner)
	if err != nil {
		return err
	}
	var removed *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.HDel(ctx, linesKey(gid), lineID)
		p.HDel(ctx, qtyKey(gid), lineID)
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "write guest cart", err)
	}
	if removed.Val() == 0 {
		return apperr.NotFound("cart item not found")
	}
	return nil
}

func (s *GuestStore) Clear(ctx context.Context, owner Owner) error {
	gid, err := guestID(owner)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, linesKey(gid), qtyKey(gid)).Err(); err != nil {
		return apperr.Wrap(apperr.KindInternal, "clear guest cart", err)
	}
	return nil
}

func (gl guestLine) toLine(id string, qty int) domain.CartLine {
	return domain.CartLine{
		ID:        id,
		ProductID: gl.ProductID,
		Quantity:  qty,
		Note:      gl.Note,
		Profile:   gl.Profile,
		Device:    gl.Device,
		Width:     gl.Width,
		Height:    gl.Height,
		M2:        gl.M2,
	}
}
