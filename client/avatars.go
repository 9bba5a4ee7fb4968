package client

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/zap"

	"wander/protocol"
)

type frameKey struct {
	avatar string
	dir    protocol.Direction
}

// AvatarCache stores avatar definitions and their decoded frames. Frames are
// decoded asynchronously one slot at a time; a slot is either absent (nil)
// or holds a fully drawable image. Lookups never block, so the render loop
// simply skips players whose frames have not landed yet.
//
// A payload that fails to decode leaves its slot absent for the session;
// there is no retry.
type AvatarCache struct {
	mu     sync.RWMutex
	defs   map[string]protocol.Avatar
	frames map[frameKey][]*ebiten.Image

	swg sizedwaitgroup.SizedWaitGroup
	log *zap.SugaredLogger
}

// NewAvatarCache returns an empty cache whose decode concurrency is bounded
// by the CPU count.
func NewAvatarCache(log *zap.SugaredLogger) *AvatarCache {
	return &AvatarCache{
		defs:   make(map[string]protocol.Avatar),
		frames: make(map[frameKey][]*ebiten.Image),
		swg:    sizedwaitgroup.New(runtime.NumCPU()),
		log:    log,
	}
}

// Register stores an avatar definition. Re-registering the same name
// overwrites the stored definition but never discards frames already
// decoded; definitions are immutable per name in practice.
func (c *AvatarCache) Register(av protocol.Avatar) {
	if av.Name == "" {
		return
	}
	c.mu.Lock()
	c.defs[av.Name] = av
	c.mu.Unlock()
}

// Registered reports whether a definition exists for name.
func (c *AvatarCache) Registered(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.defs[name]
	return ok
}

// DecodeAsync kicks off decoding for every (direction, index) slot of the
// definition and returns immediately. Slots complete independently and in
// no particular order. Directions already claimed by an earlier call are
// skipped, which makes repeated registration of the same avatar cheap.
func (c *AvatarCache) DecodeAsync(av protocol.Avatar) {
	if av.Name == "" {
		return
	}
	type job struct {
		key     frameKey
		index   int
		payload string
	}
	var jobs []job

	c.mu.Lock()
	for dir, payloads := range av.Frames {
		key := frameKey{avatar: av.Name, dir: dir}
		if _, claimed := c.frames[key]; claimed {
			continue
		}
		c.frames[key] = make([]*ebiten.Image, len(payloads))
		for i, p := range payloads {
			jobs = append(jobs, job{key: key, index: i, payload: p})
		}
	}
	c.mu.Unlock()

	if len(jobs) == 0 {
		return
	}
	go func() {
		for _, j := range jobs {
			c.swg.Add()
			go func(j job) {
				defer c.swg.Done()
				img, err := decodePayload(j.payload)
				if err != nil {
					frameDecodeFailures.Inc()
					c.log.Warnw("avatar frame decode failed",
						"avatar", j.key.avatar, "direction", j.key.dir, "index", j.index, "error", err)
					return
				}
				c.install(j.key, j.index, ebiten.NewImageFromImage(img))
			}(j)
		}
	}()
}

// install publishes one decoded frame. The slice was sized at claim time, so
// the slot assignment is atomic under the lock.
func (c *AvatarCache) install(key frameKey, index int, img *ebiten.Image) {
	c.mu.Lock()
	if slots, ok := c.frames[key]; ok && index >= 0 && index < len(slots) {
		slots[index] = img
		framesDecodedCounter.Inc()
	}
	c.mu.Unlock()
}

// Frame looks up the decoded frame for (name, dir, idx). The index wraps
// modulo the slot count so callers can advance animation counters freely.
// ok is false while the slot is still decoding, failed to decode, or the
// avatar/direction is unknown.
func (c *AvatarCache) Frame(name string, dir protocol.Direction, idx int) (*ebiten.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	slots, ok := c.frames[frameKey{avatar: name, dir: dir}]
	if !ok || len(slots) == 0 {
		return nil, false
	}
	if idx < 0 {
		idx = 0
	}
	img := slots[idx%len(slots)]
	if img == nil {
		return nil, false
	}
	return img, true
}

// decodePayload turns one encoded frame payload into an image. Payloads are
// base64-encoded image bytes, optionally prefixed with a data URL header
// ("data:image/png;base64,....").
func decodePayload(payload string) (image.Image, error) {
	if i := strings.Index(payload, "base64,"); i >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[i+len("base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
