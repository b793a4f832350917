package economy

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tapforge/server/tapforge/config"
)

// Invalidator is the narrow view engines hold on the profile cache. A nil
// Invalidator is a valid no-op.
type Invalidator interface {
	Invalidate(userID string)
}

// ProfileSnapshot is the read model served to profile queries. It is built
// from committed state only; engines drop the cached copy after every write.
type ProfileSnapshot struct {
	UserID                string
	Level                 int
	XP                    int64
	Energy                int64
	StarsBalance          int64
	TotalEnergyProduced   int64
	TotalTaps             int64
	TapLevel              int
	PrestigeLevel         int
	PrestigeMultiplier    float64
	AchievementMultiplier float64
	EffectiveIncomePerSec float64
	BuildingsOwned        int64
	FetchedAt             time.Time
}

type cacheEntry struct {
	snapshot  *ProfileSnapshot
	expiresAt time.Time
}

// ProfileCache is an LRU of recently served profile snapshots with a short
// per-entry TTL.
type ProfileCache struct {
	entries *lru.Cache
	ttl     time.Duration
}

func NewProfileCache() (*ProfileCache, error) {
	entries, err := lru.New(config.ProfileCacheSize)
	if err != nil {
		return nil, err
	}
	return &ProfileCache{
		entries: entries,
		ttl:     config.ProfileCacheExpiration,
	}, nil
}

func (pc *ProfileCache) Get(userID string) (*ProfileSnapshot, bool) {
	v, ok := pc.entries.Get(userID)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if time.Now().After(entry.expiresAt) {
		pc.entries.Remove(userID)
		return nil, false
	}
	return entry.snapshot, true
}

func (pc *ProfileCache) Put(snapshot *ProfileSnapshot) {
	pc.entries.Add(snapshot.UserID, cacheEntry{
		snapshot:  snapshot,
		expiresAt: time.Now().Add(pc.ttl),
	})
}

// Invalidate drops the cached snapshot after a committed write.
func (pc *ProfileCache) Invalidate(userID string) {
	pc.entries.Remove(userID)
}
