// signed_url_cache.go — LRU-кэш подписанных ссылок на документы с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	signedURLCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ep_signed_url_cache_hits_total",
		Help: "Общее количество попаданий в кэш подписанных ссылок.",
	})
	signedURLCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ep_signed_url_cache_misses_total",
		Help: "Общее количество промахов кэша подписанных ссылок.",
	})
)

// SignedURL — подписанная ссылка на документ.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignedURLCache — кэш ссылок, ключ — пользователь и документ.
// TTL записи — половина времени жизни ссылки: выданная из кэша ссылка
// остаётся действительной не меньше половины срока.
type SignedURLCache struct {
	cache *expirable.LRU[string, SignedURL]
}

// NewSignedURLCache создаёт кэш размера maxSize для ссылок со временем жизни urlTTL.
func NewSignedURLCache(maxSize int, urlTTL time.Duration) *SignedURLCache {
	return &SignedURLCache{
		cache: expirable.NewLRU[string, SignedURL](maxSize, nil, urlTTL/2),
	}
}

// Get возвращает ссылку из кэша.
func (c *SignedURLCache) Get(userID, docID string) (SignedURL, bool) {
	val, ok := c.cache.Get(cacheKey(userID, docID))
	if ok {
		signedURLCacheHitsTotal.Inc()
		return val, true
	}
	signedURLCacheMissesTotal.Inc()
	return SignedURL{}, false
}

// Set добавляет ссылку в кэш.
func (c *SignedURLCache) Set(userID, docID string, u SignedURL) {
	c.cache.Add(cacheKey(userID, docID), u)
}

// Delete инвалидирует ссылку (документ удалён).
func (c *SignedURLCache) Delete(userID, docID string) {
	c.cache.Remove(cacheKey(userID, docID))
}

// Len возвращает количество ссылок в кэше.
func (c *SignedURLCache) Len() int {
	return c.cache.Len()
}

func cacheKey(userID, docID string) string {
	return userID + "/" + docID
}
