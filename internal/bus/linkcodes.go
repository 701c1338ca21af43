package bus

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// linkCodeAlphabet avoids visually ambiguous characters (0/O, 1/I) the way
// a player would need to type the code back in-game.
const linkCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// LinkCodeTTL is how long a generated code remains redeemable (spec.md
// §4.11 POST /api/players/link).
const LinkCodeTTL = 5 * time.Minute

// LinkCodeStore issues short-lived codes that map a Discord (or other
// chat-platform) user ID to a Minecraft account linking flow. The flow
// that redeems a code is out of scope for this system (spec.md calls it
// "deferred"); only the code's storage is implemented here.
type LinkCodeStore struct {
	client *redis.Client
}

// NewLinkCodeStore wraps client for link-code operations.
func NewLinkCodeStore(client *redis.Client) *LinkCodeStore {
	return &LinkCodeStore{client: client}
}

// Generate mints a 6-character code for externalUserID and stores it with
// LinkCodeTTL, returning the code for display to the requester.
func (s *LinkCodeStore) Generate(ctx context.Context, externalUserID string) (string, error) {
	code, err := randomCode(6)
	if err != nil {
		return "", fmt.Errorf("bus: generate link code: %w", err)
	}
	key := linkCodeKey(code)
	if err := s.client.Set(ctx, key, externalUserID, LinkCodeTTL).Err(); err != nil {
		return "", fmt.Errorf("bus: store link code: %w", err)
	}
	return code, nil
}

// Resolve returns the externalUserID a still-valid code was issued for.
func (s *LinkCodeStore) Resolve(ctx context.Context, code string) (string, bool, error) {
	v, err := s.client.Get(ctx, linkCodeKey(code)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("bus: resolve link code: %w", err)
	}
	return v, true, nil
}

func linkCodeKey(code string) string { return "link:code:" + code }

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = linkCodeAlphabet[int(b)%len(linkCodeAlphabet)]
	}
	return string(out), nil
}
