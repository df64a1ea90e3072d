package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// botIDPrefix marks generated bot user ids, so seat checks work even for bots
// that were never listed in the identities file.
const botIDPrefix = "ludi-bot-"

// BotIdentity describes one provisioned bot profile.
type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "hard"
}

// Level maps the configured difficulty onto a strategy level.
func (b BotIdentity) Level() BotLevel {
	if b.Difficulty == "hard" {
		return BotLevelHeuristic
	}
	return BotLevelGreedy
}

var (
	mu          sync.Mutex
	identities  []BotIdentity
	identityMap map[string]BotIdentity
	loadOnce    sync.Once
	loadErr     error
)

// LoadIdentities loads the bot profiles from the given path, once per process.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		var loaded []BotIdentity
		if err := json.Unmarshal(data, &loaded); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		for _, identity := range loaded {
			if identity.UserID != "" {
				registerIdentity(identity)
			}
		}
	})
	return loadErr
}

func registerIdentity(identity BotIdentity) {
	if identityMap == nil {
		identityMap = make(map[string]BotIdentity)
	}
	identities = append(identities, identity)
	identityMap[identity.UserID] = identity
}

// GetBotIdentity returns the provisioned identity at the given index, minting
// a throwaway identity when the file has none to offer.
func GetBotIdentity(index int) BotIdentity {
	mu.Lock()
	defer mu.Unlock()
	if index >= 0 && index < len(identities) {
		return identities[index]
	}

	identity := BotIdentity{
		DeviceID:    uuid.NewString(),
		UserID:      botIDPrefix + uuid.NewString(),
		Username:    fmt.Sprintf("ludi_bot_%d", index+1),
		DisplayName: fmt.Sprintf("Bot %d", index+1),
		Difficulty:  "easy",
	}
	registerIdentity(identity)
	return identity
}

// IdentityFor looks up an identity by bot user id.
func IdentityFor(userID string) (BotIdentity, bool) {
	mu.Lock()
	defer mu.Unlock()
	identity, ok := identityMap[userID]
	return identity, ok
}

// IsBot reports whether the given user id belongs to a bot seat.
func IsBot(userID string) bool {
	if strings.HasPrefix(userID, botIDPrefix) {
		return true
	}
	mu.Lock()
	defer mu.Unlock()
	_, ok := identityMap[userID]
	return ok
}

// GetBotDisplayName returns the display name for a bot user id, or "".
func GetBotDisplayName(userID string) string {
	mu.Lock()
	defer mu.Unlock()
	return identityMap[userID].DisplayName
}
