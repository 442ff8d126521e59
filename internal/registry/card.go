package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// ErrInvalidCard marks card validation failures. Handlers map it to a 400
// parameter error; every other publish failure is a store problem and maps
// to a 5xx.
var ErrInvalidCard = errors.New("invalid card")

// Card is the subset of the agent card document the registry projects out of
// the opaque JSON blob. The full document is stored as-is in card_json.
type Card struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Version         string      `json:"version"`
	ProtocolVersion string      `json:"protocolVersion"`
	URL             string      `json:"url"`
	Skills          []CardSkill `json:"skills"`
}

// CardSkill is one declared skill of an agent.
type CardSkill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ParseCard decodes and validates a raw card document.
func ParseCard(raw []byte) (*Card, error) {
	var card Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidCard, err)
	}
	if strings.TrimSpace(card.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCard)
	}
	if strings.TrimSpace(card.Version) == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidCard)
	}
	return &card, nil
}

// CardHash returns the sha256 hex digest of the canonicalized (RFC 8785)
// card JSON. Canonicalization makes the hash stable across key ordering and
// whitespace differences, so republishing a semantically identical card is
// recognized as such.
func CardHash(raw []byte) (string, error) {
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalization failed: %v", ErrInvalidCard, err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// AgentKey derives the stable agent key from a card name: lowercase, with
// runs of non-alphanumeric characters collapsed into single hyphens.
func AgentKey(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SkillNames flattens the skill list for search indexing.
func (c *Card) SkillNames() []string {
	names := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}
