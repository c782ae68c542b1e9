package content

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// Reactions maps a single emoji to the user ids that reacted with it, in the
// order they reacted. A user holds at most one key per reactable entity.
type Reactions map[string][]int64

// ReactionChange describes what a React call did for the acting user.
type ReactionChange struct {
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current,omitempty"`
}

// ToggledOff reports whether the call removed the user's reaction.
func (c ReactionChange) ToggledOff() bool {
	return c.Current == ""
}

// Switched reports whether the user replaced one emoji with another.
func (c ReactionChange) Switched() bool {
	return c.Previous != "" && c.Current != ""
}

// IsEmoji reports whether s is exactly one emoji grapheme cluster.
// Flags, keycaps, skin tones and ZWJ sequences count as one emoji.
func IsEmoji(s string) bool {
	if s == "" || uniseg.GraphemeClusterCount(s) != 1 {
		return false
	}

	emoji := false
	keycapBase := false
	for _, r := range s {
		switch {
		case isPictographic(r):
			emoji = true
		case r == 0x20E3:
			if !keycapBase {
				return false
			}
			emoji = true
		case r == '#' || r == '*' || (r >= '0' && r <= '9'):
			keycapBase = true
		case r == 0x200D, r == 0xFE0E, r == 0xFE0F, r >= 0xE0020 && r <= 0xE007F:
			// joiners, variation selectors and tag sequences
		default:
			return false
		}
	}
	return emoji
}

func isPictographic(r rune) bool {
	switch {
	case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122, r == 0x2139, r == 0x24C2:
		return true
	case r >= 0x2194 && r <= 0x21AA:
		return true
	case r >= 0x231A && r <= 0x23FF:
		return true
	case r >= 0x25AA && r <= 0x25FE:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r == 0x2934, r == 0x2935:
		return true
	case r >= 0x2B05 && r <= 0x2B55:
		return true
	case r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
		return true
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	}
	return false
}

// Sanitized returns a copy holding only valid emoji keys, with duplicate ids
// removed and empty buckets dropped. When a user appears under several keys
// only the first key in sorted order keeps them.
func (r Reactions) Sanitized() Reactions {
	out := make(Reactions, len(r))
	seen := make(map[int64]bool)

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		key := strings.TrimSpace(raw)
		if !IsEmoji(key) {
			continue
		}
		for _, id := range r[raw] {
			if id <= 0 || seen[id] {
				continue
			}
			seen[id] = true
			out[key] = append(out[key], id)
		}
	}
	return out
}

// UserReaction returns the emoji the user currently holds, if any.
func (r Reactions) UserReaction(userID int64) (string, bool) {
	for emoji, ids := range r {
		for _, id := range ids {
			if id == userID {
				return emoji, true
			}
		}
	}
	return "", false
}

// Count returns the total number of reactions across all emojis.
func (r Reactions) Count() int {
	n := 0
	for _, ids := range r {
		n += len(ids)
	}
	return n
}

// React applies toggle semantics for userID and emoji: the user is first
// removed from every bucket, then added to the emoji bucket unless that emoji
// was the one just removed.
func (r Reactions) React(userID int64, emoji string) (Reactions, ReactionChange, error) {
	emoji = strings.TrimSpace(emoji)
	if !IsEmoji(emoji) {
		return r, ReactionChange{}, apperrors.ErrInvalidEmoji
	}

	next := r.Sanitized()
	prev, _ := next.UserReaction(userID)

	for key, ids := range next {
		kept := ids[:0:0]
		for _, id := range ids {
			if id != userID {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(next, key)
		} else {
			next[key] = kept
		}
	}

	change := ReactionChange{Previous: prev}
	if prev != emoji {
		next[emoji] = append(next[emoji], userID)
		change.Current = emoji
	}
	return next, change, nil
}

// MarshalJSON writes the sanitized form so invalid keys never reach storage
// or clients.
func (r Reactions) MarshalJSON() ([]byte, error) {
	clean := r.Sanitized()
	plain := make(map[string][]int64, len(clean))
	for k, v := range clean {
		plain[k] = v
	}
	return json.Marshal(plain)
}

// UnmarshalJSON accepts any stored shape and sanitizes it on the way in.
func (r *Reactions) UnmarshalJSON(data []byte) error {
	var plain map[string][]int64
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	*r = Reactions(plain).Sanitized()
	return nil
}
