package domain

import "time"

// Fixed user-facing strings.
const (
	// LockedStoryTitle replaces the title of a story the user cannot read yet.
	LockedStoryTitle = "???"
	// LockedStoryContent replaces the body of a story the user cannot read yet.
	LockedStoryContent = "This story unlocks when your trust level is high enough. Keep talking to get closer."
	// FailedToSendMessage is appended as a system message when a chat turn fails.
	FailedToSendMessage = "Failed to send your message. Please try again."
)

// ConvertGenderFromNumber maps the upstream numeric gender code. Unknown codes
// map to GenderOther.
func ConvertGenderFromNumber(n int) Gender {
	switch n {
	case 0:
		return GenderMale
	case 1:
		return GenderFemale
	default:
		return GenderOther
	}
}

// IsStoryUnlocked reports whether rel grants access to story. A missing
// relationship never unlocks anything.
func IsStoryUnlocked(rel *Relationship, story Story) bool {
	if rel == nil {
		return false
	}
	return rel.TrustLevelID >= story.RequiredTrustLevel
}

// GateStory returns story with IsUnlocked recomputed against rel. Locked
// stories have their title and content replaced.
func GateStory(rel *Relationship, story Story) Story {
	story.IsUnlocked = IsStoryUnlocked(rel, story)
	if !story.IsUnlocked {
		story.Title = LockedStoryTitle
		story.Content = LockedStoryContent
	}
	return story
}

// LeveledUp reports whether next has a higher trust level than prev. A nil
// prev is treated as "no level known", so the first observed snapshot never
// counts as a level-up.
func LeveledUp(prev, next *Relationship) bool {
	if prev == nil || next == nil {
		return false
	}
	return next.TrustLevelID > prev.TrustLevelID
}

// TrustLevelOf returns the trust level of rel, or 0 when rel is nil.
func TrustLevelOf(rel *Relationship) int {
	if rel == nil {
		return 0
	}
	return rel.TrustLevelID
}

// LastConversationOf returns the last conversation time of rel, or the zero
// Unix epoch when the user never talked to the character.
func LastConversationOf(rel *Relationship) time.Time {
	if rel == nil || rel.LastConversationAt == nil {
		return time.Unix(0, 0).UTC()
	}
	return *rel.LastConversationAt
}
