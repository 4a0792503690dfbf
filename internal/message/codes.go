package message

import "fmt"

const (
	// LabelNone is used when the store carries no effect or reaction code.
	LabelNone = "none"
	// LabelUnrecognized is used for codes missing from the tables below.
	LabelUnrecognized = "unrecognized"
)

var effectLabels = map[string]string{
	"com.apple.MobileSMS.expressivesend.impact":       "slam",
	"com.apple.MobileSMS.expressivesend.loud":         "loud",
	"com.apple.MobileSMS.expressivesend.gentle":       "gentle",
	"com.apple.MobileSMS.expressivesend.invisibleink": "invisible ink",
	"com.apple.messages.effect.CKEchoEffect":          "echo",
	"com.apple.messages.effect.CKSpotlightEffect":     "spotlight",
	"com.apple.messages.effect.CKHappyBirthdayEffect": "balloons",
	"com.apple.messages.effect.CKConfettiEffect":      "confetti",
	"com.apple.messages.effect.CKHeartEffect":         "love",
	"com.apple.messages.effect.CKLasersEffect":        "lasers",
	"com.apple.messages.effect.CKFireworksEffect":     "fireworks",
	"com.apple.messages.effect.CKShootingStarEffect":  "shooting star",
	"com.apple.messages.effect.CKSparklesEffect":      "sparkles",
}

// tapbacks are the associated_message_type codes for reactions. Codes in the
// 3000 range remove the reaction at the same offset from 2000.
var tapbacks = map[int64]string{
	2000: "loved",
	2001: "liked",
	2002: "disliked",
	2003: "laughed",
	2004: "emphasized",
	2005: "questioned",
	2006: "emoji",
	2007: "sticker",
}

// EffectLabel maps an expressive_send_style_id to a message effect label.
func EffectLabel(styleID string) string {
	if styleID == "" {
		return LabelNone
	}
	if label, ok := effectLabels[styleID]; ok {
		return label
	}
	return LabelUnrecognized
}

// ReactionLabel maps an associated_message_type to a reaction label.
func ReactionLabel(code int64) string {
	switch {
	case code == 0:
		return LabelNone
	case code == 1000:
		return "sticker"
	case code >= 3000 && code < 3100:
		if label, ok := tapbacks[code-1000]; ok {
			return fmt.Sprintf("removed %s", label)
		}
	default:
		if label, ok := tapbacks[code]; ok {
			return label
		}
	}
	return LabelUnrecognized
}
