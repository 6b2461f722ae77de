package agent

import "strings"

// Intent is the classified purpose of an inbound message text.
type Intent int

const (
	IntentGreeting Intent = iota
	IntentHelp
	IntentGeneral
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentHelp:
		return "help"
	default:
		return "general"
	}
}

var greetingTriggers = map[string]struct{}{
	"/start":    {},
	"hello":     {},
	"hi":        {},
	"hey":       {},
	"greetings": {},
}

var helpTriggers = map[string]struct{}{
	"/help":           {},
	"help":            {},
	"what can you do": {},
}

// Classify maps message text to an intent. Matching is exact after
// lowercasing and trimming; anything else is a general question.
// Callers must filter out empty text before classification.
func Classify(text string) Intent {
	key := strings.ToLower(strings.TrimSpace(text))
	if _, ok := greetingTriggers[key]; ok {
		return IntentGreeting
	}
	if _, ok := helpTriggers[key]; ok {
		return IntentHelp
	}
	return IntentGeneral
}
