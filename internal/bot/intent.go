package bot

import (
	"strings"

	"github.com/couchcryptid/weather-report-bot/internal/adapter/telegram"
)

// Intent is the classified purpose of an inbound update.
type Intent int

const (
	IntentUnsupported Intent = iota
	IntentHelp
	IntentStart
	IntentPlace
	IntentLocation
)

func (i Intent) String() string {
	switch i {
	case IntentHelp:
		return "help"
	case IntentStart:
		return "start"
	case IntentPlace:
		return "place"
	case IntentLocation:
		return "location"
	default:
		return "unsupported"
	}
}

// Command tokens, matched case-insensitively on the message text.
const (
	helpCommand  = "/HELP"
	startCommand = "/START"
	placeCommand = "/PLACE"
)

// Classify maps an update's shape to an intent. Pure function: adding
// an intent means extending this table and the loop's dispatch map.
func Classify(u telegram.Update) Intent {
	msg := u.Message
	if msg == nil {
		return IntentUnsupported
	}
	if msg.Location != nil {
		return IntentLocation
	}
	if len(msg.Entities) == 0 || msg.Entities[0].Type != telegram.EntityBotCommand {
		return IntentUnsupported
	}

	text := strings.ToUpper(msg.Text)
	switch {
	case strings.Contains(text, helpCommand):
		return IntentHelp
	case strings.Contains(text, startCommand):
		return IntentStart
	case strings.Contains(text, placeCommand):
		return IntentPlace
	default:
		return IntentUnsupported
	}
}

// placeArgument extracts the query following the /place command.
// Returns false when the argument is missing.
func placeArgument(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", false
	}
	arg := strings.Join(fields[1:], " ")
	if arg == "" {
		return "", false
	}
	return arg, true
}
