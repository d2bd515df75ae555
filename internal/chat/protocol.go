package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultPort is the well-known presence port.
const DefaultPort = 9907

type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandHello
	CommandSay
	CommandWho
	CommandBye
	CommandKill
)

func (k CommandKind) String() string {
	switch k {
	case CommandHello:
		return "hello"
	case CommandSay:
		return "say"
	case CommandWho:
		return "who"
	case CommandBye:
		return "bye"
	case CommandKill:
		return "kill"
	default:
		return "unknown"
	}
}

var keywords = map[string]CommandKind{
	"HELLO": CommandHello,
	"SAY":   CommandSay,
	"WHO":   CommandWho,
	"BYE":   CommandBye,
	"KILL":  CommandKill,
}

// Command is one decoded client line.
// Arg holds the name for HELLO, the message for SAY and the raw line for unknown input.
type Command struct {
	Kind CommandKind
	Arg  string
}

// Decode never fails: anything that is not one of the five keywords is CommandUnknown.
func Decode(line string) Command {
	keyword, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		keyword, rest = line[:i], line[i:]
	}

	kind, ok := keywords[strings.ToUpper(keyword)]
	if !ok {
		return Command{Kind: CommandUnknown, Arg: line}
	}

	switch kind {
	case CommandHello:
		if fields := strings.Fields(rest); len(fields) > 0 {
			return Command{Kind: CommandHello, Arg: fields[0]}
		}
		return Command{Kind: CommandHello}
	case CommandSay:
		if strings.TrimSpace(rest) == "" {
			return Command{Kind: CommandSay}
		}
		// Drop the single separator after the keyword, keep everything else verbatim.
		_, size := utf8.DecodeRuneInString(rest)
		return Command{Kind: CommandSay, Arg: rest[size:]}
	default:
		return Command{Kind: kind}
	}
}

const (
	AnonymousName  = "An anonymous user"
	SomeoneArrived = "Someone has arrived..."
	UsageHint      = "What? I only understand HELLO, SAY, WHO, BYE and KILL commands"
	KillAck        = "KILL command received. Bringing server down..."
	RosterHeader   = "Currently connected users:"
	emptyMessage   = "nothing..."
)

var WelcomeBanner = []string{
	"Welcome to the Presence Server",
	"  Tell me who you are with 'HELLO name'",
	"  Say something to other users with 'SAY message'",
	"  Ask me who is connected with 'WHO'",
	"  Leave with 'BYE'",
	"  Shutdown server with 'KILL'",
}

func Arrival(name string) string { return name + " is in the room." }

func Said(name, msg string) string {
	if msg == "" {
		msg = emptyMessage
	}
	return name + " says: " + msg
}

func Leaving(name string) string { return name + " is about to leave the room." }

func Left(name string) string { return name + " has left the room." }

// RosterListing renders the WHO reply, one line per participant.
func RosterListing(names []string) []string {
	lines := make([]string, 0, len(names)+1)
	lines = append(lines, RosterHeader)
	for _, name := range names {
		lines = append(lines, " - "+name)
	}
	return lines
}
