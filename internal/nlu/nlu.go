package nlu

import "strings"

type Intent int

const (
	Delegate Intent = iota
	Exit
	QueryName
	QueryTime
)

func (i Intent) String() string {
	switch i {
	case Exit:
		return "exit"
	case QueryName:
		return "name"
	case QueryTime:
		return "time"
	default:
		return "delegate"
	}
}

// Order matters: the first rule with a matching phrase wins.
var rules = []struct {
	intent  Intent
	phrases []string
}{
	{Exit, []string{"exit", "quit"}},
	{QueryName, []string{"your name"}},
	{QueryTime, []string{"time"}},
}

// Classify maps an utterance to a local intent by case-insensitive substring
// match. Anything unmatched, including the empty string, is Delegate.
func Classify(utterance string) Intent {
	u := strings.ToLower(utterance)
	for _, r := range rules {
		for _, p := range r.phrases {
			if strings.Contains(u, p) {
				return r.intent
			}
		}
	}
	return Delegate
}
