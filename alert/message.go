package alert

import (
	"math/rand"
	"strings"
)

var openers = []string{
	"Vielen Dank für den {kind}",
	"Dankeschön für den {kind}",
	"Das ist aber ein toller {kind}",
	"Waren das schon alle {kind}",
	"Nur ein {kind}",
	"Besten Dank für den {kind}",
	"Es ist Zeit für ein DuDuDu-{kind}",
	"Pakt die Fischbrötchen aus wir haben einen {kind}",
	"Die Lotl freuen sich über den {kind}",
}

var closers = []string{
	"aber da geht doch noch mehr {user}!",
	"kaufen kann ich mir davon aber nichts {user}!",
	"wenn doch nur alle {kind}s so toll wären wie die von {user}.",
	"mehr darf man von {user} aber wohl nicht erwarten.",
	"da arbeiten wir aber nochmal dran {user}...",
	"schämst du dich nicht {user}?",
	"und wenn {user} das kann, können die andern das sicher schon lange!",
}

// OpenerCount and CloserCount size the reachable message space.
var (
	OpenerCount = len(openers)
	CloserCount = len(closers)
)

// MessageGenerator composes thank-you messages. Fit, when set, is called with the final
// message so the display element can be sized before the text is revealed.
type MessageGenerator struct {
	Fit func(text string)

	// Intn picks a uniform index in [0,n). Defaults to math/rand.
	Intn func(n int) int
}

// Compose returns the message built from the given opener and closer indexes.
func Compose(kind Kind, user string, opener, closer int) string {
	r := strings.NewReplacer("{kind}", kind.String(), "{user}", user)
	return r.Replace(openers[opener]) + ", " + r.Replace(closers[closer])
}

// Generate picks an opener and a closer independently and returns the joined message.
func (g *MessageGenerator) Generate(kind Kind, user string) string {
	intn := g.Intn
	if intn == nil {
		intn = rand.Intn
	}
	msg := Compose(kind, user, intn(len(openers)), intn(len(closers)))
	if g.Fit != nil {
		g.Fit(msg)
	}
	return msg
}
