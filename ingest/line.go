package ingest

import (
	"regexp"
	"strings"
)

// LineKind classifies a chat protocol line.
type LineKind int

const (
	LineUnknown LineKind = iota
	LinePing
	LineHost
	LineNotice
)

// PongReply answers a server PING.
const PongReply = "PONG :tmi.twitch.tv"

var (
	pingRe = regexp.MustCompile(`PING\s:tmi\.twitch\.tv`)
	// Host names outside this charset are not matched.
	hostRe   = regexp.MustCompile(`(?im)^:jtv!jtv@jtv\.tmi\.twitch\.tv\sPRIVMSG\s#?([A-Za-z0-9_-]+)\s:([A-Za-z0-9_-]+)\sis\snow\shosting\syou\.`)
	noticeRe = regexp.MustCompile(`(?im)^(\S+)\s:tmi\.twitch\.tv\sUSERNOTICE\s#([A-Za-z0-9_-]+)(?:\s:(.*))?$`)
)

// Line is a classified chat line.
type Line struct {
	Kind    LineKind
	Channel string
	Name    string            // hosting user, LineHost only
	Tags    map[string]string // LineNotice only
	Message string            // optional notice text
}

// ParseLine classifies a single raw line. Trailing CR/LF is ignored.
func ParseLine(raw string) Line {
	raw = strings.TrimRight(raw, "\r\n")
	if pingRe.MatchString(raw) && strings.HasPrefix(raw, "PING") {
		return Line{Kind: LinePing}
	}

	// jtv lines may carry a tag prefix once the tags capability is on
	untagged := raw
	if strings.HasPrefix(raw, "@") {
		if i := strings.IndexByte(raw, ' '); i > 0 {
			untagged = raw[i+1:]
		}
	}
	if m := hostRe.FindStringSubmatch(untagged); m != nil {
		return Line{Kind: LineHost, Channel: m[1], Name: m[2]}
	}

	if m := noticeRe.FindStringSubmatch(raw); m != nil {
		return Line{Kind: LineNotice, Channel: m[2], Tags: ParseTags(m[1]), Message: m[3]}
	}
	return Line{Kind: LineUnknown}
}

// ParseTags splits an IRCv3 tag section into a map. The leading '@' is optional, each pair is
// split on its first '=' and values are unescaped.
func ParseTags(s string) map[string]string {
	s = strings.TrimPrefix(s, "@")
	tags := make(map[string]string)
	if s == "" {
		return tags
	}
	for _, kv := range strings.Split(s, ";") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		tags[k] = unescapeTag(v)
	}
	return tags
}

var tagUnescaper = strings.NewReplacer(`\s`, " ", `\:`, ";", `\\`, `\`, `\r`, "\r", `\n`, "\n")

func unescapeTag(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	return tagUnescaper.Replace(v)
}
