package ingest

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		kind     LineKind
		hostName string
		msgID    string
	}{
		{"ping", "PING :tmi.twitch.tv\r\n", LinePing, "", ""},
		{"host", ":jtv!jtv@jtv.tmi.twitch.tv PRIVMSG somechannel :Bar is now hosting you.", LineHost, "Bar", ""},
		{"host with hash and tags", "@badges= :jtv!jtv@jtv.tmi.twitch.tv PRIVMSG #somechannel :bar_99 is now hosting you.", LineHost, "bar_99", ""},
		{"host name outside charset", ":jtv!jtv@jtv.tmi.twitch.tv PRIVMSG somechannel :日本 is now hosting you.", LineUnknown, "", ""},
		{"raid notice", "@msg-id=raid;display-name=Foo;msg-param-viewerCount=42 :tmi.twitch.tv USERNOTICE #somechannel", LineNotice, "", "raid"},
		{"sub notice with message", "@msg-id=resub;display-name=Foo :tmi.twitch.tv USERNOTICE #somechannel :great stream", LineNotice, "", "resub"},
		{"chat message", "@badges= :foo!foo@foo.tmi.twitch.tv PRIVMSG #somechannel :PING :tmi.twitch.tv", LineUnknown, "", ""},
		{"empty", "", LineUnknown, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.raw)
			if got.Kind != tt.kind {
				t.Fatalf("ParseLine(%q).Kind = %v, want %v", tt.raw, got.Kind, tt.kind)
			}
			if got.Name != tt.hostName {
				t.Errorf("Name = %q, want %q", got.Name, tt.hostName)
			}
			if tt.msgID != "" && got.Tags["msg-id"] != tt.msgID {
				t.Errorf("msg-id = %q, want %q", got.Tags["msg-id"], tt.msgID)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	tags := ParseTags(`@display-name=Foo;msg-param-displayName=Foo\sBar;system-msg=a\:b\\c;empty=;flag;url=https://x/y?a=b`)
	want := map[string]string{
		"display-name":          "Foo",
		"msg-param-displayName": "Foo Bar",
		"system-msg":            `a;b\c`,
		"empty":                 "",
		"flag":                  "",
		"url":                   "https://x/y?a=b",
	}
	if len(tags) != len(want) {
		t.Fatalf("ParseTags = %v, want %v", tags, want)
	}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tags[%q] = %q, want %q", k, tags[k], v)
		}
	}
}
