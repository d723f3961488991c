package gateway

import "testing"

func TestParseResolvesFuzzyNames(t *testing.T) {
	cases := []struct {
		line string
		name string
		args int
		ok   bool
	}{
		{"build 3", "build", 1, true},
		{"borod @alice", "brood", 1, true},
		{"brood_randm", "brood_random", 0, true},
		{"mnifest_bird kookaburra 5", "manifest_bird", 2, true},
		{"sing @a @b @c", "sing", 3, true},
		{"  swoop   10 ", "swoop", 1, true},
		{"xyzzy", "", 0, false},
		{"", "", 0, false},
	}
	for _, tc := range cases {
		cmd, ok := Parse(tc.line)
		if ok != tc.ok {
			t.Errorf("Parse(%q) ok = %v, want %v", tc.line, ok, tc.ok)
			continue
		}
		if !ok {
			continue
		}
		if cmd.Name != tc.name {
			t.Errorf("Parse(%q) name = %q, want %q", tc.line, cmd.Name, tc.name)
		}
		if len(cmd.Args) != tc.args {
			t.Errorf("Parse(%q) args = %d, want %d", tc.line, len(cmd.Args), tc.args)
		}
	}
}

func TestAmountDefaultsToOne(t *testing.T) {
	n, rest := amount([]string{"kookaburra", "5"})
	if n != 5 || len(rest) != 1 {
		t.Fatalf("amount = %d rest %v", n, rest)
	}
	n, rest = amount([]string{"kookaburra"})
	if n != 1 || len(rest) != 1 {
		t.Fatalf("amount = %d rest %v", n, rest)
	}
	n, rest = amount(nil)
	if n != 1 || rest != nil {
		t.Fatalf("amount = %d rest %v", n, rest)
	}
}

func TestMentionStripsDecoration(t *testing.T) {
	for in, want := range map[string]string{
		"@alice":   "alice",
		"<@alice>": "alice",
		"alice":    "alice",
	} {
		if got := mention(in); got != want {
			t.Errorf("mention(%q) = %q, want %q", in, got, want)
		}
	}
}
