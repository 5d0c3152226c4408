package at_test

import (
	"testing"

	"i4.energy/across/lteproxy/at"
)

func TestCommandBuilders(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"Open", at.Open("example.com", 80), `AT+QIOPEN=1,0,"TCP","example.com",80,0,1`},
		{"Send", at.Send(102), "AT+QISEND=0,102"},
		{"APNConfig", at.APNConfig("CTNET"), `AT+QICSGP=1,1,"CTNET"`},
		{"DNSConfig", at.DNSConfig("114.114.114.114", "8.8.8.8"), `AT+QIDNSCFG=1,"114.114.114.114","8.8.8.8"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestFirstArtifact(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"No artifacts", "<html><body>hello</body></html>", -1},
		{"Command echo", "<html>hi</html>AT+QICLOSE=0", 15},
		{"URC fragment", "partial<body>+QIOPEN: 0,0", 13},
		{"Send ack", "contentSEND OK", 7},
		{"Bare OK line", "payloadOK\r\n", 7},
		{"Empty input", "", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := at.FirstArtifact(tc.in); got != tc.want {
				t.Errorf("FirstArtifact(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}

	t.Run("List order beats position", func(t *testing.T) {
		// "OK\r\n" occurs before "AT+", but "AT+" is checked first.
		in := "OK\r\ncontentAT+X"
		if got := at.FirstArtifact(in); got != 11 {
			t.Errorf("expected the AT+ hit at 11, got %d", got)
		}
	})
}
