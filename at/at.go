// Package at defines the EC800K command vocabulary used by the session
// engine: bring-up commands, per-transaction command builders and the
// response tokens the engine scans for.
package at

import (
	"fmt"
	"strings"
)

const (
	// Terminal Control
	CRLF = "\r\n"

	// SendPrompt is emitted by the modem when it is ready to accept the
	// raw payload bytes announced by a QISEND command.
	SendPrompt = ">"

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR"

	// OpenSuccess confirms that connection 0 on context 1 opened cleanly.
	OpenSuccess = "+QIOPEN: 0,0"
	// SendOK confirms the modem accepted the payload for transmission.
	SendOK = "SEND OK"

	// Bring-up commands, issued once at session start.
	CmdAt              = "AT"
	CmdSimStatus       = "AT+CPIN?"
	CmdNetRegistration = "AT+CREG?"
	CmdAttach          = "AT+CGATT=1"
	CmdContextActivate = "AT+QIACT=1"
	CmdContextQuery    = "AT+QIACT?"

	// CmdClose tears down connection 0. Issued best-effort.
	CmdClose = "AT+QICLOSE=0"
)

// APNConfig builds the packet-domain context configuration command.
func APNConfig(apn string) string {
	return fmt.Sprintf(`AT+QICSGP=1,1,%q`, apn)
}

// DNSConfig builds the DNS server configuration command.
func DNSConfig(primary, secondary string) string {
	return fmt.Sprintf(`AT+QIDNSCFG=1,%q,%q`, primary, secondary)
}

// Open builds the open-TCP-connection command for connection 0.
func Open(host string, port int) string {
	return fmt.Sprintf(`AT+QIOPEN=1,0,"TCP",%q,%d,0,1`, host, port)
}

// Send builds the send-data command announcing n payload bytes.
func Send(n int) string {
	return fmt.Sprintf("AT+QISEND=0,%d", n)
}

// artifacts are control-channel fragments that mark the point where the
// modem's own chatter leaked into a response capture. Checked in this
// order; the first entry present wins, even if a later entry occurs
// earlier in the text. The tokens are plain literals and can in theory
// appear inside legitimate content ("OK\r\n" especially); that is an
// accepted limitation of the unframed channel.
var artifacts = []string{"AT+", "+QI", SendOK, OK + CRLF}

// FirstArtifact returns the byte offset of the first control-channel
// artifact in s, or -1 if none is present.
func FirstArtifact(s string) int {
	for _, a := range artifacts {
		if i := strings.Index(s, a); i >= 0 {
			return i
		}
	}
	return -1
}
