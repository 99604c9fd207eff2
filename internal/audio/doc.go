// Package audio drives a DFPlayer Pro sound module over its AT command
// serial protocol.
//
// Every command is one line, "AT+NAME=VALUE\r\n", answered by one line.
// A command succeeds only when the answer is "OK". The wait for the answer
// is bounded by the configured acknowledgement timeout, so a silent module
// costs at most one timeout per command and never stalls the caller longer.
//
// A goroutine owns the read side of the port and hands complete lines to
// the player; stale lines are discarded before each command is sent.
//
// When audio is disabled in configuration, Silent stands in for the player.
package audio
