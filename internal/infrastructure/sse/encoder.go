// ABOUTME: Server-sent events frame encoding for the /events stream
// ABOUTME: Splits multi-line payloads into data fields and ends frames with a blank line
package sse

import "bytes"

// BuildFrame encodes data as one unnamed event. Each line of data becomes its
// own "data:" field so embedded newlines survive the stream framing.
func BuildFrame(data []byte) []byte {
	var buf bytes.Buffer

	// Normalize CR/CRLF so a stray carriage return cannot end a field early
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	for _, line := range bytes.Split(data, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	return buf.Bytes()
}

// Comment encodes a comment line. Clients ignore it; it keeps idle
// connections from being reaped by proxies.
func Comment(text string) []byte {
	return []byte(": " + text + "\n\n")
}
