// ABOUTME: Read-only view over stored Gmail metadata payloads
// ABOUTME: Extracts addresses, subject, snippet, date and direction from message headers
package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// DefaultEmailSubject titles interactions for messages without a Subject header.
const DefaultEmailSubject = "Email without subject"

var emailPattern = regexp.MustCompile(`[A-Za-z0-9_.+-]+@[A-Za-z0-9_.-]+\.[A-Za-z]+`)

var ErrHeaderParsing = errors.New("header parsing failed")

// HeaderParsingError reports a header that yielded no email address.
type HeaderParsingError struct {
	Header string
	Value  string
}

func (e *HeaderParsingError) Error() string {
	return fmt.Sprintf("parsing %s header failed: %q", e.Header, e.Value)
}

func (e *HeaderParsingError) Is(target error) bool {
	return target == ErrHeaderParsing
}

// ExtractEmails returns the distinct lowercase addresses found in a header value, sorted.
func ExtractEmails(header string) ([]string, error) {
	matches := emailPattern.FindAllString(header, -1)
	if len(matches) == 0 {
		return nil, &HeaderParsingError{Value: header}
	}

	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		emails = append(emails, normalizeEmail(m))
	}
	slices.Sort(emails)
	return slices.Compact(emails), nil
}

// Direction of a message relative to the syncing user.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionUnknown  Direction = "unknown"
)

type GmailMessage struct {
	msg     *gmail.Message
	headers map[string]string
}

func NewGmailMessage(msg *gmail.Message) *GmailMessage {
	headers := make(map[string]string)
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			name := strings.ToLower(h.Name)
			if _, seen := headers[name]; !seen {
				headers[name] = h.Value
			}
		}
	}
	return &GmailMessage{msg: msg, headers: headers}
}

// ParseGmailMessage decodes a payload stored by the Gmail importer.
func ParseGmailMessage(data []byte) (*GmailMessage, error) {
	var msg gmail.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode gmail message: %w", err)
	}
	return NewGmailMessage(&msg), nil
}

func (m *GmailMessage) ID() string {
	return m.msg.Id
}

// Header looks a header up by case-insensitive name.
func (m *GmailMessage) Header(name string) (string, bool) {
	v, ok := m.headers[strings.ToLower(name)]
	return v, ok
}

// To returns the recipients; a missing or empty To header means none.
func (m *GmailMessage) To() ([]string, error) {
	v, ok := m.Header("To")
	if !ok || strings.TrimSpace(v) == "" {
		return []string{}, nil
	}
	emails, err := ExtractEmails(v)
	if err != nil {
		return nil, &HeaderParsingError{Header: "To", Value: v}
	}
	return emails, nil
}

// From returns the single sender address. Several addresses yield the first in sort
// order; callers may want to log that.
func (m *GmailMessage) From() (string, []string, error) {
	v, ok := m.Header("From")
	if !ok {
		return "", nil, &HeaderParsingError{Header: "From"}
	}
	emails, err := ExtractEmails(v)
	if err != nil {
		return "", nil, &HeaderParsingError{Header: "From", Value: v}
	}
	return emails[0], emails, nil
}

func (m *GmailMessage) Subject() string {
	if v, ok := m.Header("Subject"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return DefaultEmailSubject
}

func (m *GmailMessage) Snippet() string {
	return m.msg.Snippet
}

// Date is internalDate (epoch milliseconds) in UTC.
func (m *GmailMessage) Date() time.Time {
	return time.UnixMilli(m.msg.InternalDate).UTC()
}

// Participants is the union of recipients and sender.
func (m *GmailMessage) Participants() ([]string, error) {
	to, err := m.To()
	if err != nil {
		return nil, err
	}
	from, _, err := m.From()
	if err != nil {
		return nil, err
	}
	all := append(slices.Clone(to), from)
	slices.Sort(all)
	return slices.Compact(all), nil
}

// Direction compares the user's addresses against sender and recipients.
// A message the user sent to themselves is unknown.
func (m *GmailMessage) Direction(userEmails []string) (Direction, error) {
	from, _, err := m.From()
	if err != nil {
		return DirectionUnknown, err
	}
	to, err := m.To()
	if err != nil {
		return DirectionUnknown, err
	}

	var inFrom, inTo bool
	for _, e := range userEmails {
		e = normalizeEmail(e)
		if e == from {
			inFrom = true
		}
		if slices.Contains(to, e) {
			inTo = true
		}
	}

	switch {
	case inFrom && inTo:
		return DirectionUnknown, nil
	case inFrom:
		return DirectionOutgoing, nil
	case inTo:
		return DirectionIncoming, nil
	default:
		return DirectionUnknown, nil
	}
}
