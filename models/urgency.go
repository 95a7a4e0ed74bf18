// ABOUTME: Contact urgency calculations from cadence and last interaction
// ABOUTME: Pure functions deriving due date, urgency, and touch status
package models

import (
	"time"
)

// ContactStatus classifies a contact by how overdue it is.
type ContactStatus int

const (
	StatusHidden     ContactStatus = -1
	StatusInTouch    ContactStatus = 1
	StatusOutOfTouch ContactStatus = 2
)

func (s ContactStatus) String() string {
	switch s {
	case StatusHidden:
		return "hidden"
	case StatusInTouch:
		return "in_touch"
	case StatusOutOfTouch:
		return "out_of_touch"
	}
	return "unknown"
}

// ParseContactStatus accepts either the name or the numeric value of a status.
func ParseContactStatus(s string) (ContactStatus, bool) {
	switch s {
	case "hidden", "-1":
		return StatusHidden, true
	case "in_touch", "1":
		return StatusInTouch, true
	case "out_of_touch", "2":
		return StatusOutOfTouch, true
	}
	return 0, false
}

// LastInteractionDefaultAge is assumed when a contact has no interactions at all.
const LastInteractionDefaultAge = 365 * 24 * time.Hour

// ContactUrgency is the derived staleness of one contact at a point in time.
type ContactUrgency struct {
	Status          ContactStatus `json:"status"`
	Urgency         int           `json:"urgency"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	LastInteraction time.Time     `json:"last_interaction"`
	HasInteraction  bool          `json:"has_interaction"`
}

// LastInteractionOrDefault returns last, or now minus a year when last is nil.
func LastInteractionOrDefault(last *time.Time, now time.Time) time.Time {
	if last != nil {
		return *last
	}
	return now.Add(-LastInteractionDefaultAge)
}

// ElapsedDays counts whole days between from and to, flooring toward negative infinity.
func ElapsedDays(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// Urgency is days since last interaction minus the cadence; 0 when untracked.
func Urgency(frequencyInDays *int, last *time.Time, now time.Time) int {
	if frequencyInDays == nil || *frequencyInDays == 0 {
		return 0
	}
	return ElapsedDays(LastInteractionOrDefault(last, now), now) - *frequencyInDays
}

// DueDate is the last interaction plus the cadence; nil when untracked.
func DueDate(frequencyInDays *int, last *time.Time, now time.Time) *time.Time {
	if frequencyInDays == nil || *frequencyInDays == 0 {
		return nil
	}
	due := LastInteractionOrDefault(last, now).AddDate(0, 0, *frequencyInDays)
	return &due
}

// Status classifies a contact as hidden, in touch, or out of touch.
func Status(frequencyInDays *int, last *time.Time, now time.Time) ContactStatus {
	if frequencyInDays == nil || *frequencyInDays == 0 {
		return StatusHidden
	}
	if Urgency(frequencyInDays, last, now) > 0 {
		return StatusOutOfTouch
	}
	return StatusInTouch
}

// ComputeUrgency bundles status, urgency, and due date for a contact.
func ComputeUrgency(c *Contact, last *time.Time, now time.Time) ContactUrgency {
	return ContactUrgency{
		Status:          Status(c.FrequencyInDays, last, now),
		Urgency:         Urgency(c.FrequencyInDays, last, now),
		DueDate:         DueDate(c.FrequencyInDays, last, now),
		LastInteraction: LastInteractionOrDefault(last, now),
		HasInteraction:  last != nil,
	}
}
