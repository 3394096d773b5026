package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ZanzyTHEbar/helio-assistant/helio/session"
)

const (
	msgEmptyInput     = "Please enter a question."
	msgOutOfDomain    = "Please ask only solar energy-related questions."
	msgFetchError     = "Error fetching response"
	historyPreviewLen = 40
)

// renderer prints answers, styled with glamour unless plain is set.
type renderer struct {
	out   io.Writer
	style string
	plain bool
}

func (r *renderer) answer(text string) {
	if !r.plain {
		if styled, err := glamour.Render(text, r.style); err == nil {
			fmt.Fprint(r.out, styled)
			return
		}
	}
	fmt.Fprintln(r.out, strings.TrimRight(text, "\n"))
}

// outcome prints an Outcome the way the chat has always reported it.
func (r *renderer) outcome(out session.Outcome) {
	switch out.Status {
	case session.Answered:
		r.answer(out.Entry.Answer)
	case session.Rejected:
		if errors.Is(out.Err, session.ErrEmptyInput) {
			fmt.Fprintln(r.out, msgEmptyInput)
		} else {
			fmt.Fprintln(r.out, msgOutOfDomain)
		}
	case session.Failed:
		fmt.Fprintf(r.out, "%s: %s\n", msgFetchError, out.Reason)
	}
}

// preview shortens a question for history listings.
func preview(question string) string {
	q := strings.Join(strings.Fields(question), " ")
	runes := []rune(q)
	if len(runes) <= historyPreviewLen {
		return q
	}
	return string(runes[:historyPreviewLen]) + "..."
}
