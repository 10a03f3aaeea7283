// Package ocr transcribes scanned message exports page by page. Pages are
// rendered to JPEG and handed to a Recognizer, either a vision model behind
// an OpenAI-compatible API or a local Tesseract engine.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PageImage is one rendered page
type PageImage struct {
	Page int    // 1-based
	JPEG []byte
	// Prompt is the instruction for model-based recognizers; others ignore it
	Prompt string
}

// Recognizer turns a page image into text
type Recognizer interface {
	Recognize(ctx context.Context, img PageImage) (string, error)
}

// ErrUnknownMode is returned by ParseMode
var ErrUnknownMode = errors.New("unknown OCR mode")

// Mode selects the prompt and the output layout
type Mode int

const (
	// ModeMessages reconstructs chat bubbles as aligned HTML divs
	ModeMessages Mode = iota
	// ModeTranscript transcribes the page as markdown
	ModeTranscript
)

// ParseMode accepts "messages" or "transcript"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "messages", "":
		return ModeMessages, nil
	case "transcript":
		return ModeTranscript, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if m == ModeTranscript {
		return "transcript"
	}
	return "messages"
}

// Prompt returns the vision model instruction for the mode
func (m Mode) Prompt() string {
	if m == ModeTranscript {
		return transcriptPrompt
	}
	return messagesPrompt
}

// DefaultDPI is the render resolution used for the mode
func (m Mode) DefaultDPI() float64 {
	if m == ModeTranscript {
		return 300
	}
	return 200
}

// DefaultPageDelay is the pause between page requests for the mode
func (m Mode) DefaultPageDelay() time.Duration {
	if m == ModeTranscript {
		return time.Second
	}
	return 500 * time.Millisecond
}

func (m Mode) header(stem string) string {
	if m == ModeTranscript {
		return fmt.Sprintf("# %s\n\n", stem)
	}
	return fmt.Sprintf("<!-- Source: %s -->\n\n", stem)
}

func (m Mode) page(n int, text string) string {
	if m == ModeTranscript {
		return fmt.Sprintf("\n\n## Page %d\n\n%s", n, text)
	}
	return fmt.Sprintf("\n<!-- Page %d -->\n%s\n", n, text)
}

func (m Mode) pageError(n int, err error) string {
	if m == ModeTranscript {
		return fmt.Sprintf("[ERROR PROCESSING PAGE %d]", n)
	}
	return fmt.Sprintf("<!-- Error processing page %d: %v -->", n, err)
}

const messagesPrompt = `You are an AI assistant processing message logs.
Your goal is to extract messages and format them as HTML divs based on their alignment in the image to reconstruct the conversation flow.

Instructions:
1. Identify all message bubbles on the page.
2. If a message is visually on the RIGHT side (usually outgoing/blue), format it as:
   <div style="text-align: right; margin: 5px; color: #0066cc;">[CONTENT]</div>
3. If a message is visually on the LEFT side (usually incoming/gray), format it as:
   <div style="text-align: left; margin: 5px; color: #333;">[CONTENT]</div>
4. If there is a timestamp, format it with the same alignment as the associated message.
5. IGNORE page headers or footers like "Page X of Y", "iMessage", "extract by DigiDNA", etc.
6. Output ONLY the HTML strings, one per line. Do not wrap in markdown code blocks.`

const transcriptPrompt = "You are a forensic document analyst. Transcribe this page exactly into Markdown.\n\n" +
	"Rules:\n" +
	"1. Preserve all formatting, bolding, and headers.\n" +
	"2. Convert tables into Markdown tables.\n" +
	"3. If text is illegible, write [UNCLEAR].\n" +
	"4. Do not add any conversational text, preamble, or markdown code fences (```).\n" +
	"5. Return ONLY the content."
