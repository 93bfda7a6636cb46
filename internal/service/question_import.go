package service

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	questionLine = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)
	optionLine   = regexp.MustCompile(`^\s*([A-Da-d])\)\s*(.+)$`)
	answerLine   = regexp.MustCompile(`(?i)^\s*answer[:\s]+([A-D])\b`)
)

// ParsedOption is one lettered choice of an imported question
type ParsedOption struct {
	Letter string
	Text   string
}

// ParsedQuestion is a well-formed block from an MCQ import
type ParsedQuestion struct {
	Text    string
	Options []ParsedOption
	Answer  string
}

// ParseMCQs splits numbered question blocks out of plain text. A block needs
// a question line, at least two options and an answer naming one of them.
// Malformed blocks are reported in skipped and left out of the result.
func ParseMCQs(text string) (parsed []ParsedQuestion, skipped []string) {
	var cur *ParsedQuestion
	flush := func() {
		if cur == nil {
			return
		}
		if reason := cur.validate(); reason != "" {
			skipped = append(skipped, fmt.Sprintf("Skipped: '%s' (%s)", truncate(cur.Text, 40), reason))
		} else {
			parsed = append(parsed, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := questionLine.FindStringSubmatch(line); m != nil {
			flush()
			cur = &ParsedQuestion{Text: strings.TrimSpace(m[1])}
			continue
		}
		if cur == nil {
			continue
		}
		if m := answerLine.FindStringSubmatch(line); m != nil {
			cur.Answer = strings.ToUpper(m[1])
			continue
		}
		if m := optionLine.FindStringSubmatch(line); m != nil {
			cur.Options = append(cur.Options, ParsedOption{
				Letter: strings.ToUpper(m[1]),
				Text:   strings.TrimSpace(m[2]),
			})
			continue
		}
		// wrapped question text
		if len(cur.Options) == 0 {
			cur.Text += " " + strings.TrimSpace(line)
		}
	}
	flush()
	return parsed, skipped
}

func (q *ParsedQuestion) validate() string {
	if q.Text == "" {
		return "empty question"
	}
	if len(q.Options) < 2 || q.Answer == "" {
		return "missing options/answer"
	}
	seen := map[string]bool{}
	for _, o := range q.Options {
		if seen[o.Letter] {
			return "duplicate option " + o.Letter
		}
		seen[o.Letter] = true
	}
	if !seen[q.Answer] {
		return "answer " + q.Answer + " is not an option"
	}
	return ""
}
