// Package parser reads markdown decks:
//
//	Q: What is the capital of France?
//	A: Paris
//	T: geography, europe
//	---
//
// Q: starts a card, A: holds the answer, T: a comma-separated tag list.
// Lines without a prefix continue the current block. "---" ends a card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	tagsPrefix     = "T:"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingTags
)

// Entry is one card read from a markdown deck.
type Entry struct {
	Front string
	Back  string
	Tags  []string
}

// ParseFile reads a file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all entries. Entries missing
// either a question or an answer are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var currentBlock []string
	currentState := seeking

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(currentBlock, "\n"))
		switch currentState {
		case readingQuestion:
			current.Front = content
		case readingAnswer:
			current.Back = content
		case readingTags:
			current.Tags = splitTags(content)
		}
		currentBlock = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Front != "" && current.Back != "" {
			if current.Tags == nil {
				current.Tags = []string{}
			}
			entries = append(entries, current)
		}
		current = Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			finishEntry()
			continue
		}

		prefix, next := "", seeking
		switch {
		case strings.HasPrefix(line, questionPrefix):
			prefix, next = questionPrefix, readingQuestion
		case strings.HasPrefix(line, answerPrefix):
			prefix, next = answerPrefix, readingAnswer
		case strings.HasPrefix(line, tagsPrefix):
			prefix, next = tagsPrefix, readingTags
		}

		if next == seeking {
			if currentState != seeking {
				currentBlock = append(currentBlock, line)
			}
			continue
		}

		if next == readingQuestion && currentState != seeking {
			// A new question always starts a new card
			finishEntry()
		} else {
			flushBlock()
		}
		currentState = next
		currentBlock = append(currentBlock, strings.TrimPrefix(line[len(prefix):], " "))
	}

	finishEntry() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
