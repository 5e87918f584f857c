package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type inputKind int

const (
	inputSend inputKind = iota
	inputSendImages
	inputSendAudio
	inputEdit
	inputDelete
	inputShow
	inputImage
	inputHelp
	inputQuit
)

type input struct {
	kind    inputKind
	id      string
	text    *string
	files   []string
	forBoth bool
}

// parseInput reads one terminal line. Plain text is sent as a message,
// lines starting with a slash are commands.
func parseInput(line string) (input, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return input{}, fmt.Errorf("empty input")
	}
	if !strings.HasPrefix(line, "/") {
		return input{kind: inputSend, text: lo.ToPtr(line)}, nil
	}

	fields := strings.Fields(line)
	args := fields[1:]
	switch fields[0] {
	case "/edit":
		if len(args) < 2 {
			return input{}, fmt.Errorf("usage: /edit <message-id> <text>")
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "/edit"))
		text := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		return input{kind: inputEdit, id: args[0], text: lo.ToPtr(text)}, nil
	case "/delete", "/delete-both":
		if len(args) != 1 {
			return input{}, fmt.Errorf("usage: %s <message-id>", fields[0])
		}
		return input{kind: inputDelete, id: args[0], forBoth: fields[0] == "/delete-both"}, nil
	case "/images":
		if len(args) == 0 {
			return input{}, fmt.Errorf("usage: /images <path>...")
		}
		return input{kind: inputSendImages, files: args}, nil
	case "/audio":
		if len(args) != 1 {
			return input{}, fmt.Errorf("usage: /audio <path>")
		}
		return input{kind: inputSendAudio, files: args}, nil
	case "/show", "/image":
		if len(args) != 1 {
			return input{}, fmt.Errorf("usage: %s <id>", fields[0])
		}
		kind := inputShow
		if fields[0] == "/image" {
			kind = inputImage
		}
		return input{kind: kind, id: args[0]}, nil
	case "/help":
		return input{kind: inputHelp}, nil
	case "/quit", "/exit":
		return input{kind: inputQuit}, nil
	default:
		return input{}, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
}
