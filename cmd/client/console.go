package main

import (
	"chat-sync/domain"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// console prints to the terminal. Timeline snapshots and errors arrive from
// different goroutines, so writes are serialized.
type console struct {
	mu     sync.Mutex
	out    io.Writer
	selfID string
}

func newConsole(out io.Writer, selfID string) *console {
	return &console{out: out, selfID: selfID}
}

func (c *console) peers(peers []domain.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"ID", "Username", "Email"})
	for _, p := range peers {
		table.Append([]string{p.ID, p.Username, p.Email})
	}
	table.Render()
}

func (c *console) render(messages []domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, color.Gray.Sprintf("──── %d message(s) ────", len(messages)))
	for _, m := range messages {
		fmt.Fprintln(c.out, c.line(m))
	}
}

func (c *console) line(m domain.Message) string {
	var parts []string
	if m.TextContent != "" {
		parts = append(parts, m.TextContent)
	}
	if len(m.ImageContent) > 0 {
		parts = append(parts, fmt.Sprintf("[%d image(s)]", len(m.ImageContent)))
	}
	if m.AudioContent != "" {
		parts = append(parts, "[audio]")
	}
	body := strings.Join(parts, " ")
	if m.UpdatedAt > m.CreatedAt && m.CreatedAt != 0 {
		body += color.Gray.Sprint(" (edited)")
	}

	id := color.Gray.Sprintf("%s", m.ID)
	if m.Sender == c.selfID {
		return fmt.Sprintf("%s %s %s", id, color.Green.Sprint("me:"), body)
	}
	return fmt.Sprintf("%s %s %s", id, color.Cyan.Sprintf("%s:", m.Sender), body)
}

func (c *console) info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, color.Yellow.Sprint(msg))
}

func (c *console) failure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, color.Red.Sprintf("error: %v", err))
}

func (c *console) help() {
	c.info(strings.Join([]string{
		"<text>                      send a message",
		"/edit <id> <text>           edit a message",
		"/delete <id>                delete for me",
		"/delete-both <id>           delete for both of us",
		"/images <path>...           upload and send images",
		"/audio <path>               upload and send an audio file",
		"/show <id>                  fetch a message by id",
		"/image <id>                 download a protected image",
		"/quit                       leave",
	}, "\n"))
}
