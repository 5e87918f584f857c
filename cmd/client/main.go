package main

import (
	"bufio"
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/infrastructure/rest"
	"chat-sync/infrastructure/storage"
	"chat-sync/infrastructure/ws"
	"chat-sync/internal"
	"chat-sync/runtime"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the conversation engine to the terminal and blocks until the
// user quits, stdin closes or a termination signal arrives.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Credentials are owned elsewhere; only refuse obviously dead tokens
	expired, err := auth.IsExpired(config.AuthToken, time.Now())
	if err != nil {
		return exitConfig, err
	}
	if expired {
		return exitConfig, fmt.Errorf("auth token is expired")
	}
	selfID := config.SelfID
	if selfID == "" {
		if selfID, err = auth.Subject(config.AuthToken); err != nil || selfID == "" {
			return exitConfig, fmt.Errorf("SELF_ID is not set and the token carries no user id")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Session-scoped blob cache, memory only
	db, err := storage.OpenInMemory()
	if err != nil {
		return exitRuntime, fmt.Errorf("blob cache opening failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	client := rest.NewClient(log, config.HTTPBaseURL, config.HTTPTimeout)
	directory := rest.NewDirectoryClient(client)
	media := rest.NewMediaClient(client, storage.NewBlobRepository(db, log))

	// 4. Pick the peer
	peers, err := directory.AvailableUsers(ctx, config.AuthToken)
	if err != nil {
		return exitRuntime, err
	}
	console := newConsole(os.Stdout, selfID)
	console.peers(peers)
	peer, err := choosePeer(peers, config.PeerID)
	if err != nil {
		return exitConfig, err
	}

	// 5. Open the conversation
	controller := runtime.NewController(log, selfID,
		rest.NewHistoryClient(client),
		ws.NewGorillaDialer(config.ConnectTimeout, nil),
		config.WSBaseURL, client.BaseURL(), config.ConnectTimeout)
	defer controller.Close()

	unwatch := controller.Timeline().Watch(console.render)
	defer unwatch()

	if err := controller.SelectPeer(ctx, config.AuthToken, peer); err != nil {
		return exitRuntime, fmt.Errorf("could not open conversation with %s: %w", peer.Username, err)
	}
	console.info(fmt.Sprintf(">>> Talking to %s (/help for commands, Ctrl+C to quit)", peer.Username))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-controller.Errors():
				console.failure(err)
			}
		}
	}()

	// 6. Input loop
	lines := readLines(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			console.info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			in, err := parseInput(line)
			if err != nil {
				console.failure(err)
				continue
			}
			if in.kind == inputQuit {
				return exitOK, nil
			}
			if err := execute(ctx, in, controller, directory, media, config.AuthToken, console); err != nil {
				console.failure(err)
			}
		}
	}
}

func choosePeer(peers []domain.Peer, peerID string) (domain.Peer, error) {
	for _, p := range peers {
		if peerID == "" || p.ID == peerID {
			return p, nil
		}
	}
	if peerID == "" {
		return domain.Peer{}, fmt.Errorf("no user available to talk to")
	}
	return domain.Peer{}, fmt.Errorf("user %s is not available", peerID)
}

func execute(ctx context.Context, in input, controller *runtime.Controller,
	directory rest.DirectoryClient, media rest.MediaClient, token string, console *console) error {
	switch in.kind {
	case inputSend:
		return controller.SendMessage(in.text, nil, nil)
	case inputSendImages:
		attachments, err := readAttachments(in.files)
		if err != nil {
			return err
		}
		upload, err := media.UploadImages(ctx, token, attachments)
		if err != nil {
			return err
		}
		return controller.SendMessage(nil, upload.References, nil)
	case inputSendAudio:
		attachments, err := readAttachments(in.files)
		if err != nil {
			return err
		}
		upload, err := media.UploadAudio(ctx, token, attachments[0])
		if err != nil {
			return err
		}
		if len(upload.References) == 0 {
			return fmt.Errorf("audio upload returned no reference: %s", upload.Raw)
		}
		return controller.SendMessage(nil, nil, lo.ToPtr(upload.References[0]))
	case inputEdit:
		return controller.UpdateMessage(in.id, *in.text)
	case inputDelete:
		return controller.DeleteMessage(in.id, in.forBoth)
	case inputShow:
		message, err := directory.GetMessage(ctx, token, in.id)
		if err != nil {
			return err
		}
		console.render([]domain.Message{message})
	case inputImage:
		blob, err := media.FetchProtectedImage(ctx, in.id, token)
		if err != nil {
			return err
		}
		console.info(fmt.Sprintf("image %s cached as %s (%s, %d bytes)", in.id, blob.Handle, blob.MimeType, blob.Size))
	case inputHelp:
		console.help()
	}
	return nil
}

func readAttachments(paths []string) ([]rest.Attachment, error) {
	attachments := make([]rest.Attachment, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		attachments = append(attachments, rest.Attachment{Name: filepath.Base(path), Data: data})
	}
	return attachments, nil
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
