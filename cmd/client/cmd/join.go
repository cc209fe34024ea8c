package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roomcast/roomcast/internal/client/playback"
	"github.com/roomcast/roomcast/internal/client/protocol"
	"github.com/roomcast/roomcast/internal/client/session"
	"github.com/roomcast/roomcast/internal/client/signaling"
	"github.com/roomcast/roomcast/internal/client/voice"
)

var (
	flagJoinStun    string
	flagJoinVoice   bool
	flagJoinVerbose bool
)

var joinCmd = &cobra.Command{
	Use:   "join <room-id>",
	Short: "Join a room and follow its playback, chat and voice",
	Long: `Join a room. Incoming playback events drive a local headless player;
chat messages are printed as they arrive.

Interactive commands:
  /play            resume playback for everyone
  /pause           pause playback for everyone
  /seek <seconds>  jump to a position
  /url <url>       switch the room to another video
  /voice           join or leave the voice call
  /quit            leave the room
  anything else is sent as a chat message`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoin(cmd.Context(), args[0])
	},
}

func runJoin(ctx context.Context, roomId string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	userId, username := identity()
	logger := newLogger()

	client, err := signaling.Dial(ctx, &signaling.Config{
		ServerUrl: flagServer,
		UserId:    userId,
		Username:  username,
	}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	player := playback.NewConsolePlayer(os.Stdout)
	reconciler := playback.NewReconciler(playback.Config{RoomId: roomId}, client, player, logger)

	factory := voice.NewPionFactory(voice.FactoryConfig{
		StunUrls: []string{flagJoinStun},
		TrackId:  userId,
	})
	coordinator := voice.NewCoordinator(voice.Config{
		RoomId:   roomId,
		UserId:   userId,
		Username: username,
		OnLinkState: func(peerId string, state voice.LinkState) {
			fmt.Printf("[voice] %s: %s\n", peerId, state)
		},
	}, client, factory, factory.AcquireMedia, logger)

	sess := session.New(session.Config{
		RoomId:   roomId,
		UserId:   userId,
		Username: username,
	}, client, reconciler, coordinator, session.Handlers{
		OnRoomState: func(p protocol.RoomStatePayload) {
			fmt.Printf("joined room %s (%d participants)\n", roomId, p.Participants)
		},
		OnUserJoined: func(p protocol.PresencePayload) {
			fmt.Printf("* %s joined (%d participants)\n", p.Username, p.Participants)
		},
		OnUserLeft: func(p protocol.PresencePayload) {
			fmt.Printf("* %s left (%d participants)\n", p.Username, p.Participants)
		},
		OnChatMessage: func(p protocol.ChatMessageEventPayload) {
			fmt.Printf("<%s> %s\n", p.Username, p.Message)
		},
		OnServerError: func(message string) {
			fmt.Fprintf(os.Stderr, "server error: %s\n", message)
		},
	}, logger)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sess.Run(sessionCtx)
	}()

	go readCommands(sessionCtx, cancel, sess)

	if flagJoinVoice {
		if err := sess.JoinVoice(sessionCtx); err != nil {
			fmt.Fprintf(os.Stderr, "voice unavailable: %v\n", err)
		}
	}

	err = <-errCh
	if errors.Is(err, context.Canceled) || errors.Is(err, signaling.ErrClosed) {
		return nil
	}
	return err
}

func readCommands(ctx context.Context, cancel context.CancelFunc, sess *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	inVoice := flagJoinVoice

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case line == "/quit":
			cancel()
			return
		case line == "/play":
			err = sess.Playback().OnLocalPlay()
		case line == "/pause":
			err = sess.Playback().OnLocalPause()
		case strings.HasPrefix(line, "/seek "):
			var seconds float64
			seconds, err = strconv.ParseFloat(strings.TrimPrefix(line, "/seek "), 64)
			if err == nil {
				err = sess.Playback().OnLocalSeek(seconds)
			}
		case strings.HasPrefix(line, "/url "):
			err = sess.Playback().OnLocalUrlChange(strings.TrimPrefix(line, "/url "))
		case line == "/voice":
			if inVoice {
				err = sess.LeaveVoice()
				inVoice = false
			} else {
				err = sess.JoinVoice(ctx)
				inVoice = err == nil
			}
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", line)
		default:
			err = sess.SendChat(line)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	cancel()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagJoinVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVar(&flagJoinStun, "stun", "stun:stun.l.google.com:19302", "STUN server for voice")
	joinCmd.Flags().BoolVar(&flagJoinVoice, "voice", false, "Join the voice call immediately")
	joinCmd.Flags().BoolVarP(&flagJoinVerbose, "verbose", "v", false, "Verbose logging")
}
