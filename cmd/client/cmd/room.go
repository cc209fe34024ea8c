package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roomcast/roomcast/internal/client/api"
)

var createCmd = &cobra.Command{
	Use:   "create <room-name>",
	Short: "Create a new room and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, username := identity()
		client := api.NewClient(flagServer, userId, username)
		room, err := client.CreateRoom(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("room %q created\n", room.Name)
		fmt.Printf("  id: %s\n", room.Id)
		fmt.Printf("  join with: roomcast join %s\n", room.Id)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <room-id>",
	Short: "Show a room's current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, username := identity()
		client := api.NewClient(flagServer, userId, username)
		room, err := client.GetRoom(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("room %s (%s)\n", room.Id, room.Name)
		fmt.Printf("  video:        %s\n", orNone(room.Playback.VideoUrl))
		fmt.Printf("  playing:      %t at %.1fs\n", room.Playback.IsPlaying, room.Playback.CurrentTime)
		fmt.Printf("  participants: %d\n", room.ParticipantCount)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rooms you own or have joined",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, username := identity()
		client := api.NewClient(flagServer, userId, username)
		rooms, err := client.ListRooms(cmd.Context())
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			fmt.Println("no rooms")
			return nil
		}
		for _, room := range rooms {
			fmt.Printf("%s  %-20s  %d participants  %s\n",
				room.Id, room.Name, room.ParticipantCount, orNone(room.Playback.VideoUrl))
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <room-id>",
	Short: "Delete a room you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, username := identity()
		client := api.NewClient(flagServer, userId, username)
		if err := client.DeleteRoom(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("room %s deleted\n", args[0])
		return nil
	},
}

// identity resolves the flag-provided identity, generating a throwaway
// one when absent, same as the server would for an anonymous client.
func identity() (userId, username string) {
	userId = flagUserId
	if userId == "" {
		userId = "guest-" + uuid.NewString()
	}
	username = flagUsername
	if username == "" {
		if hostname, err := os.Hostname(); err == nil {
			username = hostname
		} else {
			username = "Guest"
		}
	}
	return userId, username
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}
