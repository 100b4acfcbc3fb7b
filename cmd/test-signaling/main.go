// Temporary test script for the signaling event stream.
// Delete after use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tejzpr/voicepush-go-sdk/signaling"
	"github.com/tejzpr/voicepush-go-sdk/voicesdk"
)

type printHandler struct{}

func (printHandler) OnInviteReceived(callID, caller string, channel signaling.ChannelType) {
	fmt.Printf("  [invite] id=%s caller=%s channel=%s\n", callID, caller, channel)
}

func (printHandler) OnHangup(callID string, quality signaling.RTCQuality, reason signaling.HangupReason) {
	fmt.Printf("  [hangup] id=%s reason=%s mos=%.1f\n", callID, reason, quality.MOS)
}

func (printHandler) OnInviteCancelled(callID string, reason signaling.CancelReason) {
	fmt.Printf("  [cancel] id=%s reason=%s\n", callID, reason)
}

func (printHandler) OnSessionError(reason signaling.SessionErrorReason) {
	fmt.Printf("  [session error] %s -> %q\n", reason, reason.StatusText())
}

func main() {
	credential := os.Getenv("VOICEPUSH_CREDENTIAL")
	if credential == "" {
		fmt.Println("VOICEPUSH_CREDENTIAL env var required")
		os.Exit(1)
	}

	fmt.Println("[1/3] Creating core client...")
	core, err := voicesdk.NewClient(credential, nil)
	if err != nil {
		fmt.Printf("ERROR creating client: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("[2/3] Creating session + opening event stream...")
	client := signaling.New(core, nil)
	client.SetHandler(printHandler{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sessionID, err := client.CreateSession(ctx, credential)
	cancel()
	if err != nil {
		fmt.Printf("ERROR creating session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Session: %s\n", sessionID)

	fmt.Println("[3/3] Connected! Listening for 120s.")
	fmt.Println(">>> Place a call to this account to see events.")
	fmt.Println()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nStopping...")
	case <-time.After(120 * time.Second):
		fmt.Println("\nTimeout.")
	}

	if err := client.DestroySession(context.Background()); err != nil {
		fmt.Printf("ERROR destroying session: %v\n", err)
	}
	fmt.Println("Disconnected.")
}
