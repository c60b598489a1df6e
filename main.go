package main

import (
	"flag"
	"log"
	"time"

	"CanvasBoard/internal/api"
	"CanvasBoard/internal/board"
	"CanvasBoard/internal/discover"
	"CanvasBoard/internal/drawing"
	"CanvasBoard/internal/session"
	syncchan "CanvasBoard/internal/sync"
	"CanvasBoard/internal/ui"
)

func main() {
	addrVar := flag.String("addr", "", "board server host:port (discovered via mDNS when empty)")
	tokenVar := flag.String("token", "", "bearer token for the board server")
	canvasVar := flag.String("canvas", "default", "canvas identity to open")
	flag.Parse()

	addr := *addrVar
	if addr == "" {
		found, err := discover.ServerAddr(3 * time.Second)
		if err != nil {
			log.Fatalf("no -addr given and discovery failed: %v", err)
		}
		log.Printf("discovered board server at %s", found)
		addr = found
	}

	sess := session.New()
	sess.SetToken(*tokenVar)

	client := api.NewClient("http://"+addr, sess)
	channel := syncchan.NewChannel("ws://"+addr+"/ws", sess)
	// A rotated credential invalidates the live connection; the next
	// connect dials with the fresh token.
	sess.OnRotate(channel.ForceReconnect)

	machine := drawing.NewMachine()
	ctrl := board.NewController(client, channel, machine)

	ui.RunApp(ctrl, *canvasVar)
}
