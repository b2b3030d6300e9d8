package main

import (
	"github.com/tapoptz/tapoptz/internal/api"
	"github.com/tapoptz/tapoptz/internal/api/ws"
	"github.com/tapoptz/tapoptz/internal/app"
	"github.com/tapoptz/tapoptz/internal/ptz"
	"github.com/tapoptz/tapoptz/pkg/shell"
)

func main() {
	app.Init() // init config and logs

	api.Init() // init HTTP API server
	ws.Init()  // init WebSocket API (depends on API)

	ptz.Init() // load cameras, PTZ API and metrics

	shell.RunUntilSignal()
}
