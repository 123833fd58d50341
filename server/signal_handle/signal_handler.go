package signal_handle

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/samehada"
	"github.com/ryogrid/SamehadaDict/server"
)

// SignalHandlerTh waits for SIGINT or SIGTERM, stops srv, shuts db down
// and then notifies exitNotifyCh.
func SignalHandlerTh(srv *server.Server, db *samehada.SamehadaDB, exitNotifyCh chan<- bool) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// block until a signal arrives
	sig := <-sigChan
	common.ShPrintf(common.INFO, "received %v, shutting down", sig)

	// stop handle request
	srv.Stop()

	if err := db.Shutdown(); err != nil {
		common.ShPrintf(common.ERROR, "shutdown: %v", err)
	}

	// notify that shutdown operation finished to main thread
	exitNotifyCh <- true
}
