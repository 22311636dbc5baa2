// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"frogcheck/internal/config"
	"frogcheck/internal/lsp"
)

const lsName = "frogcheck" // Name identifier for the language server

var (
	version = "0.1.0"        // Server version
	handler protocol.Handler // Protocol handler instance (wired up below)
)

func main() {
	configPath := flag.String("config", "", "configuration file (default ./"+config.FileName+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// stdout carries the protocol, so the log goes to stderr or the configured file
	var logFile *string
	if cfg.LogFile != "" {
		logFile = &cfg.LogFile
	}
	commonlog.Configure(max(cfg.Verbosity, 1), logFile)
	log := commonlog.GetLogger("frogcheck.lsp")

	frogHandler := lsp.NewFrogHandler(cfg)

	handler = protocol.Handler{
		Initialize:                     frogHandler.Initialize,
		Initialized:                    frogHandler.Initialized,
		Shutdown:                       frogHandler.Shutdown,
		SetTrace:                       frogHandler.SetTrace,
		TextDocumentDidOpen:            frogHandler.TextDocumentDidOpen,
		TextDocumentDidClose:           frogHandler.TextDocumentDidClose,
		TextDocumentDidChange:          frogHandler.TextDocumentDidChange,
		TextDocumentCompletion:         frogHandler.TextDocumentCompletion,
		TextDocumentSemanticTokensFull: frogHandler.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Noticef("starting %s %s", lsName, version)
	if err := s.RunStdio(); err != nil {
		log.Errorf("server stopped: %s", err)
		os.Exit(1)
	}
}
