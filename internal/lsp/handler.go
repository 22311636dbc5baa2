package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"frogcheck/internal/check"
	"frogcheck/internal/config"
)

var log = commonlog.GetLogger("frogcheck.lsp")

// Define the set of supported semantic token types (as required by the LSP spec)
var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"method",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"operator",
	"modifier",
	"comment",
}

// Define the set of supported semantic token modifiers (for extra tagging like declaration, readonly, etc.)
var SemanticTokenModifiers = []string{
	"declaration",
	"definition",
	"readonly",
	"static",
}

// FrogHandler implements the LSP server handlers. Every open document is
// verified for the configured properties on open and on change.
type FrogHandler struct {
	cfg *config.Config

	mu      sync.RWMutex
	content map[protocol.DocumentUri]string
	results map[protocol.DocumentUri]*check.Result
	trace   protocol.TraceValue
}

// NewFrogHandler creates a handler checking with cfg, or the defaults when
// cfg is nil
func NewFrogHandler(cfg *config.Config) *FrogHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &FrogHandler{
		cfg:     cfg,
		content: make(map[protocol.DocumentUri]string),
		results: make(map[protocol.DocumentUri]*check.Result),
		trace:   protocol.TraceValueOff,
	}
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *FrogHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true), // notify on open/close events
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider:   ptrBool(false),
				TriggerCharacters: []string{"."},
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true), // support full-document semantic token requests
			},
		},
	}, nil
}

// Initialized is called after the client receives the server's capabilities and completes initialization
func (h *FrogHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("initialized")
	return nil
}

// Shutdown handles the LSP shutdown request
func (h *FrogHandler) Shutdown(ctx *glsp.Context) error {
	log.Info("shutdown")
	return nil
}

// SetTrace records the trace level requested by the client
func (h *FrogHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	h.mu.Lock()
	h.trace = params.Value
	h.mu.Unlock()
	log.Debugf("trace set to %s", params.Value)
	return nil
}

// TextDocumentDidOpen verifies a newly opened document
func (h *FrogHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Infof("opened %s", params.TextDocument.URI)
	h.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

// TextDocumentDidClose forgets the document and clears its diagnostics
func (h *FrogHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Infof("closed %s", params.TextDocument.URI)

	uri := params.TextDocument.URI
	h.mu.Lock()
	delete(h.content, uri)
	delete(h.results, uri)
	h.mu.Unlock()

	publish(ctx, uri, []protocol.Diagnostic{})
	return nil
}

// TextDocumentDidChange re-verifies the document. Only full synchronization
// is advertised, so the last change carries the whole text.
func (h *FrogHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Infof("changed %s", params.TextDocument.URI)

	var text string
	found := false
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text, found = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if c.Range != nil {
				return fmt.Errorf("incremental change to %s, only full synchronization is supported", params.TextDocument.URI)
			}
			text, found = c.Text, true
		}
	}
	if !found {
		return fmt.Errorf("no content in change to %s", params.TextDocument.URI)
	}

	h.update(ctx, params.TextDocument.URI, text)
	return nil
}

// TextDocumentCompletion offers sell after a receiver and the statement
// keywords elsewhere
func (h *FrogHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	items := []protocol.CompletionItem{}
	if params.Context != nil && params.Context.TriggerCharacter != nil && *params.Context.TriggerCharacter == "." {
		items = append(items, completion("sell", protocol.CompletionItemKindMethod, "void sell(int price)"))
	} else {
		for _, kw := range []string{"int", "Frog", "new", "if", "else", "while", "return"} {
			items = append(items, completion(kw, protocol.CompletionItemKindKeyword, ""))
		}
		items = append(items, completion("sell", protocol.CompletionItemKindMethod, "void sell(int price)"))
	}

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}, nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *FrogHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI

	h.mu.RLock()
	source, ok := h.content[uri]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("document %s is not open", uri)
	}

	tokens := collectSemanticTokens(documentName(uri), source)
	return &protocol.SemanticTokens{
		Data: encodeSemanticTokens(tokens),
	}, nil
}

// Result returns the last run on uri
func (h *FrogHandler) Result(uri protocol.DocumentUri) (*check.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.results[uri]
	return r, ok
}

func (h *FrogHandler) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	r := check.Source(documentName(uri), text, h.cfg.Properties, h.cfg)
	for _, report := range r.Reports {
		for _, p := range report.Properties {
			log.Debugf("%s: %s %s", report.Class, p, report.Verdict(p))
		}
	}

	h.mu.Lock()
	h.content[uri] = text
	h.results[uri] = r
	h.mu.Unlock()

	publish(ctx, uri, ConvertDiagnostics(r))
}

// documentName is the local path of uri, or uri itself when it is not a
// file URI
func documentName(uri protocol.DocumentUri) string {
	path, err := uriToPath(uri)
	if err != nil || path == "" {
		return uri
	}
	return path
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) -> C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func publish(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	log.Debugf("publishing %d diagnostic(s) for %s", len(diagnostics), uri)
	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func completion(label string, kind protocol.CompletionItemKind, detail string) protocol.CompletionItem {
	item := protocol.CompletionItem{Label: label, Kind: &kind}
	if detail != "" {
		item.Detail = ptrString(detail)
	}
	return item
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
